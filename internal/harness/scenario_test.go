package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/internal/encoding"
)

func TestLoadSuite_Valid(t *testing.T) {
	suite, err := LoadSuite("testdata/vectors/shapes.yaml")
	require.NoError(t, err)

	assert.Equal(t, "shapes", suite.Name)
	assert.Equal(t, filepath.Join("testdata", "registries", "sample.yaml"), suite.Registry)
	require.NotEmpty(t, suite.Vectors)

	circle := suite.Vectors[0]
	want, ok, err := circle.Expected(encoding.Canonical)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x07, 0x00, 0x00, 0x00}, want)
}

func TestLoadSuite_Invalid(t *testing.T) {
	reg, err := filepath.Abs("testdata/registries/sample.yaml")
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown field",
			body:    "name: a\ndescription: b\nregistry: " + reg + "\nvectorz: []\n",
			wantErr: "field vectorz not found",
		},
		{
			name:    "missing name",
			body:    "description: b\nregistry: " + reg + "\n",
			wantErr: "name is required",
		},
		{
			name:    "missing registry file",
			body:    "name: a\ndescription: b\nregistry: nowhere.yaml\nvectors: [{name: v, type: Point, canonical: '00', value: null}]\n",
			wantErr: "registry not found",
		},
		{
			name:    "no vectors",
			body:    "name: a\ndescription: b\nregistry: " + reg + "\n",
			wantErr: "vectors list is required",
		},
		{
			name:    "nothing to check",
			body:    "name: a\ndescription: b\nregistry: " + reg + "\nvectors: [{name: v, type: Point}]\n",
			wantErr: "at least one of canonical, noncanonical or reject",
		},
		{
			name:    "missing value",
			body:    "name: a\ndescription: b\nregistry: " + reg + "\nvectors: [{name: v, type: Point, canonical: '00'}]\n",
			wantErr: "value is required",
		},
		{
			name:    "bad hex",
			body:    "name: a\ndescription: b\nregistry: " + reg + "\nvectors: [{name: v, type: Point, canonical: 'zz', value: null}]\n",
			wantErr: "hex",
		},
		{
			name:    "unknown error kind",
			body:    "name: a\ndescription: b\nregistry: " + reg + "\nvectors: [{name: v, type: Point, reject: [{encoding: lcs, hex: '00', error: Oops}]}]\n",
			wantErr: `unknown error kind "Oops"`,
		},
		{
			name:    "duplicate vector",
			body:    "name: a\ndescription: b\nregistry: " + reg + "\nvectors: [{name: v, type: Point, canonical: '00', value: null}, {name: v, type: Point, canonical: '00', value: null}]\n",
			wantErr: `duplicate name "v"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "suite.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := LoadSuite(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSuites_Empty(t *testing.T) {
	_, err := LoadSuites(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suites found")
}
