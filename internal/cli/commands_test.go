package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, out string, data any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "", "validate", "testdata/point.yaml")
	require.NoError(t, err)
	assert.Regexp(t, `^✓ testdata/point.yaml: 1 container, hash [0-9a-f]{64}\n$`, out)
}

func TestValidate_Invalid(t *testing.T) {
	out, err := execute(t, "", "validate", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ testdata/invalid.yaml: 2 errors")
	assert.Contains(t, out, "[E102]")
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, "", "validate", "--format", "json", "testdata/invalid.yaml")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	decodeResponse(t, out, &result)
	assert.False(t, result.Valid)
	assert.Equal(t, 1, result.Containers)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "E102", result.Errors[0].Code)
}

func TestValidate_MissingFile(t *testing.T) {
	out, err := execute(t, "", "validate", "testdata/nope.yaml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestResolve_JSON(t *testing.T) {
	out, err := execute(t, "", "resolve", "--format", "json", "testdata/tree.yaml")
	require.NoError(t, err)

	var result ResolveResult
	decodeResponse(t, out, &result)
	assert.Equal(t, []string{"Tree", "Forest"}, result.Order)
	assert.Equal(t, [][]string{{"Tree"}}, result.Components)
	require.Len(t, result.Indirect, 1)
	assert.Equal(t, "Tree", result.Indirect[0].From)
	assert.Equal(t, "Tree", result.Indirect[0].To)
}

func TestResolve_Text(t *testing.T) {
	out, err := execute(t, "", "resolve", "testdata/point.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Order:\n  1. Point\nCycles:\n  none\nIndirect:\n  none\n", out)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", "generate", "-t", "go", "-t", "rust", "-t", "python3", "-m", "point", "-o", dir, "testdata/point.yaml")
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ go (point)")
	assert.Contains(t, out, "✓ rust (point)")
	assert.Contains(t, out, "✓ python3 (point)")
	assert.FileExists(t, filepath.Join(dir, "point", "point.go"))
	assert.FileExists(t, filepath.Join(dir, "point", "src", "lib.rs"))
	assert.FileExists(t, filepath.Join(dir, "point", "__init__.py"))
}

func TestGenerate_NoRuntime(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", "generate", "--format", "json", "--no-runtime", "-m", "point", "-o", dir, "testdata/point.yaml")
	require.NoError(t, err)

	var result GenerateResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Targets, 1)
	require.Len(t, result.Targets[0].Files, 1)
	assert.Equal(t, filepath.Join("point", "point.go"), result.Targets[0].Files[0].Path)
}

func TestGenerate_MissingModule(t *testing.T) {
	_, err := execute(t, "", "generate", "-o", t.TempDir(), "testdata/point.yaml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGenerate_InvalidRegistry(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "", "generate", "-m", "line", "-o", dir, "testdata/invalid.yaml")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.NoDirExists(t, filepath.Join(dir, "line"))
}

func TestGenerate_Cache(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(t.TempDir(), "cache.db")
	args := []string{"generate", "--cache", db, "-m", "point", "-o", dir, "testdata/point.yaml"}

	out, err := execute(t, "", args...)
	require.NoError(t, err)
	assert.NotContains(t, out, "cached")

	out, err = execute(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, out, ", cached")

	out, err = execute(t, "", "cache", "list", "--cache", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Regexp(t, `1\s+go\s+point`, out)

	out, err = execute(t, "", "cache", "prune", "--keep", "0", "--cache", db)
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 artifact.\n", out)

	out, err = execute(t, "", "cache", "list", "--cache", db)
	require.NoError(t, err)
	assert.Equal(t, "Cache is empty.\n", out)
}

func TestCache_NotConfigured(t *testing.T) {
	_, err := execute(t, "", "cache", "list")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	args := []string{"-m", "point", "-o", dir, "testdata/point.yaml"}

	out, err := execute(t, "", append([]string{"check"}, args...)...)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "out of date: "+filepath.Join("point", "point.go"))
	assert.NoFileExists(t, filepath.Join(dir, "point", "point.go"))

	_, err = execute(t, "", append([]string{"generate"}, args...)...)
	require.NoError(t, err)

	out, err = execute(t, "", append([]string{"check"}, args...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ go (point)")
	assert.NotContains(t, out, "out of date")

	path := filepath.Join(dir, "point", "point.go")
	require.NoError(t, os.WriteFile(path, []byte("package point\n"), 0o644))

	out, err = execute(t, "", append([]string{"check"}, args...)...)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ go (point)")
	assert.Contains(t, out, "out of date: "+filepath.Join("point", "point.go"))
}

func TestEncodeDecode(t *testing.T) {
	out, err := execute(t, `{"x": 1, "y": 2}`, "encode", "-r", "testdata/point.yaml", "--type", "Point")
	require.NoError(t, err)
	assert.Equal(t, "0100000002000000\n", out)

	out, err = execute(t, "", "decode", "-r", "testdata/point.yaml", "--type", "Point", "-e", "noncanonical", "0100000002000000")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1, "y": 2}`, out)
}

func TestEncode_JSON(t *testing.T) {
	out, err := execute(t, `{"x": 7, "y": 0}`, "encode", "--format", "json", "-r", "testdata/point.yaml", "--type", "Point")
	require.NoError(t, err)

	var result CodecResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "Point", result.Type)
	assert.Equal(t, "canonical", result.Encoding)
	assert.Equal(t, "0700000000000000", result.Hex)
	assert.JSONEq(t, `{"x": 7, "y": 0}`, result.Value)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		exit int
		code string
	}{
		{"trailing bytes", []string{"--type", "Point", "010000000200000000"}, ExitFailure, "TrailingBytes"},
		{"short input", []string{"--type", "Point", "01000000"}, ExitFailure, "UnexpectedEndOfInput"},
		{"bad hex", []string{"--type", "Point", "zz"}, ExitCommandError, "E001"},
		{"unknown type", []string{"--type", "Line", "00"}, ExitCommandError, "E001"},
		{"unknown encoding", []string{"--type", "Point", "-e", "json", "00"}, ExitCommandError, "E001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"decode", "--format", "json", "-r", "testdata/point.yaml"}, tt.args...)
			out, err := execute(t, "", args...)
			assert.Equal(t, tt.exit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestConform(t *testing.T) {
	out, err := execute(t, "", "conform", "testdata/vectors")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ point (")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestConform_JSON(t *testing.T) {
	out, err := execute(t, "", "conform", "--format", "json", "testdata/vectors/point.yaml")
	require.NoError(t, err)

	var result ConformResult
	decodeResponse(t, out, &result)
	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Suites, 1)
	assert.True(t, result.Suites[0].Pass)
	assert.Empty(t, result.Suites[0].Failures)
}

func TestConform_MissingPath(t *testing.T) {
	_, err := execute(t, "", "conform", "testdata/none")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
