package golang

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/resolver"
	"github.com/roach88/serdegen/internal/testutil"
)

const pointRoundTrip = `package point

import (
	"bytes"
	"errors"
	"testing"

	"example.com/gen/serde"
)

func TestRoundTrip(t *testing.T) {
	p := Point{X: 1, Y: 2}
	data, err := p.LcsSerialize()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{1, 0, 0, 0, 2, 0, 0, 0}) {
		t.Fatalf("got %x", data)
	}
	back, err := LcsDeserializePoint(data)
	if err != nil || back != p {
		t.Fatalf("got %v, %v", back, err)
	}
	if _, err := LcsDeserializePoint(append(data, 0)); !errors.Is(err, serde.ErrTrailingBytes) {
		t.Fatalf("expected trailing bytes, got %v", err)
	}
}
`

// TestToolchain_Compiles builds generated packages against the installed
// runtime with the local go toolchain.
func TestToolchain_Compiles(t *testing.T) {
	if testing.Short() {
		t.Skip("toolchain test skipped in -short mode")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not on PATH")
	}

	dir := t.TempDir()
	write := func(rel string, data []byte) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	write("go.mod", []byte("module example.com/gen\n\ngo 1.21\n"))

	g := New()
	runtimeFiles, err := g.Runtime(codegen.Config{RuntimeImport: "example.com/gen"})
	require.NoError(t, err)
	for _, f := range runtimeFiles {
		write(f.Path, f.Content)
	}

	for module, reg := range map[string]*format.Registry{
		"point":   testutil.PointRegistry(),
		"kitchen": testutil.KitchenSinkRegistry(),
		"expr":    testutil.ExprRegistry(),
		"tree":    testutil.TreeRegistry(),
		"job":     jobRegistry(),
	} {
		cfg := codegen.Config{ModuleName: module, Encodings: encoding.All, RuntimeImport: "example.com/gen"}
		src, err := g.Generate(reg, resolver.Resolve(reg), cfg, g.NewNamer())
		require.NoError(t, err, module)
		for _, f := range src.Files {
			write(filepath.Join(module, f.Path), f.Content)
		}
	}
	write("point/roundtrip_test.go", []byte(pointRoundTrip))

	cmd := exec.Command(goBin, "vet", "./...")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOWORK=off", "GOFLAGS=-mod=mod", "GOPROXY=off")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	cmd = exec.Command(goBin, "test", "./point/")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOWORK=off", "GOFLAGS=-mod=mod", "GOPROXY=off")
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}
