package golang

import (
	"bytes"
	"io/fs"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/runtime"
)

// runtimeFiles copies the embedded Go runtime, rewriting its internal
// imports to prefix. Tests are not installed.
func runtimeFiles(prefix string) ([]codegen.File, error) {
	from := []byte(`"` + codegen.DefaultGoRuntime + `/`)
	to := []byte(`"` + strings.TrimSuffix(prefix, "/") + `/`)

	var files []codegen.File
	err := fs.WalkDir(runtime.Go, "golang", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, "_test.go") {
			return nil
		}
		data, err := fs.ReadFile(runtime.Go, p)
		if err != nil {
			return err
		}
		files = append(files, codegen.File{
			Path:    strings.TrimPrefix(p, "golang/"),
			Content: bytes.ReplaceAll(data, from, to),
			Kind:    codegen.RuntimeFile,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded Go runtime")
	}
	return files, nil
}
