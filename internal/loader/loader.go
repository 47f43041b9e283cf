package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/jsonc"

	"github.com/roach88/serdegen/internal/format"
)

// Kind is a registry document kind.
type Kind string

const (
	JSON  Kind = "json"
	JSONC Kind = "jsonc"
	YAML  Kind = "yaml"
	CUE   Kind = "cue"
)

// Error code constants for load failures. Registry decoding errors keep
// their format codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeUnknownKind = "E007" // Unrecognized file extension
)

// LoadError is a failure to read or evaluate a document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// KindOf returns the document kind for path's extension.
func KindOf(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".jsonc":
		return JSONC, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".cue":
		return CUE, nil
	}
	return "", &LoadError{
		Code:    ErrCodeUnknownKind,
		Message: fmt.Sprintf("cannot tell the document kind of %s (want .json, .jsonc, .yaml, .yml or .cue)", path),
	}
}

// Load reads the registry at path. A directory is loaded as a CUE
// instance; a file is parsed according to its extension.
func Load(path string) (*format.Registry, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("registry not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing registry: %v", err)}
	}
	if info.IsDir() {
		return LoadCUEDir(path)
	}

	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	reg, err := Parse(kind, path, data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return reg, nil
}

// Parse decodes data as a document of kind. filename is only used in CUE
// error positions.
func Parse(kind Kind, filename string, data []byte) (*format.Registry, error) {
	switch kind {
	case JSON:
		return format.ParseJSON(data)
	case JSONC:
		return format.ParseJSON(jsonc.ToJSON(data))
	case YAML:
		return format.ParseYAML(data)
	case CUE:
		v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
		return fromCUE(v)
	}
	return nil, &LoadError{Code: ErrCodeUnknownKind, Message: fmt.Sprintf("unknown document kind %q", kind)}
}

// LoadCUEDir loads every .cue file in dir as one instance.
func LoadCUEDir(dir string) (*format.Registry, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}
	return fromCUE(cuecontext.New().BuildInstance(inst))
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}

// fromCUE exports v to JSON and decodes the result. Regular fields are
// exported in declaration order; definitions and hidden fields are not
// exported, so documents may use them for shared shapes.
func fromCUE(v cue.Value) (*format.Registry, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}
	return format.ParseJSON(data)
}

func cueError(code string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
