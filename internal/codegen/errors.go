package codegen

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Generation error codes (E200-E219)
const (
	ErrNameCollision    = "E201" // two source names map to one identifier
	ErrUnsupportedShape = "E202" // registry shape not expressible in target
	ErrInvalidConfig    = "E203" // config rejected before generation
)

// CodegenError is a generation failure attributed to a registry location.
type CodegenError struct {
	Target   Target `json:"target"`
	Location string `json:"location"`
	Message  string `json:"message"`
	Code     string `json:"code"`
}

// Error implements the error interface.
func (e *CodegenError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Target, e.Location, e.Message)
}

// Is matches any CodegenError with the same code, so callers can test
// errors.Is(err, &CodegenError{Code: ErrNameCollision}).
func (e *CodegenError) Is(target error) bool {
	t, ok := target.(*CodegenError)
	return ok && t.Code == e.Code
}

// NameCollision reports two distinct source names that sanitize to the
// same identifier within one scope.
func NameCollision(target Target, scope, a, b, ident string) error {
	return &CodegenError{
		Target:   target,
		Location: scope,
		Message:  fmt.Sprintf("%q and %q both map to identifier %q", a, b, ident),
		Code:     ErrNameCollision,
	}
}

// UnsupportedShape reports a registry shape the target cannot express.
func UnsupportedShape(target Target, location, format string, args ...any) error {
	return &CodegenError{
		Target:   target,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
		Code:     ErrUnsupportedShape,
	}
}

// Code extracts the CodegenError code from err, or "".
func Code(err error) string {
	var ce *CodegenError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
