package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/loader"
	"github.com/roach88/serdegen/runtime/golang/serde"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation, generation, decode or conformance failure, drift found by check
	ExitCommandError = 2 // Command error (bad flags, missing files, unreadable config)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string   `json:"code"`            // "E102", "MapNotSorted", ...
	Message string   `json:"message"`         // human-readable message
	Hints   []string `json:"hints,omitempty"` // suggested fixes
	Details any      `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format. Text
// output prints data with fmt.Println.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	return f.write(&CLIError{Code: code, Message: message, Details: details})
}

// Fail reports err with its classified code and hints, then returns an
// ExitError carrying exitCode.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	ce := &CLIError{
		Code:    errorCode(err),
		Message: fmt.Sprintf("%s: %v", message, err),
		Hints:   errors.GetAllHints(err),
	}
	var list format.ValidationErrors
	if errors.As(err, &list) {
		ce.Details = list
	}
	if werr := f.write(ce); werr != nil {
		return werr
	}
	return WrapExitError(exitCode, message, err)
}

func (f *OutputFormatter) write(ce *CLIError) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: ce})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", ce.Code, ce.Message)
	for _, h := range ce.Hints {
		fmt.Fprintf(f.Writer, "Hint: %s\n", h)
	}
	if f.Verbose && ce.Details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", ce.Details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// errorCode classifies err by the first typed error in its chain.
func errorCode(err error) string {
	var list format.ValidationErrors
	if errors.As(err, &list) && len(list) > 0 {
		return list[0].Code
	}
	var ve format.ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	if code := codegen.Code(err); code != "" {
		return code
	}
	var le *loader.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var se *serde.Error
	if errors.As(err, &se) {
		return se.Kind.String()
	}
	return loader.ErrCodeGeneric
}

// commandError reports whether err is a problem with the invocation
// (missing inputs) rather than with their contents.
func commandError(err error) bool {
	var le *loader.LoadError
	if !errors.As(err, &le) {
		return false
	}
	switch le.Code {
	case loader.ErrCodeNotFound, loader.ErrCodeScanError, loader.ErrCodeNoFiles, loader.ErrCodeUnknownKind:
		return true
	}
	return false
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
