package serde

import "fmt"

// ErrorKind classifies codec failures.
type ErrorKind int

const (
	InvalidTag ErrorKind = iota + 1
	NonMinimalEncoding
	IntegerOverflow
	UnknownVariant
	InvalidUtf8
	MapNotSorted
	DuplicateKey
	TrailingBytes
	MaxDepthExceeded
	UnexpectedEndOfInput
)

var kindNames = map[ErrorKind]string{
	InvalidTag:           "InvalidTag",
	NonMinimalEncoding:   "NonMinimalEncoding",
	IntegerOverflow:      "IntegerOverflow",
	UnknownVariant:       "UnknownVariant",
	InvalidUtf8:          "InvalidUtf8",
	MapNotSorted:         "MapNotSorted",
	DuplicateKey:         "DuplicateKey",
	TrailingBytes:        "TrailingBytes",
	MaxDepthExceeded:     "MaxDepthExceeded",
	UnexpectedEndOfInput: "UnexpectedEndOfInput",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseErrorKind is the inverse of ErrorKind.String.
func ParseErrorKind(name string) (ErrorKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Error is returned by every codec operation that rejects its input.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Is matches any *Error of the same kind, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidTag           = &Error{Kind: InvalidTag}
	ErrNonMinimalEncoding   = &Error{Kind: NonMinimalEncoding}
	ErrIntegerOverflow      = &Error{Kind: IntegerOverflow}
	ErrUnknownVariant       = &Error{Kind: UnknownVariant}
	ErrInvalidUtf8          = &Error{Kind: InvalidUtf8}
	ErrMapNotSorted         = &Error{Kind: MapNotSorted}
	ErrDuplicateKey         = &Error{Kind: DuplicateKey}
	ErrTrailingBytes        = &Error{Kind: TrailingBytes}
	ErrMaxDepthExceeded     = &Error{Kind: MaxDepthExceeded}
	ErrUnexpectedEndOfInput = &Error{Kind: UnexpectedEndOfInput}
)
