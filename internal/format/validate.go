package format

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Registry validation error codes (E100-E119)
const (
	ErrDuplicateName         = "E101" // container registered twice
	ErrUnknownReference      = "E102" // TypeName not in registry
	ErrDuplicateField        = "E103" // repeated struct field name
	ErrDuplicateVariantIndex = "E104" // repeated enum index
	ErrDuplicateVariantName  = "E105" // repeated enum variant name
	ErrEmptyName             = "E106" // empty container/field/variant name
	ErrInvalidArraySize      = "E107" // negative TUPLEARRAY size
	ErrMissingFormat         = "E108" // nil format or payload

	// Interchange errors (E110-E119)
	ErrMalformedDocument = "E110" // document is not a registry
	ErrUnknownTag        = "E111" // unrecognized format tag
)

// ValidationError is a registry construction or validation problem.
// Field is the location of the offending element, e.g. "Shape::Circle.0".
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found by Validate.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasCode reports whether err is or wraps a ValidationError with code.
func HasCode(err error, code string) bool {
	var list ValidationErrors
	if errors.As(err, &list) {
		for _, ve := range list {
			if ve.Code == code {
				return true
			}
		}
		return false
	}
	var ve ValidationError
	return errors.As(err, &ve) && ve.Code == code
}

// Validate checks the registry and returns ValidationErrors listing
// every problem, or nil. It does not fail fast.
func Validate(reg *Registry) error {
	if errs := Check(reg); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

// Check is Validate returning the raw list.
func Check(reg *Registry) []ValidationError {
	var errs []ValidationError
	reg.Each(func(name string, c ContainerFormat) {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, ValidationError{Field: "<registry>", Message: "container name is empty", Code: ErrEmptyName})
		}
		errs = append(errs, checkContainer(reg, name, c)...)
	})
	return errs
}

func checkContainer(reg *Registry, name string, c ContainerFormat) []ValidationError {
	var errs []ValidationError
	switch x := c.(type) {
	case nil:
		errs = append(errs, ValidationError{Field: name, Message: "container definition is missing", Code: ErrMissingFormat})
		return errs
	case Struct:
		errs = append(errs, checkFields(Location{Container: name}, x.Fields)...)
	case Enum:
		errs = append(errs, checkEnum(name, x)...)
	}
	Members(name, c, func(loc Location, f Format) {
		errs = append(errs, checkFormat(reg, loc, f)...)
	})
	return errs
}

func checkFields(loc Location, fields []Named) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		at := loc
		at.Member = f.Name
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, ValidationError{Field: at.String(), Message: "field name is empty", Code: ErrEmptyName})
			continue
		}
		if seen[f.Name] {
			errs = append(errs, ValidationError{
				Field:   at.String(),
				Message: fmt.Sprintf("field %q is declared more than once", f.Name),
				Code:    ErrDuplicateField,
			})
		}
		seen[f.Name] = true
	}
	return errs
}

func checkEnum(name string, e Enum) []ValidationError {
	var errs []ValidationError
	indices := make(map[uint32]string, len(e.Variants))
	names := make(map[string]bool, len(e.Variants))
	for _, v := range e.Variants {
		loc := Location{Container: name, Variant: v.Name}
		if strings.TrimSpace(v.Name) == "" {
			errs = append(errs, ValidationError{Field: loc.String(), Message: fmt.Sprintf("variant %d has an empty name", v.Index), Code: ErrEmptyName})
		}
		if prev, dup := indices[v.Index]; dup {
			errs = append(errs, ValidationError{
				Field:   loc.String(),
				Message: fmt.Sprintf("variant index %d already used by %q", v.Index, prev),
				Code:    ErrDuplicateVariantIndex,
			})
		}
		indices[v.Index] = v.Name
		if names[v.Name] && v.Name != "" {
			errs = append(errs, ValidationError{
				Field:   loc.String(),
				Message: fmt.Sprintf("variant name %q is declared more than once", v.Name),
				Code:    ErrDuplicateVariantName,
			})
		}
		names[v.Name] = true
		switch p := v.Payload.(type) {
		case nil:
			errs = append(errs, ValidationError{Field: loc.String(), Message: "variant payload is missing", Code: ErrMissingFormat})
		case StructVariant:
			errs = append(errs, checkFields(loc, p.Fields)...)
		}
	}
	return errs
}

func checkFormat(reg *Registry, loc Location, f Format) []ValidationError {
	var errs []ValidationError
	if f == nil {
		return []ValidationError{{Field: loc.String(), Message: "format is missing", Code: ErrMissingFormat}}
	}
	Walk(f, func(sub Format, _ bool) {
		switch x := sub.(type) {
		case nil:
			errs = append(errs, ValidationError{Field: loc.String(), Message: "nested format is missing", Code: ErrMissingFormat})
		case TypeName:
			if _, ok := reg.Lookup(x.Name); !ok {
				errs = append(errs, ValidationError{
					Field:   loc.String(),
					Message: fmt.Sprintf("reference to unknown container %q", x.Name),
					Code:    ErrUnknownReference,
				})
			}
		case TupleArray:
			if x.Size < 0 {
				errs = append(errs, ValidationError{
					Field:   loc.String(),
					Message: fmt.Sprintf("array size %d is negative", x.Size),
					Code:    ErrInvalidArraySize,
				})
			}
		}
	})
	return errs
}
