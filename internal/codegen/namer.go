package codegen

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Style is the casing applied before sanitizing.
type Style int

const (
	AsIs Style = iota
	Pascal
	Snake
)

// Namer turns registry names into target identifiers. It remembers which
// source name claimed each identifier per scope so collisions surface as
// errors instead of silently merged declarations.
//
// A Namer belongs to one generation run; it is not safe for concurrent use.
type Namer struct {
	target   Target
	keywords map[string]bool
	escape   func(string) string
	scopes   map[string]map[string]string
}

// NewNamer creates a Namer for target. Identifiers found in keywords are
// passed through escape.
func NewNamer(target Target, keywords []string, escape func(string) string) *Namer {
	kw := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		kw[k] = true
	}
	if escape == nil {
		escape = func(s string) string { return s + "_" }
	}
	return &Namer{
		target:   target,
		keywords: kw,
		escape:   escape,
		scopes:   make(map[string]map[string]string),
	}
}

// Sanitize maps a source name to a valid identifier without claiming it.
func (n *Namer) Sanitize(name string, style Style) string {
	name = norm.NFC.String(name)
	switch style {
	case Pascal:
		name = ToPascalCase(name)
	case Snake:
		name = ToSnakeCase(name)
	}

	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	ident := b.String()
	if ident == "" {
		ident = "_"
	}
	if n.keywords[ident] {
		ident = n.escape(ident)
	}
	return ident
}

// Name sanitizes source and claims the result in scope.
func (n *Namer) Name(scope, source string, style Style) (string, error) {
	ident := n.Sanitize(source, style)
	return ident, n.Claim(scope, source, ident)
}

// Claim records that source owns ident in scope. Claiming the same pair
// twice is allowed.
func (n *Namer) Claim(scope, source, ident string) error {
	owners, ok := n.scopes[scope]
	if !ok {
		owners = make(map[string]string)
		n.scopes[scope] = owners
	}
	if prev, taken := owners[ident]; taken && prev != source {
		return NameCollision(n.target, scope, prev, source, ident)
	}
	owners[ident] = source
	return nil
}
