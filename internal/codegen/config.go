package codegen

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/encoding"
)

// DefaultGoRuntime is the import prefix of the Go runtime packages when
// generated code lives next to this repository.
const DefaultGoRuntime = "github.com/roach88/serdegen/runtime/golang"

// Config controls one generation run.
type Config struct {
	Target Target `json:"target"`

	// ModuleName names the generated package, crate or module.
	ModuleName string `json:"module"`

	// Encodings selects the convenience entry points to emit. Generic
	// serialize and deserialize operations are always emitted.
	Encodings []encoding.Encoding `json:"encodings"`

	// Annotations selects declarative output: json struct tags for Go,
	// serde derives for Rust. Python output is unaffected.
	Annotations bool `json:"annotations"`

	// Comments are doc comments keyed by location: "Point",
	// "Point.x", "Shape::Circle".
	Comments map[string]string `json:"comments,omitempty"`

	// ExternalDefinitions maps a module (Go import path, Rust path,
	// Python module) to container names defined there. Those containers
	// are referenced, never emitted.
	ExternalDefinitions map[string][]string `json:"external_definitions,omitempty"`

	// RuntimeImport is the Go import prefix under which the serde, lcs
	// and bincode runtime packages are installed.
	RuntimeImport string `json:"runtime_import,omitempty"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if len(c.Encodings) == 0 {
		c.Encodings = []encoding.Encoding{encoding.Canonical}
	}
	if c.RuntimeImport == "" {
		c.RuntimeImport = DefaultGoRuntime
	}
	return c
}

// Validate rejects configs no generator can honor.
func (c Config) Validate() error {
	if c.ModuleName == "" {
		return errors.WithHint(errors.New("module name is empty"), "pass --module NAME")
	}
	seen := make(map[encoding.Encoding]bool)
	for _, e := range c.Encodings {
		if e != encoding.Canonical && e != encoding.NonCanonical {
			return errors.Newf("unknown encoding %q", e)
		}
		if seen[e] {
			return errors.Newf("encoding %q listed twice", e)
		}
		seen[e] = true
	}
	owner := make(map[string]string)
	for module, names := range c.ExternalDefinitions {
		for _, name := range names {
			if prev, ok := owner[name]; ok && prev != module {
				return errors.Newf("external definition %q claimed by %q and %q", name, prev, module)
			}
			owner[name] = module
		}
	}
	return nil
}

// External reports the module that defines name, if any.
func (c Config) External(name string) (string, bool) {
	for module, names := range c.ExternalDefinitions {
		for _, n := range names {
			if n == name {
				return module, true
			}
		}
	}
	return "", false
}

// ExternalModules returns the external module names in sorted order,
// restricted to modules that define at least one container.
func (c Config) ExternalModules() []string {
	modules := make([]string, 0, len(c.ExternalDefinitions))
	for module, names := range c.ExternalDefinitions {
		if len(names) > 0 {
			modules = append(modules, module)
		}
	}
	sort.Strings(modules)
	return modules
}

// Comment returns the doc comment registered for a location.
func (c Config) Comment(location string) (string, bool) {
	text, ok := c.Comments[location]
	return text, ok && text != ""
}
