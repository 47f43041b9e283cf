package codegen

import (
	"sort"

	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/resolver"
)

// Kind separates generated sources from installed runtime files.
type Kind int

const (
	// SourceFile paths are relative to the module directory.
	SourceFile Kind = iota
	// RuntimeFile paths are relative to the output root.
	RuntimeFile
)

// File is one generated or installed file.
type File struct {
	Path    string
	Content []byte
	Kind    Kind
}

// Source is the output of one generation run.
type Source struct {
	Target Target
	Module string
	Files  []File
}

// Sort orders files by kind, then path.
func (s *Source) Sort() {
	sort.Slice(s.Files, func(i, j int) bool {
		if s.Files[i].Kind != s.Files[j].Kind {
			return s.Files[i].Kind < s.Files[j].Kind
		}
		return s.Files[i].Path < s.Files[j].Path
	})
}

// Generator is the capability contract of a target backend.
type Generator interface {
	// Target names the language emitted.
	Target() Target

	// NewNamer returns a fresh Namer with the target's keyword rules.
	NewNamer() *Namer

	// Generate emits the module sources for every non-external
	// container, in plan order.
	Generate(reg *format.Registry, plan *resolver.Plan, cfg Config, namer *Namer) (Source, error)

	// Runtime returns the runtime support files generated code needs.
	Runtime(cfg Config) ([]File, error)
}
