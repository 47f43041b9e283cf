package backend

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/codegen/golang"
	"github.com/roach88/serdegen/internal/codegen/python3"
	"github.com/roach88/serdegen/internal/codegen/rust"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/resolver"
)

var generators = map[codegen.Target]func() codegen.Generator{
	codegen.Go:      func() codegen.Generator { return golang.New() },
	codegen.Rust:    func() codegen.Generator { return rust.New() },
	codegen.Python3: func() codegen.Generator { return python3.New() },
}

// Lookup returns a fresh generator for target.
func Lookup(target codegen.Target) (codegen.Generator, error) {
	newGen, ok := generators[target]
	if !ok {
		return nil, errors.WithHint(
			errors.Newf("no generator for target %q", target),
			"supported targets: go, rust, python3",
		)
	}
	return newGen(), nil
}

// Artifact is everything one target produced: generated sources and,
// when requested, the runtime support files.
type Artifact struct {
	Target codegen.Target
	Module string
	Files  []codegen.File
}

// Sources returns the files of the given kind.
func (a Artifact) Sources(kind codegen.Kind) []codegen.File {
	var out []codegen.File
	for _, f := range a.Files {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Options controls a generation run.
type Options struct {
	// Runtime includes the target's runtime files in the artifact.
	Runtime bool
}

// Run validates and resolves reg, then generates cfg.Target.
func Run(reg *format.Registry, cfg codegen.Config, opts Options) (Artifact, error) {
	if err := format.Validate(reg); err != nil {
		return Artifact{}, err
	}
	return generate(reg, resolver.Resolve(reg), cfg, opts)
}

func generate(reg *format.Registry, plan *resolver.Plan, cfg codegen.Config, opts Options) (Artifact, error) {
	gen, err := Lookup(cfg.Target)
	if err != nil {
		return Artifact{}, err
	}
	src, err := gen.Generate(reg, plan, cfg, gen.NewNamer())
	if err != nil {
		return Artifact{}, errors.Wrapf(err, "generate %s", cfg.Target)
	}
	if opts.Runtime {
		rt, err := gen.Runtime(cfg.WithDefaults())
		if err != nil {
			return Artifact{}, errors.Wrapf(err, "runtime for %s", cfg.Target)
		}
		src.Files = append(src.Files, rt...)
	}
	src.Sort()
	return Artifact{Target: src.Target, Module: src.Module, Files: src.Files}, nil
}

// Result is the outcome of one target in RunAll.
type Result struct {
	Artifact Artifact
	Err      error
}

// RunAll generates every config concurrently against one shared plan.
// Each target gets its own Namer; a failing target does not affect the
// others. Results are keyed by target.
func RunAll(reg *format.Registry, cfgs []codegen.Config, opts Options) (map[codegen.Target]Result, error) {
	if err := format.Validate(reg); err != nil {
		return nil, err
	}
	seen := make(map[codegen.Target]bool, len(cfgs))
	for _, cfg := range cfgs {
		if seen[cfg.Target] {
			return nil, errors.Newf("target %q requested twice", cfg.Target)
		}
		seen[cfg.Target] = true
	}

	plan := resolver.Resolve(reg)
	results := make([]Result, len(cfgs))
	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(i int, cfg codegen.Config) {
			defer wg.Done()
			art, err := generate(reg, plan, cfg, opts)
			results[i] = Result{Artifact: art, Err: err}
		}(i, cfg)
	}
	wg.Wait()

	out := make(map[codegen.Target]Result, len(cfgs))
	for i, cfg := range cfgs {
		out[cfg.Target] = results[i]
	}
	return out, nil
}

// Targets returns the registered targets in sorted order.
func Targets() []codegen.Target {
	out := make([]codegen.Target, 0, len(generators))
	for t := range generators {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
