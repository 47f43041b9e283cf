package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/serdegen/internal/backend"
	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/config"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/publish"
	"github.com/roach88/serdegen/internal/store"
)

// GenerateOptions holds flags for the generate and check commands.
type GenerateOptions struct {
	*RootOptions
	Targets       []string
	Encodings     []string
	Out           string
	Module        string
	Annotations   bool
	NoRuntime     bool
	Cache         string
	Comments      string
	External      string
	RuntimeImport string
	DryRun        bool
}

// TargetResult is the outcome of one target.
type TargetResult struct {
	Target codegen.Target  `json:"target"`
	Module string          `json:"module"`
	Cached bool            `json:"cached"`
	Files  []publish.Entry `json:"files,omitempty"`
	Drift  []string        `json:"drift,omitempty"`
	Error  *CLIError       `json:"error,omitempty"`
}

// GenerateResult holds the overall result.
type GenerateResult struct {
	Out     string         `json:"out"`
	Targets []TargetResult `json:"targets"`
	Failed  int            `json:"failed"`
}

// flagBindings maps config keys to the generate flags that override them.
var flagBindings = map[string]string{
	"target":         "target",
	"encodings":      "encoding",
	"out":            "out",
	"module":         "module",
	"annotations":    "annotations",
	"cache":          "cache",
	"comments":       "comments",
	"external":       "external",
	"runtime_import": "runtime-import",
}

func addGenerateFlags(cmd *cobra.Command, opts *GenerateOptions) {
	cmd.Flags().StringSliceVarP(&opts.Targets, "target", "t", []string{"go"}, "target language (go|rust|python3), repeatable")
	cmd.Flags().StringSliceVarP(&opts.Encodings, "encoding", "e", []string{"canonical"}, "encoding entry points (canonical|noncanonical), repeatable")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", ".", "output directory")
	cmd.Flags().StringVarP(&opts.Module, "module", "m", "", "generated package, crate or module name")
	cmd.Flags().BoolVar(&opts.Annotations, "annotations", false, "emit json tags (Go) or serde derives (Rust)")
	cmd.Flags().BoolVar(&opts.NoRuntime, "no-runtime", false, "do not install runtime support files")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "artifact cache database")
	cmd.Flags().StringVar(&opts.Comments, "comments", "", "YAML file of doc comments keyed by location")
	cmd.Flags().StringVar(&opts.External, "external", "", "YAML file mapping modules to externally defined containers")
	cmd.Flags().StringVar(&opts.RuntimeImport, "runtime-import", codegen.DefaultGoRuntime, "Go import prefix of the runtime packages")
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <registry>",
		Short: "Generate source code for one or more targets",
		Long: `Generate types and serializers from a registry and write them under
the output directory. Several targets are generated concurrently; a
failing target does not stop the others.

Exit codes:
  0 - All targets generated
  1 - Invalid registry or a target failed
  2 - Command error (bad flags, missing registry)

Examples:
  serdegen generate --target go --module point --out gen point.yaml
  serdegen generate -t rust -t python3 -e canonical -e noncanonical -m geo schema.cue
  serdegen generate --cache .serdegen.db -m point point.yaml`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), opts, args[0], cmd)
		},
	}
	addGenerateFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report what would be written without writing")
	return cmd
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <registry>",
		Short: "Verify generated code on disk is up to date",
		Long: `Regenerate in memory and compare with the files under the output
directory. Nothing is written.

Exit codes:
  0 - Every file matches
  1 - A file is missing or differs, or generation failed
  2 - Command error`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = true
			return runGenerate(cmd.Context(), opts, args[0], cmd)
		},
	}
	addGenerateFlags(cmd, opts)
	return cmd
}

func runGenerate(ctx context.Context, opts *GenerateOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	checking := cmd.Name() == "check"

	settings, err := opts.settings(cmd, flagBindings)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("no-runtime") {
		settings.Runtime = !opts.NoRuntime
	}
	log := opts.logger(cmd, settings)
	defer log.Sync()

	targets, err := settings.TargetList()
	if err != nil {
		return formatter.Fail(ExitCommandError, "targets", err)
	}
	cfgs := make([]codegen.Config, 0, len(targets))
	for _, t := range targets {
		cfg, err := settings.Codegen(t)
		if err != nil {
			return formatter.Fail(ExitCommandError, "config", err)
		}
		cfgs = append(cfgs, cfg)
	}

	reg, err := loadRegistry(formatter, path)
	if err != nil {
		return err
	}

	results, err := generateAll(ctx, reg, cfgs, settings, log)
	if err != nil {
		return formatter.Fail(ExitFailure, "generate", err)
	}

	pubOpts := []publish.Option{publish.WithRuntime(settings.Runtime), publish.WithLogger(log)}
	if opts.DryRun {
		pubOpts = append(pubOpts, publish.WithDryRun())
	}
	pub := publish.New(pubOpts...)

	out := GenerateResult{Out: settings.Out, Targets: make([]TargetResult, 0, len(cfgs))}
	drifted := 0
	for i, cfg := range cfgs {
		r := results[i]
		tr := TargetResult{Target: cfg.Target, Module: cfg.ModuleName, Cached: r.cached}
		if r.err == nil {
			report, perr := pub.Publish(ctx, r.artifact, settings.Out)
			tr.Files = report.Entries
			r.err = perr
		}
		if r.err != nil {
			tr.Error = &CLIError{Code: errorCode(r.err), Message: r.err.Error()}
			out.Failed++
		}
		if checking {
			for _, e := range tr.Files {
				if e.Action == publish.Planned {
					tr.Drift = append(tr.Drift, e.Path)
				}
			}
			if len(tr.Drift) > 0 {
				drifted++
			}
		}
		out.Targets = append(out.Targets, tr)
	}

	if err := outputGenerate(opts, cmd, out, checking); err != nil {
		return err
	}
	switch {
	case out.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%s failed", plural(out.Failed, "target")))
	case drifted > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%s out of date", plural(drifted, "target")))
	}
	return nil
}

type targetOutcome struct {
	artifact backend.Artifact
	cached   bool
	err      error
}

// generateAll generates every config, serving and filling the artifact
// cache when one is configured. Results are in cfgs order.
func generateAll(ctx context.Context, reg *format.Registry, cfgs []codegen.Config, settings *config.Settings, log *zap.Logger) ([]targetOutcome, error) {
	bopts := backend.Options{Runtime: settings.Runtime}
	outcomes := make([]targetOutcome, len(cfgs))

	var cache *store.Store
	keys := make([]string, len(cfgs))
	if settings.Cache != "" {
		var err error
		if cache, err = store.Open(settings.Cache); err != nil {
			return nil, err
		}
		defer cache.Close()
	}

	var pending []codegen.Config
	for i, cfg := range cfgs {
		if cache == nil {
			pending = append(pending, cfg)
			continue
		}
		key, err := store.Key(reg, cfg, bopts)
		if err != nil {
			return nil, err
		}
		keys[i] = key
		art, ok, err := cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			log.Debug("cache hit", zap.String("target", string(cfg.Target)), zap.String("key", key))
			outcomes[i] = targetOutcome{artifact: art, cached: true}
			continue
		}
		pending = append(pending, cfg)
	}
	if len(pending) == 0 {
		return outcomes, nil
	}

	results, err := backend.RunAll(reg, pending, bopts)
	if err != nil {
		return nil, err
	}
	registryHash := format.Hash(reg)
	for i, cfg := range cfgs {
		if outcomes[i].cached {
			continue
		}
		res := results[cfg.Target]
		outcomes[i] = targetOutcome{artifact: res.Artifact, err: res.Err}
		if cache != nil && res.Err == nil {
			if err := cache.Put(ctx, keys[i], registryHash, res.Artifact); err != nil {
				return nil, err
			}
			log.Debug("cache store", zap.String("target", string(cfg.Target)), zap.String("key", keys[i]))
		}
	}
	return outcomes, nil
}

func outputGenerate(opts *GenerateOptions, cmd *cobra.Command, out GenerateResult, checking bool) error {
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(out)
	}
	w := cmd.OutOrStdout()
	for _, tr := range out.Targets {
		if tr.Error != nil {
			fmt.Fprintf(w, "%s %s: [%s] %s\n", check(false), tr.Target, tr.Error.Code, tr.Error.Message)
			continue
		}
		if checking {
			fmt.Fprintf(w, "%s %s (%s): %s checked\n", check(len(tr.Drift) == 0), tr.Target, tr.Module, plural(len(tr.Files), "file"))
			for _, p := range tr.Drift {
				fmt.Fprintf(w, "  out of date: %s\n", p)
			}
			continue
		}
		cached := ""
		if tr.Cached {
			cached = ", cached"
		}
		fmt.Fprintf(w, "%s %s (%s): %s%s\n", check(true), tr.Target, tr.Module, plural(len(tr.Files), "file"), cached)
		for _, e := range tr.Files {
			opts.formatter(cmd).VerboseLog("  %-9s %s", e.Action, e.Path)
		}
	}
	return nil
}
