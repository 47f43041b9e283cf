package cli

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/roach88/serdegen/internal/config"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/loader"
	"github.com/roach88/serdegen/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // explicit config file; empty searches for serdegen.toml
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the serdegen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "serdegen",
		Short: "serdegen - cross-language serialization code generator",
		Long: `Generate Go, Rust and Python types with binary serializers from a
registry of container formats.

Generated code round-trips byte-for-byte across languages in both the
canonical (LCS) and non-canonical (bincode) encodings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "bad flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default: nearest serdegen.toml)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewConformCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

// exactArgs is cobra.ExactArgs with the command-error exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, cmd.UseLine(), err)
		}
		return nil
	}
}

func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, cmd.UseLine(), err)
		}
		return nil
	}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// settings merges config sources with the command's flags. bind maps
// config keys to flag names; only flags the user set override the file.
func (o *RootOptions) settings(cmd *cobra.Command, bind map[string]string) (*config.Settings, error) {
	v, err := config.New(o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if err := bindFlags(v, cmd, bind); err != nil {
		return nil, WrapExitError(ExitCommandError, "bind flags", err)
	}
	s, err := config.Load(v)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	return s, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, bind map[string]string) error {
	for key, name := range bind {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return errors.Newf("no flag --%s", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// logger writes to stderr so stdout stays parseable.
func (o *RootOptions) logger(cmd *cobra.Command, s *config.Settings) *zap.Logger {
	return logging.New(cmd.ErrOrStderr(), o.Verbose, s.Log.JSON)
}

// loadRegistry loads and validates path, reporting failures through f.
func loadRegistry(f *OutputFormatter, path string) (*format.Registry, error) {
	reg, err := loader.Load(path)
	if err != nil {
		code := ExitFailure
		if commandError(err) {
			code = ExitCommandError
		}
		return nil, f.Fail(code, "load registry", err)
	}
	if err := format.Validate(reg); err != nil {
		return nil, f.Fail(ExitFailure, "invalid registry", err)
	}
	f.VerboseLog("Loaded %s from %s", plural(len(reg.Names()), "container"), path)
	return reg, nil
}
