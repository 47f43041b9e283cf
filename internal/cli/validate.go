package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/loader"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                     `json:"valid"`
	Containers int                      `json:"containers"`
	Hash       string                   `json:"hash,omitempty"`
	Errors     []format.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <registry>",
		Short: "Validate a registry",
		Long: `Load a registry document and check it for duplicate names, dangling
references, repeated fields and variant indices, and empty names.

Every problem is reported, not just the first. A valid registry prints its
container count and content hash.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	w := cmd.OutOrStdout()

	reg, err := loader.Load(path)
	if err != nil {
		code := ExitFailure
		if commandError(err) {
			code = ExitCommandError
		}
		return formatter.Fail(code, "load registry", err)
	}

	result := ValidationResult{Containers: len(reg.Names())}
	if verr := format.Validate(reg); verr != nil {
		var list format.ValidationErrors
		if !errors.As(verr, &list) {
			return formatter.Fail(ExitFailure, "validate", verr)
		}
		result.Errors = list
	} else {
		result.Valid = true
		result.Hash = format.Hash(reg)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(w, "%s %s: %s, hash %s\n", check(true), path, plural(result.Containers, "container"), result.Hash)
	} else {
		fmt.Fprintf(w, "%s %s: %s\n", check(false), path, plural(len(result.Errors), "error"))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  [%s] %s: %s\n", e.Code, e.Field, e.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "registry is invalid")
	}
	return nil
}
