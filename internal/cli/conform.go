package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/serdegen/internal/harness"
)

// SuiteResult holds the result of a single suite.
type SuiteResult struct {
	Name     string               `json:"name"`
	Pass     bool                 `json:"pass"`
	Cases    int                  `json:"cases"`
	Failures []harness.CaseResult `json:"failures,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// ConformResult holds the overall conformance result.
type ConformResult struct {
	Suites []SuiteResult `json:"suites"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
	Total  int           `json:"total"`
}

// NewConformCommand creates the conform command.
func NewConformCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "conform <suite.yaml|dir>...",
		Short: "Run conformance vectors",
		Long: `Run YAML conformance suites against the reference codec. Each vector
is encoded and decoded in every encoding it lists, and each rejection
must fail with the named error kind.

Exit codes:
  0 - All suites passed
  1 - One or more suites failed
  2 - Command error (invalid paths, etc.)

Examples:
  serdegen conform vectors/
  serdegen conform vectors/point.yaml --format json`,
		Args: minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConform(rootOpts, args, cmd)
		},
	}
}

func runConform(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	settings, err := opts.settings(cmd, nil)
	if err != nil {
		return err
	}
	log := opts.logger(cmd, settings)
	defer log.Sync()

	var suites []*harness.Suite
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return WrapExitError(ExitCommandError, "suite path", err)
		}
		if info.IsDir() {
			found, err := harness.LoadSuites(p)
			if err != nil {
				return WrapExitError(ExitCommandError, "load suites", err)
			}
			suites = append(suites, found...)
			continue
		}
		s, err := harness.LoadSuite(p)
		if err != nil {
			return WrapExitError(ExitCommandError, "load suite", err)
		}
		suites = append(suites, s)
	}

	h := harness.New(log)
	result := ConformResult{Suites: make([]SuiteResult, 0, len(suites)), Total: len(suites)}
	for _, s := range suites {
		sr := SuiteResult{Name: s.Name}
		r, err := h.Run(s)
		if err != nil {
			sr.Error = err.Error()
		} else {
			sr.Pass = r.Pass
			sr.Cases = len(r.Cases)
			sr.Failures = r.Failures()
		}
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Suites = append(result.Suites, sr)
	}

	if opts.Format == "json" {
		if err := opts.formatter(cmd).Success(result); err != nil {
			return err
		}
	} else {
		outputConformText(cmd, result)
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d suites failed", result.Failed, result.Total))
	}
	return nil
}

func outputConformText(cmd *cobra.Command, result ConformResult) {
	w := cmd.OutOrStdout()
	for _, s := range result.Suites {
		switch {
		case s.Error != "":
			fmt.Fprintf(w, "%s %s\n  Execution error: %s\n", check(false), s.Name, s.Error)
		default:
			fmt.Fprintf(w, "%s %s (%s)\n", check(s.Pass), s.Name, plural(s.Cases, "case"))
			for _, c := range s.Failures {
				fmt.Fprintf(w, "  %s/%s/%s: %s\n", c.Vector, c.Encoding, c.Check, c.Error)
			}
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
