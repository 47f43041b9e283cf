package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/serdegen/internal/resolver"
)

// ResolveResult is the resolver's plan for a registry.
type ResolveResult struct {
	Order      []string        `json:"order"`
	Components [][]string      `json:"components"`
	Indirect   []resolver.Edge `json:"indirect"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <registry>",
		Short: "Print emission order, cycles and indirection edges",
		Long: `Run the dependency resolver on a registry and print the plan every
generator follows: the emission order, each by-value cycle, and the
references that must be boxed to give recursive types a finite size.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, args[0], cmd)
		},
	}
}

func runResolve(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	reg, err := loadRegistry(formatter, path)
	if err != nil {
		return err
	}

	plan := resolver.Resolve(reg)
	result := ResolveResult{
		Order:      plan.Order,
		Components: plan.Components,
		Indirect:   plan.Edges(),
	}
	if result.Components == nil {
		result.Components = [][]string{}
	}
	if result.Indirect == nil {
		result.Indirect = []resolver.Edge{}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Order:")
	for i, name := range result.Order {
		fmt.Fprintf(w, "  %d. %s\n", i+1, name)
	}
	fmt.Fprintln(w, "Cycles:")
	if len(result.Components) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, c := range result.Components {
		fmt.Fprintf(w, "  %s\n", joinNames(c))
	}
	fmt.Fprintln(w, "Indirect:")
	if len(result.Indirect) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, e := range result.Indirect {
		fmt.Fprintf(w, "  %s -> %s\n", e.From, e.To)
	}
	return nil
}
