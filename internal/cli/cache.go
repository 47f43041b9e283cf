package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/serdegen/internal/store"
)

// CacheOptions holds flags for the cache subcommands.
type CacheOptions struct {
	*RootOptions
	Cache string
	Keep  int
}

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CacheOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the artifact cache",
	}
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", "", "artifact cache database")

	list := &cobra.Command{
		Use:   "list",
		Short: "List cached artifacts, oldest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheList(opts, cmd)
		},
	}
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest cached artifacts",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCachePrune(opts, cmd)
		},
	}
	prune.Flags().IntVar(&opts.Keep, "keep", 16, "entries to keep")

	cmd.AddCommand(list, prune)
	return cmd
}

func (o *CacheOptions) open(cmd *cobra.Command) (*store.Store, error) {
	settings, err := o.settings(cmd, map[string]string{"cache": "cache"})
	if err != nil {
		return nil, err
	}
	if settings.Cache == "" {
		return nil, NewExitError(ExitCommandError, "no cache configured: pass --cache PATH or set cache in serdegen.toml")
	}
	st, err := store.Open(settings.Cache)
	if err != nil {
		return nil, o.formatter(cmd).Fail(ExitCommandError, "open cache", err)
	}
	return st, nil
}

func runCacheList(opts *CacheOptions, cmd *cobra.Command) error {
	st, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(cmd.Context())
	if err != nil {
		return opts.formatter(cmd).Fail(ExitFailure, "list cache", err)
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTARGET\tMODULE\tFILES\tSIZE\tHITS\tKEY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d/%d\t%d\t%s\n",
			e.Seq, e.Target, e.Module, e.FileCount, e.StoredSize, e.RawSize, e.Hits, shortKey(e.Key))
	}
	return tw.Flush()
}

func runCachePrune(opts *CacheOptions, cmd *cobra.Command) error {
	if opts.Keep < 0 {
		return NewExitError(ExitCommandError, "--keep must not be negative")
	}
	st, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Prune(cmd.Context(), opts.Keep)
	if err != nil {
		return opts.formatter(cmd).Fail(ExitFailure, "prune cache", err)
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(map[string]int{"removed": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", plural(n, "artifact"))
	return nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
