// Command serdegen generates cross-language serialization code from a
// registry of container formats.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/serdegen/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "serdegen: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
