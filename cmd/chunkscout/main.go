// Package main provides the entry point for the chunkscout CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chunkscout/chunkscout/cmd/chunkscout/commands"
	"github.com/chunkscout/chunkscout/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "chunkscout",
		Short: "Chunkscout - dynamic import analysis for chunk splitting",
		Long: `Chunkscout traverses a JavaScript/TypeScript module graph from an entry
point, finds every deferred-import wrapper call site, resolves the lazily
loaded specifiers, and emits the origin -> imports mapping consumed by a
chunk-splitting stage.

Commands:
  collect   Collect dynamic imports reachable from an entry module`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewCollectCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "chunkscout %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
