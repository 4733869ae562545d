// Package main provides the entry point for the sourcetrace CLI tool.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sourcetrace/sourcetrace/cmd/sourcetrace/commands"
	"github.com/sourcetrace/sourcetrace/pkg/version"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "sourcetrace",
		Short: "Sourcetrace - import provenance checker for Python packages",
		Long: `Sourcetrace statically checks that a package's internal imports
reference the canonical module where each imported symbol is defined,
instead of a re-exporting module or the package __init__ aggregator.

Commands:
  check     Check import provenance for every module under a package
  modules   Enumerate the importable modules under a package`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewModulesCommand())
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
			fmt.Fprintf(os.Stdout, "sourcetrace %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
