package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sourcetrace/sourcetrace/pkg/pymod"
)

// NewModulesCommand creates the modules command.
func NewModulesCommand() *cobra.Command {
	var roots []string

	var ignoreTests, packagesOnly bool

	cmd := &cobra.Command{
		Use:   "modules <package>",
		Short: "Enumerate the importable modules under a package",
		Long: `Enumerate every importable module reachable from a package root,
depth first, one dotted name per line.

Examples:
  sourcetrace modules mypackage
  sourcetrace modules mypackage --ignore-tests --packages-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModules(args[0], roots, ignoreTests, packagesOnly, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&roots, "root", []string{"."}, "search roots for module resolution")
	cmd.Flags().BoolVar(&ignoreTests, "ignore-tests", false, "skip modules under <package>.tests")
	cmd.Flags().BoolVar(&packagesOnly, "packages-only", false, "list only package aggregator modules")

	return cmd
}

func runModules(pkg string, roots []string, ignoreTests, packagesOnly bool, out io.Writer) error {
	finder := pymod.NewFinder(roots...)

	for module := range pymod.RecurseModules(finder, pkg, ignoreTests, packagesOnly) {
		fmt.Fprintln(out, module)
	}

	return nil
}
