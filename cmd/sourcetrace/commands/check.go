// Package commands implements the sourcetrace CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sourcetrace/sourcetrace/internal/config"
	"github.com/sourcetrace/sourcetrace/pkg/provenance"
	"github.com/sourcetrace/sourcetrace/pkg/pyast"
	"github.com/sourcetrace/sourcetrace/pkg/pymod"
)

// ErrChecksFailed reports that at least one module's check aborted with
// a fatal error.
var ErrChecksFailed = errors.New("import provenance checks failed")

// checkOptions carries the resolved settings for one check run.
type checkOptions struct {
	roots          []string
	ignoreNotFound []string
	ignoreTests    bool
	packagesOnly   bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var roots, ignore []string

	var ignoreTests, packagesOnly, nocolor bool

	var configPath string

	cmd := &cobra.Command{
		Use:   "check <package>",
		Short: "Check import provenance for every module under a package",
		Long: `Check that every internal from-import under a package names the
canonical module where the imported symbol is defined.

Examples:
  sourcetrace check mypackage
  sourcetrace check mypackage --root src --ignore-tests
  sourcetrace check mypackage --ignore mypackage.optional`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if nocolor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}

			opts, err := resolveCheckOptions(cmd, configPath, roots, ignore, ignoreTests, packagesOnly)
			if err != nil {
				return err
			}

			return runCheck(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&roots, "root", nil, "search roots for module resolution (default: .)")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "module prefixes whose load failures are tolerated")
	cmd.Flags().BoolVar(&ignoreTests, "ignore-tests", false, "skip modules under <package>.tests")
	cmd.Flags().BoolVar(&packagesOnly, "packages-only", false, "check only package aggregator modules")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (default: .sourcetrace.yaml)")

	return cmd
}

// resolveCheckOptions merges config file settings with flags; a flag set
// on the command line wins over the file.
func resolveCheckOptions(cmd *cobra.Command, configPath string, roots, ignore []string, ignoreTests, packagesOnly bool) (checkOptions, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return checkOptions{}, err
	}

	opts := checkOptions{
		roots:          cfg.Roots,
		ignoreNotFound: cfg.IgnoreNotFound,
		ignoreTests:    cfg.IgnoreTests,
		packagesOnly:   cfg.PackagesOnly,
	}

	if cmd.Flags().Changed("root") {
		opts.roots = roots
	}

	if cmd.Flags().Changed("ignore") {
		opts.ignoreNotFound = ignore
	}

	if cmd.Flags().Changed("ignore-tests") {
		opts.ignoreTests = ignoreTests
	}

	if cmd.Flags().Changed("packages-only") {
		opts.packagesOnly = packagesOnly
	}

	return opts, nil
}

func runCheck(ctx context.Context, pkg string, opts checkOptions, out io.Writer) error {
	finder := pymod.NewFinder(opts.roots...)
	loader := provenance.NewLoader(finder)

	var checked, warnings, failed int

	for module := range pymod.RecurseModules(finder, pkg, opts.ignoreTests, opts.packagesOnly) {
		checked++

		checker := provenance.NewChecker(loader, module, opts.ignoreNotFound).
			WithReport(func(mismatch provenance.Mismatch) {
				warnings++

				color.New(color.FgYellow).Fprintf(out, "%s:%d: %s imported from %s, should import from %s\n",
					mismatch.Module, mismatch.Line, mismatch.Name, mismatch.ImportedFrom, mismatch.ShouldImport)
			})

		err := pyast.ApplyVisitor(ctx, finder, module, checker)
		if err != nil {
			failed++

			color.New(color.FgRed).Fprintf(out, "%s: %v\n", module, err)
		}
	}

	renderSummary(out, checked, warnings, failed)

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d modules", ErrChecksFailed, failed, checked)
	}

	return nil
}

func renderSummary(out io.Writer, checked, warnings, failed int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Modules", "Warnings", "Failures"})
	tw.AppendRow(table.Row{checked, warnings, failed})
	tw.Render()
}
