package provenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sourcetrace/sourcetrace/pkg/pyast"
	"github.com/sourcetrace/sourcetrace/pkg/pymod"
)

// ancestorLevel is the relative-import level at which an import reaches
// past the immediate parent package.
const ancestorLevel = 2

// Sentinel errors for checker policy violations.
var (
	// ErrAncestorRelativeImport rejects relative imports that reach a
	// grandparent package or higher. There is no legitimate use for
	// them, so this aborts the module's check instead of warning.
	ErrAncestorRelativeImport = errors.New("relative import from an ancestor package")

	errMissingImportModule = errors.New("absolute import without a module")
)

// Mismatch describes one import that names a non-canonical source
// module. Mismatches are diagnostics, never failures: the truncation
// heuristic can flag legitimately re-exported public names.
type Mismatch struct {
	Module       string // module under analysis
	Name         string // imported name
	ImportedFrom string // module the import actually names
	ShouldImport string // canonical defining module
	Line         uint32
}

// ReportFunc receives each mismatch as it is found.
type ReportFunc func(Mismatch)

// Checker verifies the import provenance of one module. A fresh Checker
// is constructed per module; construction-time state is read-only during
// the walk, so sibling import statements are handled independently.
type Checker struct {
	module         string
	workingModule  string
	topLevelModule string
	ignoreNotFound []string
	loader         *Loader
	report         ReportFunc
	logger         *slog.Logger
}

// NewChecker creates a Checker for the named module. The working module
// is the module itself when it is a package, else its dotted parent.
// ignoreNotFound lists module-name prefixes whose load failures are
// tolerated; it is the escape hatch for imports guarded by try/except,
// which this checker does not model.
func NewChecker(loader *Loader, module string, ignoreNotFound []string) *Checker {
	workingModule := module

	spec, ok := loader.Finder().FindSpec(module)
	if !ok || !spec.IsPackage {
		workingModule = pymod.Parent(module)
	}

	return &Checker{
		module:         module,
		workingModule:  workingModule,
		topLevelModule: pymod.TopLevel(workingModule),
		ignoreNotFound: ignoreNotFound,
		loader:         loader,
		logger:         slog.Default(),
	}
}

// WithReport sets a sink that receives every mismatch in addition to the
// logged warning.
func (c *Checker) WithReport(report ReportFunc) *Checker {
	c.report = report

	return c
}

// VisitImportFrom checks one from-import statement.
func (c *Checker) VisitImportFrom(ctx context.Context, stmt pyast.ImportFrom) error {
	if stmt.Level >= ancestorLevel {
		return fmt.Errorf("%w: import in %s; use an absolute import instead",
			ErrAncestorRelativeImport, c.module)
	}

	moduleToImport, err := c.moduleToImport(stmt)
	if err != nil {
		return err
	}

	// Only imports of objects inside this top-level package are checked.
	if !strings.HasPrefix(moduleToImport, c.topLevelModule) {
		return nil
	}

	module, err := c.loader.Load(ctx, moduleToImport)
	if err != nil {
		var notFound *ModuleNotFoundError
		if errors.As(err, &notFound) && c.ignoredNotFound(moduleToImport) {
			c.logger.Debug("ignoring missing module", "module", moduleToImport, "checked", c.module)

			return nil
		}

		return err
	}

	for _, alias := range stmt.Names {
		if aliasErr := c.checkAlias(ctx, stmt, module, moduleToImport, alias); aliasErr != nil {
			return aliasErr
		}
	}

	return nil
}

// moduleToImport resolves the module a statement imports from, by its
// relative level.
func (c *Checker) moduleToImport(stmt pyast.ImportFrom) (string, error) {
	switch {
	case stmt.Level == 0:
		if stmt.Module == "" {
			return "", fmt.Errorf("%w in %s", errMissingImportModule, c.module)
		}

		return stmt.Module, nil
	case stmt.Module == "":
		return c.workingModule, nil
	default:
		return c.workingModule + "." + stmt.Module, nil
	}
}

// checkAlias checks the provenance of one imported name. Star imports
// are skipped: their provenance cannot be checked. A name that is not an
// attribute of the loaded module is treated as a submodule import; that
// nested load is not excused by the ignore list and propagates failures.
func (c *Checker) checkAlias(ctx context.Context, stmt pyast.ImportFrom, module *Module, moduleToImport string, alias pyast.Alias) error {
	if alias.Name == pyast.Wildcard {
		return nil
	}

	sym, ok := module.Symbols[alias.Name]
	if !ok {
		if _, err := c.loader.Load(ctx, moduleToImport+"."+alias.Name); err != nil {
			if module.Star {
				// A star import may have bound the name invisibly to
				// static analysis; provenance is undecidable.
				c.logger.Debug("name hidden behind a star import", "module", moduleToImport, "name", alias.Name)

				return nil
			}

			return err
		}

		// Submodules carry no defining module to compare against.
		return nil
	}

	if (sym.Kind != KindClass && sym.Kind != KindFunction) || sym.DefModule == "" {
		return nil
	}

	shouldImport := c.canonicalImportPath(sym.DefModule)
	if moduleToImport == shouldImport {
		return nil
	}

	c.warn(Mismatch{
		Module:       c.module,
		Name:         alias.Name,
		ImportedFrom: moduleToImport,
		ShouldImport: shouldImport,
		Line:         stmt.Line,
	})

	return nil
}

// canonicalImportPath computes the module an object should be imported
// from, given the module it is defined in. Components are accumulated
// left to right; accumulation stops before a private component (leading
// underscore) unless the checker's own working module already lives
// inside the accumulated prefix. Private submodules are valid import
// sources only for code nested inside them.
func (c *Checker) canonicalImportPath(defModule string) string {
	components := strings.Split(defModule, ".")
	result := make([]string, 0, len(components))

	for _, component := range components {
		if strings.HasPrefix(component, "_") &&
			!strings.HasPrefix(c.workingModule, strings.Join(result, ".")) {
			break
		}

		result = append(result, component)
	}

	return strings.Join(result, ".")
}

func (c *Checker) warn(mismatch Mismatch) {
	// Possible false positive: the heuristic flags names legitimately
	// re-exported by a public module.
	c.logger.Warn("imported from a non-canonical module",
		"module", mismatch.Module,
		"name", mismatch.Name,
		"line", mismatch.Line,
		"imported_from", mismatch.ImportedFrom,
		"should_import_from", mismatch.ShouldImport,
	)

	if c.report != nil {
		c.report(mismatch)
	}
}

func (c *Checker) ignoredNotFound(module string) bool {
	for _, prefix := range c.ignoreNotFound {
		if strings.HasPrefix(module, prefix) {
			return true
		}
	}

	return false
}
