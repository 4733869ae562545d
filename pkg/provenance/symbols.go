// Package provenance checks that a module's internal from-imports name
// the canonical defining module of each imported symbol, rather than a
// re-exporting module or a package aggregator.
//
// Symbol provenance is discovered by pure static analysis: each
// referenced module's own source is parsed for its top-level definitions
// and re-exports, and re-export chains are chased through the Loader.
// Analyzed code is never executed, which trades import-time fidelity
// (decorators, dynamic __all__ manipulation) for never running untrusted
// code during analysis.
package provenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sourcetrace/sourcetrace/pkg/pyast"
	"github.com/sourcetrace/sourcetrace/pkg/pymod"
)

// SymbolKind classifies a module-level binding for provenance purposes.
// Only classes and functions carry a decidable defining module.
type SymbolKind int

// Symbol kinds.
const (
	// KindValue is any binding whose provenance is undecidable:
	// assignments, and re-exports whose chain cannot be chased.
	KindValue SymbolKind = iota
	KindClass
	KindFunction
	KindModule
)

// Symbol is one module-level binding. DefModule is the module the
// underlying object is defined in, set only for classes and functions.
type Symbol struct {
	DefModule string
	Kind      SymbolKind
}

// Module is the static symbol table of one loaded module.
type Module struct {
	Name    string
	Symbols map[string]Symbol
	// Star records that the module has a top-level star import, so its
	// namespace may contain names this static view cannot see.
	Star bool
}

// ModuleNotFoundError reports a module name that does not resolve to a
// source file under the loader's search roots.
type ModuleNotFoundError struct {
	Module string
}

func (e *ModuleNotFoundError) Error() string {
	return "module not found: " + e.Module
}

// Loader loads module symbol tables with an explicit cache keyed by
// module name. The cache is owned by the checking session; loading a
// module a second time returns the cached table without re-reading the
// source, mirroring the one-time import semantics of an interpreter but
// without its process-global state.
type Loader struct {
	finder  *pymod.Finder
	parser  *pyast.Parser
	cache   map[string]*Module
	loading map[string]bool
	logger  *slog.Logger
}

// NewLoader creates a Loader resolving modules through the given finder.
func NewLoader(finder *pymod.Finder) *Loader {
	return &Loader{
		finder:  finder,
		parser:  pyast.NewParser(),
		cache:   make(map[string]*Module),
		loading: make(map[string]bool),
		logger:  slog.Default(),
	}
}

// Finder returns the finder this loader resolves modules through.
func (l *Loader) Finder() *pymod.Finder {
	return l.finder
}

// Loaded reports whether a module is already in the session cache.
func (l *Loader) Loaded(name string) bool {
	_, ok := l.cache[name]

	return ok
}

// Load returns the symbol table for a module, reading and parsing its
// source on first use. A name that does not resolve yields a
// *ModuleNotFoundError; read and parse failures are returned as is.
func (l *Loader) Load(ctx context.Context, name string) (*Module, error) {
	if cached, ok := l.cache[name]; ok {
		return cached, nil
	}

	spec, ok := l.finder.FindSpec(name)
	if !ok {
		return nil, &ModuleNotFoundError{Module: name}
	}

	source, err := os.ReadFile(spec.Origin)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", spec.Origin, err)
	}

	tree, err := l.parser.Parse(ctx, spec.Origin, source)
	if err != nil {
		return nil, err
	}

	l.loading[name] = true
	defer delete(l.loading, name)

	module := l.buildModule(ctx, spec, tree)
	l.cache[name] = module

	return module, nil
}

// buildModule assembles the symbol table from the parsed tree: own
// definitions bind with this module as their defining module, top-level
// from-imports re-export symbols whose provenance is chased through the
// loader, plain imports and assignments bind undecidable or module-kind
// names.
func (l *Loader) buildModule(ctx context.Context, spec *pymod.Spec, tree *pyast.Tree) *Module {
	module := &Module{
		Name:    spec.Name,
		Symbols: make(map[string]Symbol),
	}

	workingModule := spec.Name
	if !spec.IsPackage {
		workingModule = pymod.Parent(spec.Name)
	}

	for _, imp := range tree.Imports {
		if !imp.TopLevel {
			continue
		}

		l.bindImportFrom(ctx, module, workingModule, imp)
	}

	for _, imp := range tree.PlainImports {
		if imp.AsName != "" {
			module.Symbols[imp.AsName] = Symbol{Kind: KindModule}
		} else {
			module.Symbols[pymod.TopLevel(imp.Module)] = Symbol{Kind: KindModule}
		}
	}

	for _, def := range tree.Definitions {
		kind := KindClass
		if def.Kind == pyast.KindFunction {
			kind = KindFunction
		}

		module.Symbols[def.Name] = Symbol{Kind: kind, DefModule: spec.Name}
	}

	for _, target := range tree.Assignments {
		if _, exists := module.Symbols[target]; !exists {
			module.Symbols[target] = Symbol{Kind: KindValue}
		}
	}

	return module
}

// bindImportFrom binds the names of one top-level from-import into the
// symbol table being built. Re-exported names keep the defining module
// of the symbol they re-export.
func (l *Loader) bindImportFrom(ctx context.Context, module *Module, workingModule string, imp pyast.ImportFrom) {
	source, ok := resolveImportSource(workingModule, imp)
	if !ok {
		return
	}

	for _, alias := range imp.Names {
		if alias.Name == pyast.Wildcard {
			module.Star = true

			continue
		}

		module.Symbols[alias.Bound()] = l.chase(ctx, source, alias.Name)
	}
}

// chase resolves the symbol a re-export ultimately refers to. Chains
// that leave the search roots, hit an import cycle, or fail to load for
// any reason resolve to an undecidable KindValue symbol; the checker
// skips those, the same way the dynamic approach skips objects that
// carry no defining module.
func (l *Loader) chase(ctx context.Context, source, name string) Symbol {
	if l.loading[source] {
		return Symbol{Kind: KindValue}
	}

	target, err := l.Load(ctx, source)
	if err != nil {
		l.logger.Debug("re-export chain not resolvable", "module", source, "name", name, "error", err)

		return Symbol{Kind: KindValue}
	}

	if sym, ok := target.Symbols[name]; ok {
		return sym
	}

	// The name is not an attribute of the source module; it may be a
	// submodule, as in "from package import submodule".
	if _, ok := l.finder.FindSpec(source + "." + name); ok {
		return Symbol{Kind: KindModule}
	}

	return Symbol{Kind: KindValue}
}

// resolveImportSource resolves the module a from-import reads from,
// relative to the importing file's working module. Imports from an
// ancestor (level >= 2) and malformed absolute imports do not resolve.
func resolveImportSource(workingModule string, imp pyast.ImportFrom) (string, bool) {
	switch {
	case imp.Level >= ancestorLevel:
		return "", false
	case imp.Level == 0:
		if imp.Module == "" {
			return "", false
		}

		return imp.Module, true
	case imp.Module == "":
		return workingModule, true
	default:
		return workingModule + "." + imp.Module, true
	}
}
