package pymod

import (
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// RecurseModules lazily enumerates every importable module reachable from
// root, depth first, each parent yielded before its children. Modules are
// resolved through the finder as the sequence is consumed; nothing is
// probed ahead of the consumer.
//
// A root that does not resolve to a source-backed module produces an
// empty sequence rather than an error: namespace and extension modules
// are legitimately unintrospectable and are skipped silently.
//
// When ignoreTests is set, any module whose second dotted component is
// "tests" is excluded together with its whole subtree. When packagesOnly
// is set, only packages are yielded, but package-to-package paths are
// still fully explored past non-package siblings.
//
// Children are enumerated in directory scan order. That order is not
// part of the contract; callers must not rely on it.
//
// Each call starts a fresh traversal. The sequence is restartable by
// re-invoking, not resumable mid-iteration.
func RecurseModules(finder *Finder, root string, ignoreTests, packagesOnly bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		recurse(finder, root, ignoreTests, packagesOnly, yield)
	}
}

// recurse walks one module and its subtree. It returns false once the
// consumer stops the iteration.
func recurse(finder *Finder, name string, ignoreTests, packagesOnly bool, yield func(string) bool) bool {
	if ignoreTests && IsTestModule(name) {
		return true
	}

	spec, ok := finder.FindSpec(name)
	if !ok {
		return true
	}

	if !(packagesOnly && !spec.IsPackage) {
		if !yield(name) {
			return false
		}
	}

	if !spec.IsPackage {
		return true
	}

	for _, child := range childModules(spec.Dir()) {
		childName := name + "." + child.name

		if child.isPkg {
			if !recurse(finder, childName, ignoreTests, packagesOnly, yield) {
				return false
			}

			continue
		}

		if packagesOnly {
			continue
		}

		if ignoreTests && IsTestModule(childName) {
			continue
		}

		if !yield(childName) {
			return false
		}
	}

	return true
}

type childModule struct {
	name  string
	isPkg bool
}

// childModules lists the immediate child modules of a package directory:
// subdirectories holding an __init__.py, and .py files other than the
// aggregator itself.
func childModules(dir string) []childModule {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	children := make([]childModule, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() {
			if isFile(filepath.Join(dir, name, initFile)) {
				children = append(children, childModule{name: name, isPkg: true})
			}

			continue
		}

		if strings.HasSuffix(name, pySuffix) && name != initFile {
			children = append(children, childModule{name: strings.TrimSuffix(name, pySuffix)})
		}
	}

	return children
}
