// Package pymod resolves dotted Python module names against filesystem
// search roots and enumerates the module tree below a package.
//
// Resolution is pure filesystem probing: a dotted name maps either to a
// package directory holding an __init__.py or to a plain .py file. No
// Python interpreter is involved and no analyzed code is executed.
package pymod

import (
	"os"
	"path/filepath"
	"strings"
)

// initFile is the package aggregator file name. A module whose origin is
// an aggregator file is a package.
const initFile = "__init__.py"

// pySuffix is the source file extension for plain modules.
const pySuffix = ".py"

// Spec holds the resolved metadata for one module: its dotted name, the
// source file it originates from, and whether that file is a package
// aggregator.
type Spec struct {
	Name      string
	Origin    string
	IsPackage bool
}

// Dir returns the directory that holds the module's child modules.
func (s *Spec) Dir() string {
	return filepath.Dir(s.Origin)
}

// Finder resolves dotted module names against an ordered list of search
// roots, the way an interpreter resolves names against its module path.
type Finder struct {
	roots []string
}

// NewFinder creates a Finder over the given search roots. Roots are
// probed in order; the first root that resolves a name wins.
func NewFinder(roots ...string) *Finder {
	return &Finder{roots: roots}
}

// Roots returns the configured search roots.
func (f *Finder) Roots() []string {
	return f.roots
}

// FindSpec resolves a dotted module name to its Spec. The second return
// value is false when the name does not resolve to a source-backed
// module under any root. Invalid names (empty, or with empty components)
// never resolve.
func (f *Finder) FindSpec(name string) (*Spec, bool) {
	components := strings.Split(name, ".")
	for _, component := range components {
		if component == "" {
			return nil, false
		}
	}

	rel := filepath.Join(components...)

	for _, root := range f.roots {
		initPath := filepath.Join(root, rel, initFile)
		if isFile(initPath) {
			return &Spec{Name: name, Origin: initPath, IsPackage: true}, true
		}

		filePath := filepath.Join(root, rel) + pySuffix
		if isFile(filePath) {
			return &Spec{Name: name, Origin: filePath, IsPackage: false}, true
		}
	}

	return nil, false
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// TopLevel returns the first dotted component of a module name.
func TopLevel(name string) string {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}

	return name
}

// Parent returns the dotted parent of a module name, or "" for a
// top-level name.
func Parent(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}

	return ""
}

// IsTestModule reports whether the second dotted component of a module
// name is literally "tests".
func IsTestModule(name string) bool {
	components := strings.Split(name, ".")

	return len(components) >= 2 && components[1] == "tests"
}
