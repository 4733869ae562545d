package pymod_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcetrace/sourcetrace/pkg/pymod"
)

func fixtureFinder(t *testing.T) *pymod.Finder {
	t.Helper()

	root := writeTree(t, map[string]string{
		"pkg/__init__.py":            "",
		"pkg/mod.py":                 "",
		"pkg/data.txt":               "not a module",
		"pkg/sub/__init__.py":        "",
		"pkg/sub/leaf.py":            "",
		"pkg/_private/__init__.py":   "",
		"pkg/_private/impl.py":       "",
		"pkg/tests/__init__.py":      "",
		"pkg/tests/test_mod.py":      "",
		"pkg/tests/data/__init__.py": "",
	})

	return pymod.NewFinder(root)
}

func collect(finder *pymod.Finder, root string, ignoreTests, packagesOnly bool) []string {
	return slices.Collect(pymod.RecurseModules(finder, root, ignoreTests, packagesOnly))
}

func TestRecurseModules_All(t *testing.T) {
	t.Parallel()

	modules := collect(fixtureFinder(t), "pkg", false, false)

	assert.ElementsMatch(t, []string{
		"pkg",
		"pkg.mod",
		"pkg.sub",
		"pkg.sub.leaf",
		"pkg._private",
		"pkg._private.impl",
		"pkg.tests",
		"pkg.tests.test_mod",
		"pkg.tests.data",
	}, modules)
}

func TestRecurseModules_ParentBeforeChildren(t *testing.T) {
	t.Parallel()

	modules := collect(fixtureFinder(t), "pkg", false, false)

	require.NotEmpty(t, modules)
	assert.Equal(t, "pkg", modules[0])

	sub := slices.Index(modules, "pkg.sub")
	leaf := slices.Index(modules, "pkg.sub.leaf")
	require.GreaterOrEqual(t, sub, 0)
	require.GreaterOrEqual(t, leaf, 0)
	assert.Less(t, sub, leaf)
}

func TestRecurseModules_IgnoreTests(t *testing.T) {
	t.Parallel()

	modules := collect(fixtureFinder(t), "pkg", true, false)

	assert.ElementsMatch(t, []string{
		"pkg",
		"pkg.mod",
		"pkg.sub",
		"pkg.sub.leaf",
		"pkg._private",
		"pkg._private.impl",
	}, modules)
}

func TestRecurseModules_IgnoreTests_Root(t *testing.T) {
	t.Parallel()

	// The filter applies to the root itself: nothing under pkg.tests is
	// yielded, including the root.
	modules := collect(fixtureFinder(t), "pkg.tests", true, false)
	assert.Empty(t, modules)
}

func TestRecurseModules_PackagesOnly(t *testing.T) {
	t.Parallel()

	modules := collect(fixtureFinder(t), "pkg", false, true)

	assert.ElementsMatch(t, []string{
		"pkg",
		"pkg.sub",
		"pkg._private",
		"pkg.tests",
		"pkg.tests.data",
	}, modules)
}

func TestRecurseModules_PackagesOnly_NonPackageRoot(t *testing.T) {
	t.Parallel()

	modules := collect(fixtureFinder(t), "pkg.mod", false, true)
	assert.Empty(t, modules)
}

func TestRecurseModules_LeafPackage(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"solo/__init__.py": ""})
	finder := pymod.NewFinder(root)

	assert.Equal(t, []string{"solo"}, collect(finder, "solo", false, false))
	assert.Equal(t, []string{"solo"}, collect(finder, "solo", true, true))
}

func TestRecurseModules_UnresolvableRoot(t *testing.T) {
	t.Parallel()

	finder := pymod.NewFinder(t.TempDir())

	assert.Empty(t, collect(finder, "ghost", false, false))
}

func TestRecurseModules_Lazy(t *testing.T) {
	t.Parallel()

	finder := fixtureFinder(t)

	var got []string

	for module := range pymod.RecurseModules(finder, "pkg", false, false) {
		got = append(got, module)

		break
	}

	assert.Equal(t, []string{"pkg"}, got)
}

func TestRecurseModules_Restartable(t *testing.T) {
	t.Parallel()

	finder := fixtureFinder(t)
	seq := pymod.RecurseModules(finder, "pkg", false, false)

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Equal(t, first, second)
}
