package provenance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcetrace/sourcetrace/pkg/provenance"
	"github.com/sourcetrace/sourcetrace/pkg/pymod"
)

func TestLoader_Symbols(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/mod.py": `import os
import numpy as np

VERSION = "1.0"

class Klass:
    pass

def helper():
    pass
`,
	})

	loader := provenance.NewLoader(pymod.NewFinder(root))

	module, err := loader.Load(context.Background(), "pkg.mod")
	require.NoError(t, err)
	assert.Equal(t, "pkg.mod", module.Name)
	assert.False(t, module.Star)

	assert.Equal(t, provenance.Symbol{Kind: provenance.KindClass, DefModule: "pkg.mod"}, module.Symbols["Klass"])
	assert.Equal(t, provenance.Symbol{Kind: provenance.KindFunction, DefModule: "pkg.mod"}, module.Symbols["helper"])
	assert.Equal(t, provenance.Symbol{Kind: provenance.KindValue}, module.Symbols["VERSION"])
	assert.Equal(t, provenance.Symbol{Kind: provenance.KindModule}, module.Symbols["os"])
	assert.Equal(t, provenance.Symbol{Kind: provenance.KindModule}, module.Symbols["np"])
}

func TestLoader_ReexportChain(t *testing.T) {
	t.Parallel()

	// Provenance survives a two-step re-export chain, with an "as"
	// rebinding along the way.
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "from pkg.middle import Klass\n",
		"pkg/origin.py":   "class Klass:\n    pass\n",
		"pkg/middle.py":   "from pkg.origin import Klass as Klass\n",
	})

	loader := provenance.NewLoader(pymod.NewFinder(root))

	module, err := loader.Load(context.Background(), "pkg")
	require.NoError(t, err)
	assert.Equal(t, provenance.Symbol{Kind: provenance.KindClass, DefModule: "pkg.origin"}, module.Symbols["Klass"])
}

func TestLoader_RelativeReexport(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "from .impl import Klass\nfrom . import impl\n",
		"pkg/impl.py":     "class Klass:\n    pass\n",
	})

	loader := provenance.NewLoader(pymod.NewFinder(root))

	module, err := loader.Load(context.Background(), "pkg")
	require.NoError(t, err)
	assert.Equal(t, provenance.Symbol{Kind: provenance.KindClass, DefModule: "pkg.impl"}, module.Symbols["Klass"])
	assert.Equal(t, provenance.Symbol{Kind: provenance.KindModule}, module.Symbols["impl"])
}

func TestLoader_StarImportSetsFlag(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "from pkg.impl import *\n",
		"pkg/impl.py":     "class Klass:\n    pass\n",
	})

	loader := provenance.NewLoader(pymod.NewFinder(root))

	module, err := loader.Load(context.Background(), "pkg")
	require.NoError(t, err)
	assert.True(t, module.Star)
}

func TestLoader_NotFound(t *testing.T) {
	t.Parallel()

	loader := provenance.NewLoader(pymod.NewFinder(t.TempDir()))

	_, err := loader.Load(context.Background(), "ghost")

	var notFound *provenance.ModuleNotFoundError

	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Module)
}

func TestLoader_CachesBySessionNotByFilesystem(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"pkg/__init__.py": "",
		"pkg/mod.py":      "class Klass:\n    pass\n",
	}
	root := writeTree(t, files)

	loader := provenance.NewLoader(pymod.NewFinder(root))

	assert.False(t, loader.Loaded("pkg.mod"))

	first, err := loader.Load(context.Background(), "pkg.mod")
	require.NoError(t, err)
	assert.True(t, loader.Loaded("pkg.mod"))

	second, err := loader.Load(context.Background(), "pkg.mod")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoader_ImportCycle(t *testing.T) {
	t.Parallel()

	// Mutually re-exporting modules must load without hanging; the
	// symbols on the cycle degrade to undecidable provenance.
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/c1.py":       "from pkg.c2 import A\n\nclass B:\n    pass\n",
		"pkg/c2.py":       "from pkg.c1 import B\n\nclass A:\n    pass\n",
	})

	loader := provenance.NewLoader(pymod.NewFinder(root))

	c1, err := loader.Load(context.Background(), "pkg.c1")
	require.NoError(t, err)
	assert.Equal(t, provenance.KindClass, c1.Symbols["B"].Kind)

	// A was chased through pkg.c2 while pkg.c1 was still loading.
	assert.Equal(t, provenance.KindClass, c1.Symbols["A"].Kind)
	assert.Equal(t, "pkg.c2", c1.Symbols["A"].DefModule)

	c2, err := loader.Load(context.Background(), "pkg.c2")
	require.NoError(t, err)
	assert.Equal(t, provenance.KindValue, c2.Symbols["B"].Kind)
}
