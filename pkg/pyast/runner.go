package pyast

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sourcetrace/sourcetrace/pkg/pymod"
)

// ErrUnresolvedModule reports a module that cannot be resolved to a
// source file. Only source-backed modules can be analyzed; this is
// always fatal.
var ErrUnresolvedModule = errors.New("module has no resolvable source origin")

// ApplyVisitor resolves a module to its source file, parses it, and
// drives the visitor over every from-import statement in it. All results
// are side effects of the visitor; ApplyVisitor itself only fails on
// resolution, read, or parse errors, or on an error returned by the
// visitor.
func ApplyVisitor(ctx context.Context, finder *pymod.Finder, module string, visitor Visitor) error {
	spec, ok := finder.FindSpec(module)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnresolvedModule, module)
	}

	source, err := os.ReadFile(spec.Origin)
	if err != nil {
		return fmt.Errorf("read %s: %w", spec.Origin, err)
	}

	tree, err := NewParser().Parse(ctx, spec.Origin, source)
	if err != nil {
		return err
	}

	return tree.Walk(ctx, visitor)
}
