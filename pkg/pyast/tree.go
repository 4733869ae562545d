package pyast

import (
	"context"
)

// Wildcard is the alias name of a star import.
const Wildcard = "*"

// Alias is one imported name in a from-import, with its optional "as"
// rebinding. A star import has Name equal to Wildcard.
type Alias struct {
	Name   string
	AsName string
}

// Bound returns the name the alias binds in the importing namespace.
func (a Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}

	return a.Name
}

// ImportFrom is one "from X import ..." statement. Level is the count of
// leading dots: 0 for an absolute import, 1 for the current package, 2
// or more for an ancestor. Module may be empty for "from . import x".
type ImportFrom struct {
	Module   string
	Names    []Alias
	Level    int
	Line     uint32
	TopLevel bool
}

// PlainImport is one clause of a top-level "import X [as Y]" statement.
type PlainImport struct {
	Module string
	AsName string
}

// DefinitionKind discriminates top-level class and function definitions.
type DefinitionKind int

// Definition kinds.
const (
	KindClass DefinitionKind = iota
	KindFunction
)

// Definition is a top-level class or def statement.
type Definition struct {
	Name string
	Kind DefinitionKind
}

// Tree is the extracted view of one source file. Imports holds every
// from-import in the file at any depth; PlainImports, Definitions, and
// Assignments record only module-level bindings.
type Tree struct {
	Filename     string
	Imports      []ImportFrom
	PlainImports []PlainImport
	Definitions  []Definition
	Assignments  []string
}

// Visitor receives every from-import statement of a tree.
type Visitor interface {
	VisitImportFrom(ctx context.Context, stmt ImportFrom) error
}

// Walk dispatches every from-import statement to the visitor, in source
// order. The first visitor error stops the walk and is returned as is.
func (t *Tree) Walk(ctx context.Context, visitor Visitor) error {
	for _, stmt := range t.Imports {
		if err := visitor.VisitImportFrom(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
