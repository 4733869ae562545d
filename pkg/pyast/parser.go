// Package pyast parses Python source files with tree-sitter and exposes
// the statements this tool cares about: from-imports, plain imports, and
// top-level name bindings. The raw tree-sitter tree is released as soon
// as extraction finishes; callers only ever see plain Go values.
package pyast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parser operations.
var (
	errNoRootNode = errors.New("pyast: no root node")
	errPoolType   = errors.New("pyast: pool returned unexpected type")
)

// pyLanguage is the tree-sitter Python grammar, initialized once per
// process.
var (
	pyLanguage     *sitter.Language
	pyLanguageOnce sync.Once
)

func language() *sitter.Language {
	pyLanguageOnce.Do(func() {
		pyLanguage = sitter.NewLanguage(python.GetLanguage())
	})

	return pyLanguage
}

// Parser parses Python source into a Tree. It is safe for concurrent
// use; underlying tree-sitter parsers are pooled per goroutine.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a Parser for the Python grammar.
func NewParser() *Parser {
	lang := language()

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse parses the given source and returns the extracted Tree. The
// filename is recorded for diagnostics only; it is not opened.
func (p *Parser) Parse(ctx context.Context, filename string, content []byte) (*Tree, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("pyast: failed to parse %s: %w", filename, err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, fmt.Errorf("%w in %s", errNoRootNode, filename)
	}

	tree := &Tree{Filename: filename}
	extractNode(tree, root, content, true)

	return tree, nil
}

// extractNode walks the syntax tree collecting statements. topLevel
// tracks whether the current node is a direct child of the module node;
// definitions and bindings are recorded only at top level, while
// from-imports are recorded at any depth.
func extractNode(tree *Tree, node sitter.Node, source []byte, topLevel bool) {
	for idx := range node.NamedChildCount() {
		child := node.NamedChild(idx)

		switch child.Type() {
		case "import_from_statement", "future_import_statement":
			tree.Imports = append(tree.Imports, extractImportFrom(child, source, topLevel))
		case "import_statement":
			if topLevel {
				tree.PlainImports = append(tree.PlainImports, extractPlainImports(child, source)...)
			}
		case "class_definition":
			if topLevel {
				tree.Definitions = append(tree.Definitions, extractDefinition(child, source, KindClass))
			}

			extractNode(tree, child, source, false)
		case "function_definition":
			if topLevel {
				tree.Definitions = append(tree.Definitions, extractDefinition(child, source, KindFunction))
			}

			extractNode(tree, child, source, false)
		case "decorated_definition":
			extractDecorated(tree, child, source, topLevel)
		case "expression_statement":
			if topLevel {
				tree.Assignments = append(tree.Assignments, extractAssignTargets(child, source)...)
			}

			extractNode(tree, child, source, false)
		case "if_statement", "try_statement", "block",
			"else_clause", "elif_clause", "except_clause", "finally_clause":
			// Conditionally-guarded statements at module level still bind
			// module names when executed; keep them at the same level.
			// Function and class bodies are reached with topLevel already
			// false, so their blocks stay nested.
			extractNode(tree, child, source, topLevel)
		default:
			extractNode(tree, child, source, false)
		}
	}
}

// extractImportFrom decodes one import_from_statement node. A
// future_import_statement is decoded the same way; its module is the
// literal "__future__".
func extractImportFrom(node sitter.Node, source []byte, topLevel bool) ImportFrom {
	stmt := ImportFrom{
		Line:     uint32(node.StartPoint().Row + 1),
		TopLevel: topLevel,
	}

	if node.Type() == "future_import_statement" {
		stmt.Module = "__future__"
	}

	seenModule := stmt.Module != ""

	for idx := range node.NamedChildCount() {
		child := node.NamedChild(idx)

		switch child.Type() {
		case "relative_import":
			stmt.Level, stmt.Module = extractRelativeImport(child, source)
			seenModule = true
		case "dotted_name", "identifier":
			if !seenModule {
				stmt.Module = child.Content(source)
				seenModule = true
			} else {
				stmt.Names = append(stmt.Names, Alias{Name: child.Content(source)})
			}
		case "aliased_import":
			stmt.Names = append(stmt.Names, extractAliasedImport(child, source))
		case "wildcard_import":
			stmt.Names = append(stmt.Names, Alias{Name: Wildcard})
		}
	}

	return stmt
}

// extractRelativeImport decodes a relative_import node into its dot
// count and optional module name.
func extractRelativeImport(node sitter.Node, source []byte) (int, string) {
	level := 0
	module := ""

	for idx := range node.NamedChildCount() {
		child := node.NamedChild(idx)

		switch child.Type() {
		case "import_prefix":
			level = strings.Count(child.Content(source), ".")
		case "dotted_name", "identifier":
			module = child.Content(source)
		}
	}

	return level, module
}

func extractAliasedImport(node sitter.Node, source []byte) Alias {
	alias := Alias{}

	if name := node.ChildByFieldName("name"); !name.IsNull() {
		alias.Name = name.Content(source)
	}

	if as := node.ChildByFieldName("alias"); !as.IsNull() {
		alias.AsName = as.Content(source)
	}

	return alias
}

// extractPlainImports decodes an import_statement. "import a.b" binds
// the top component "a"; "import a.b as c" binds "c".
func extractPlainImports(node sitter.Node, source []byte) []PlainImport {
	var imports []PlainImport

	for idx := range node.NamedChildCount() {
		child := node.NamedChild(idx)

		switch child.Type() {
		case "dotted_name", "identifier":
			imports = append(imports, PlainImport{Module: child.Content(source)})
		case "aliased_import":
			alias := extractAliasedImport(child, source)
			imports = append(imports, PlainImport{Module: alias.Name, AsName: alias.AsName})
		}
	}

	return imports
}

func extractDefinition(node sitter.Node, source []byte, kind DefinitionKind) Definition {
	def := Definition{Kind: kind}

	if name := node.ChildByFieldName("name"); !name.IsNull() {
		def.Name = name.Content(source)
	}

	return def
}

// extractDecorated unwraps a decorated_definition to its inner class or
// function definition. Decorators may change what the bound object is at
// runtime; statically the name is still treated as the declared kind.
func extractDecorated(tree *Tree, node sitter.Node, source []byte, topLevel bool) {
	inner := node.ChildByFieldName("definition")
	if inner.IsNull() {
		extractNode(tree, node, source, false)

		return
	}

	switch inner.Type() {
	case "class_definition":
		if topLevel {
			tree.Definitions = append(tree.Definitions, extractDefinition(inner, source, KindClass))
		}
	case "function_definition":
		if topLevel {
			tree.Definitions = append(tree.Definitions, extractDefinition(inner, source, KindFunction))
		}
	}

	extractNode(tree, inner, source, false)
}

// extractAssignTargets collects identifier targets of a top-level
// assignment wrapped in an expression_statement.
func extractAssignTargets(node sitter.Node, source []byte) []string {
	var targets []string

	for idx := range node.NamedChildCount() {
		child := node.NamedChild(idx)
		if child.Type() != "assignment" && child.Type() != "augmented_assignment" {
			continue
		}

		left := child.ChildByFieldName("left")
		if left.IsNull() {
			continue
		}

		targets = append(targets, assignTargetNames(left, source)...)
	}

	return targets
}

func assignTargetNames(node sitter.Node, source []byte) []string {
	switch node.Type() {
	case "identifier":
		return []string{node.Content(source)}
	case "pattern_list", "tuple_pattern", "list_pattern":
		var names []string

		for idx := range node.NamedChildCount() {
			names = append(names, assignTargetNames(node.NamedChild(idx), source)...)
		}

		return names
	default:
		// Attribute and subscript targets do not bind module-level names.
		return nil
	}
}
