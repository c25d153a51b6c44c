package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func newJavaScriptParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	return parser
}

func newTypeScriptParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	return parser
}

func newTSXParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(tsx.GetLanguage())
	return parser
}

// DeclarationNodeTypes are the statement kinds that introduce bindings at
// module scope.
var DeclarationNodeTypes = map[string]bool{
	"lexical_declaration":  true, // const, let
	"variable_declaration": true, // var
}

// IsDeclarationNode reports whether node declares variables.
func IsDeclarationNode(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	return DeclarationNodeTypes[node.Type()]
}

// ExportedDeclarations returns the variable declarators of every
// `export const|let|var` statement directly under root, in source order.
func ExportedDeclarations(root *sitter.Node) []*sitter.Node {
	if root == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "export_statement" {
			continue
		}
		decl := stmt.ChildByFieldName("declaration")
		if !IsDeclarationNode(decl) {
			continue
		}
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			d := decl.NamedChild(j)
			if d.Type() == "variable_declarator" {
				out = append(out, d)
			}
		}
	}
	return out
}
