// Package parser provides tree-sitter based parsing for the script languages
// whose string tables i18nsync manages.
//
// The parser package wraps the tree-sitter library to provide a unified
// interface over JavaScript, TypeScript and TSX sources. Every node carries
// byte offsets into the parsed buffer, which the extraction and rewrite
// passes rely on.
package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language represents a supported source language.
type Language string

const (
	// JavaScript covers .js, .jsx, .mjs and .cjs files.
	JavaScript Language = "javascript"
	// TypeScript covers .ts, .mts and .cts files.
	TypeScript Language = "typescript"
	// TSX covers .tsx files.
	TSX Language = "tsx"
)

// Parser wraps tree-sitter for code parsing.
type Parser struct {
	parser *sitter.Parser
	lang   Language
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	// Tree is the complete tree-sitter parse tree.
	Tree *sitter.Tree
	// Root is the root node of the AST.
	Root *sitter.Node
	// Source is the original source code that was parsed.
	Source []byte
	// FilePath is the path to the source file (empty for in-memory parsing).
	FilePath string
	// Language is the language of the source.
	Language Language
}

// NewParser creates a parser for the given language.
// Returns an UnsupportedLanguageError if the language is not supported.
func NewParser(lang Language) (*Parser, error) {
	var p *sitter.Parser

	switch lang {
	case JavaScript:
		p = newJavaScriptParser()
	case TypeScript:
		p = newTypeScriptParser()
	case TSX:
		p = newTSXParser()
	default:
		return nil, &UnsupportedLanguageError{Language: string(lang)}
	}

	return &Parser{
		parser: p,
		lang:   lang,
	}, nil
}

// NewParserForFile creates a parser matching the extension of path.
func NewParserForFile(path string) (*Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	lang := LanguageFromExtension(ext)
	if lang == "" {
		return nil, &UnsupportedLanguageError{Language: ext, File: filepath.ToSlash(path)}
	}
	return NewParser(lang)
}

// Parse parses source code and returns the AST.
func (p *Parser) Parse(source []byte) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source)
}

// ParseCtx parses source code, honouring cancellation of ctx.
func (p *Parser) ParseCtx(ctx context.Context, source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{
			Message: err.Error(),
		}
	}

	return &ParseResult{
		Tree:     tree,
		Root:     tree.RootNode(),
		Source:   source,
		Language: p.lang,
	}, nil
}

// ParseFile parses a file from disk.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	result, err := p.Parse(source)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = path
		}
		return nil, err
	}

	result.FilePath = path
	return result, nil
}

// Language returns the language this parser is configured for.
func (p *Parser) Language() Language {
	return p.lang
}

// Close releases parser resources.
// After calling Close, the parser should not be used.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree resources.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors returns true if the parse tree contains syntax errors.
func (r *ParseResult) HasErrors() bool {
	if r.Root == nil {
		return false
	}
	return r.Root.HasError()
}

// Err returns a ParseError pointing at the first syntax error in the tree,
// or nil when the tree is clean.
func (r *ParseResult) Err() error {
	if !r.HasErrors() {
		return nil
	}

	var bad *sitter.Node
	r.WalkNodes(func(node *sitter.Node) bool {
		if bad != nil {
			return false
		}
		if node.Type() == "ERROR" || node.IsMissing() {
			bad = node
			return false
		}
		return true
	})

	pe := &ParseError{Message: "syntax error", File: r.FilePath}
	if bad != nil {
		pt := bad.StartPoint()
		pe.Line = pt.Row + 1
		pe.Column = pt.Column + 1
		if bad.IsMissing() {
			pe.Message = "missing " + bad.Type()
		} else {
			pe.Message = "unexpected " + snippet(r.NodeText(bad))
		}
	}
	return pe
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 32 {
		s = s[:32] + "..."
	}
	return "'" + s + "'"
}

// WalkNodes traverses the AST depth-first, calling the visitor function
// for each node. If the visitor returns false, traversal stops.
func (r *ParseResult) WalkNodes(visitor func(*sitter.Node) bool) {
	if r.Root == nil {
		return
	}
	walkNode(r.Root, visitor)
}

// walkNode is a helper for depth-first AST traversal.
func walkNode(node *sitter.Node, visitor func(*sitter.Node) bool) bool {
	if !visitor(node) {
		return false
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if !walkNode(node.Child(int(i)), visitor) {
			return false
		}
	}
	return true
}

// Leaves returns every leaf token of the tree in source order, comments
// included.
func (r *ParseResult) Leaves() []*sitter.Node {
	var leaves []*sitter.Node
	r.WalkNodes(func(node *sitter.Node) bool {
		if node.ChildCount() == 0 || node.Type() == "comment" {
			if node.EndByte() > node.StartByte() {
				leaves = append(leaves, node)
			}
			return node.Type() != "comment"
		}
		return true
	})
	return leaves
}

// FindNodes returns all nodes matching the given predicate.
func (r *ParseResult) FindNodes(predicate func(*sitter.Node) bool) []*sitter.Node {
	var nodes []*sitter.Node
	r.WalkNodes(func(node *sitter.Node) bool {
		if predicate(node) {
			nodes = append(nodes, node)
		}
		return true
	})
	return nodes
}

// FindNodesByType returns all nodes of the specified type.
func (r *ParseResult) FindNodesByType(nodeType string) []*sitter.Node {
	return r.FindNodes(func(node *sitter.Node) bool {
		return node.Type() == nodeType
	})
}

// NodeText returns the source text for a node.
func (r *ParseResult) NodeText(node *sitter.Node) string {
	if node == nil || r.Source == nil {
		return ""
	}
	return node.Content(r.Source)
}

// LanguageFromExtension returns the language for a file extension.
// Returns empty string if the extension is not recognized.
func LanguageFromExtension(ext string) Language {
	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		return JavaScript
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	default:
		return ""
	}
}

// SupportedExtensions returns all file extensions supported for parsing.
func SupportedExtensions() []string {
	return []string{
		".js", ".jsx", ".mjs", ".cjs",
		".ts", ".mts", ".cts",
		".tsx",
	}
}
