// Package extract finds user-facing strings in exported string tables,
// assigns each a hierarchical key and records the edits that replace them
// with lookups.
//
// Classification maps raw tree-sitter nodes onto a closed set of kinds;
// everything outside that set is Opaque and never descended into. The
// Session carries run-wide deduplication state across files.
package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/i18nsync/internal/keypath"
)

// NodeKind is the classification of one expression node.
type NodeKind string

const (
	// ObjectLiteral is `{ ... }` with statically keyed properties.
	ObjectLiteral NodeKind = "object"
	// ArrayLiteral is `[ ... ]`.
	ArrayLiteral NodeKind = "array"
	// StringLiteral is a quoted string.
	StringLiteral NodeKind = "string"
	// TemplateLiteral is a backtick string without substitutions.
	TemplateLiteral NodeKind = "template"
	// PluralBlock is an object holding exactly the literal properties one
	// and other.
	PluralBlock NodeKind = "plural"
	// LegacyCall is a call through the bare legacy lookup function.
	LegacyCall NodeKind = "legacy_call"
	// Identifier is a reference to another binding.
	Identifier NodeKind = "identifier"
	// Opaque is every other expression.
	Opaque NodeKind = "opaque"
)

// Node is a classified expression. Only the fields relevant to Kind are set.
type Node struct {
	Kind NodeKind
	// Raw is the underlying tree-sitter node.
	Raw *sitter.Node
	// Value is the decoded text of StringLiteral and TemplateLiteral nodes.
	Value string
	// One and Other are the decoded forms of a PluralBlock.
	One, Other string
	// Callee is the function node of a LegacyCall.
	Callee *sitter.Node
}

// Property is a statically keyed object member.
type Property struct {
	Key   string
	Value *sitter.Node
}

// Element is an array member with its position, holes included.
type Element struct {
	Index int
	Value *sitter.Node
}

// Classifier classifies nodes of one source buffer.
type Classifier struct {
	source []byte
	ref    keypath.Reference
}

// NewClassifier returns a classifier for nodes parsed from source.
func NewClassifier(source []byte, ref keypath.Reference) *Classifier {
	return &Classifier{source: source, ref: ref}
}

// Classify returns the kind of n. Parenthesised expressions and TypeScript
// `as`/`satisfies` wrappers are looked through.
func (c *Classifier) Classify(n *sitter.Node) Node {
	n = unwrap(n)
	if n == nil {
		return Node{Kind: Opaque}
	}

	switch n.Type() {
	case "object":
		if one, other, ok := c.pluralForms(n); ok {
			return Node{Kind: PluralBlock, Raw: n, One: one, Other: other}
		}
		return Node{Kind: ObjectLiteral, Raw: n}
	case "array":
		return Node{Kind: ArrayLiteral, Raw: n}
	case "string":
		return Node{Kind: StringLiteral, Raw: n, Value: c.stringValue(n)}
	case "template_string":
		if v, ok := c.templateValue(n); ok {
			return Node{Kind: TemplateLiteral, Raw: n, Value: v}
		}
	case "call_expression":
		fn := n.ChildByFieldName("function")
		if fn != nil && fn.Type() == "identifier" && c.ref.Legacy != "" && fn.Content(c.source) == c.ref.Legacy {
			return Node{Kind: LegacyCall, Raw: n, Callee: fn}
		}
	case "identifier":
		return Node{Kind: Identifier, Raw: n}
	}
	return Node{Kind: Opaque, Raw: n}
}

// Properties returns the statically keyed pairs of an object node in source
// order. Shorthand, spread, method and computed non-literal members are
// left out.
func (c *Classifier) Properties(obj *sitter.Node) []Property {
	var props []Property
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		child := obj.NamedChild(i)
		if child.Type() != "pair" {
			continue
		}
		key, ok := c.propertyKey(child.ChildByFieldName("key"))
		if !ok {
			continue
		}
		props = append(props, Property{Key: key, Value: child.ChildByFieldName("value")})
	}
	return props
}

// Elements returns the members of an array node. Indices count holes, so
// `[a, , b]` yields indices 0 and 2.
func (c *Classifier) Elements(arr *sitter.Node) []Element {
	var elems []Element
	idx := 0
	for i := 0; i < int(arr.ChildCount()); i++ {
		child := arr.Child(i)
		switch {
		case child.Type() == ",":
			idx++
		case child.IsNamed() && child.Type() != "comment":
			elems = append(elems, Element{Index: idx, Value: child})
		}
	}
	return elems
}

func (c *Classifier) propertyKey(k *sitter.Node) (string, bool) {
	if k == nil {
		return "", false
	}
	switch k.Type() {
	case "property_identifier", "number":
		return k.Content(c.source), true
	case "string":
		return c.stringValue(k), true
	case "computed_property_name":
		inner := unwrap(k.NamedChild(0))
		if inner == nil {
			return "", false
		}
		switch inner.Type() {
		case "string":
			return c.stringValue(inner), true
		case "number":
			return inner.Content(c.source), true
		case "template_string":
			return c.templateValue(inner)
		}
	}
	return "", false
}

// pluralForms recognises `{ one: "...", other: "..." }`.
func (c *Classifier) pluralForms(obj *sitter.Node) (one, other string, ok bool) {
	var pairs int
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		child := obj.NamedChild(i)
		switch child.Type() {
		case "comment":
			continue
		case "pair":
			pairs++
		default:
			return "", "", false
		}
	}
	if pairs != 2 {
		return "", "", false
	}

	var haveOne, haveOther bool
	for _, p := range c.Properties(obj) {
		v, isLit := c.literalValue(p.Value)
		if !isLit {
			return "", "", false
		}
		switch p.Key {
		case "one":
			one, haveOne = v, true
		case "other":
			other, haveOther = v, true
		}
	}
	return one, other, haveOne && haveOther
}

func (c *Classifier) literalValue(n *sitter.Node) (string, bool) {
	n = unwrap(n)
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
		return c.stringValue(n), true
	case "template_string":
		return c.templateValue(n)
	}
	return "", false
}

func (c *Classifier) stringValue(n *sitter.Node) string {
	raw := n.Content(c.source)
	if len(raw) >= 2 {
		raw = raw[1 : len(raw)-1]
	}
	return Unescape(raw)
}

func (c *Classifier) templateValue(n *sitter.Node) (string, bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "template_substitution" {
			return "", false
		}
	}
	raw := n.Content(c.source)
	if len(raw) >= 2 {
		raw = raw[1 : len(raw)-1]
	}
	return Unescape(raw), true
}

func unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return nil
}
