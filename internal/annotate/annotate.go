// Package annotate keeps a trailing comment with the source text next to
// every lookup call, e.g.
//
//	title: i18n.t('venues.title'), // "Venues"
//
// The pass only locates call sites and inspects the tokens that follow them
// on the same line; it never restructures code. Running it on its own
// output changes nothing.
package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/i18nsync/internal/extract"
	"github.com/hargabyte/i18nsync/internal/keypath"
	"github.com/hargabyte/i18nsync/internal/parser"
	"github.com/hargabyte/i18nsync/internal/rewrite"
)

// Lookup renders the annotation body for key, reporting false when the key
// has no known text.
type Lookup func(key string) (string, bool)

// MapLookup resolves keys from a flat key→value map. A key missing from the
// map but present as key_one/key_other renders both plural forms.
func MapLookup(values map[string]string) Lookup {
	return func(key string) (string, bool) {
		if v, ok := values[key]; ok {
			return Comment(v), true
		}
		one, okOne := values[key+"_one"]
		other, okOther := values[key+"_other"]
		if okOne && okOther {
			return Comment(one) + " | " + Comment(other), true
		}
		return "", false
	}
}

// Comment renders value as the body of an annotation: a JSON string with
// HTML characters left alone.
func Comment(value string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(value)
	return strings.TrimSuffix(buf.String(), "\n")
}

// Stats counts what a pass did.
type Stats struct {
	Inserted  int `json:"inserted" yaml:"inserted"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Stripped  int `json:"stripped" yaml:"stripped"`
	// Blocked counts references followed by more code on the same line.
	Blocked int `json:"blocked" yaml:"blocked"`
}

// Formatter annotates reference calls.
type Formatter struct {
	ref    keypath.Reference
	lookup Lookup
}

// NewFormatter returns a formatter for calls shaped like ref.
func NewFormatter(ref keypath.Reference, lookup Lookup) *Formatter {
	return &Formatter{ref: ref, lookup: lookup}
}

// Call is one reference site.
type Call struct {
	Key  string
	Node *sitter.Node
}

// Format returns src with every reference annotated. A source with syntax
// errors is returned unchanged together with its *parser.ParseError.
func (f *Formatter) Format(ctx context.Context, p *parser.Parser, src []byte) ([]byte, Stats, error) {
	var stats Stats

	result, err := p.ParseCtx(ctx, src)
	if err != nil {
		return src, stats, err
	}
	defer result.Close()
	if err := result.Err(); err != nil {
		return src, stats, err
	}

	leaves := result.Leaves()
	rw := rewrite.New(src)
	used := make(map[int]bool)

	for _, call := range FindCalls(result, f.ref) {
		end := int(call.Node.EndByte())
		next := nextSignificant(leaves, src, end)

		switch {
		case next == nil || !sameLine(src, end, int(next.StartByte())):
			body, ok := f.lookup(call.Key)
			if !ok {
				continue
			}
			at := lineContentEnd(src, end)
			if used[at] {
				continue
			}
			used[at] = true
			rw.Insert(at, " // "+body)
			stats.Inserted++

		case next.Type() == "comment" && strings.HasPrefix(next.Content(src), "//"):
			start, stop := int(next.StartByte()), int(next.EndByte())
			if used[start] {
				continue
			}
			used[start] = true

			body, ok := f.lookup(call.Key)
			if !ok {
				rw.Delete(trimSpaceBefore(src, start), stop)
				stats.Stripped++
				continue
			}
			text := "// " + body
			if string(src[start:stop]) == text {
				stats.Unchanged++
				continue
			}
			rw.Replace(start, stop, text)
			stats.Updated++

		default:
			stats.Blocked++
		}
	}

	out, err := rw.Apply()
	if err != nil {
		return src, stats, err
	}
	return out, stats, nil
}

// FindCalls returns the reference calls of result whose first argument is
// a literal key, in source order.
func FindCalls(result *parser.ParseResult, ref keypath.Reference) []Call {
	src := result.Source
	var calls []Call
	for _, n := range result.FindNodesByType("call_expression") {
		if !isReferenceCallee(n.ChildByFieldName("function"), src, ref) {
			continue
		}
		key, ok := firstLiteralArg(n.ChildByFieldName("arguments"), src)
		if !ok {
			continue
		}
		calls = append(calls, Call{Key: key, Node: n})
	}
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].Node.StartByte() < calls[j].Node.StartByte()
	})
	return calls
}

// Keys returns the distinct keys referenced in src, sorted.
func Keys(ctx context.Context, p *parser.Parser, src []byte, ref keypath.Reference) ([]string, error) {
	result, err := p.ParseCtx(ctx, src)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	seen := make(map[string]bool)
	for _, c := range FindCalls(result, ref) {
		seen[c.Key] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, result.Err()
}

func isReferenceCallee(fn *sitter.Node, src []byte, ref keypath.Reference) bool {
	if fn == nil {
		return false
	}
	if ref.Namespace == "" {
		return fn.Type() == "identifier" && fn.Content(src) == ref.Function
	}
	if fn.Type() != "member_expression" {
		return false
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	return obj != nil && prop != nil &&
		obj.Type() == "identifier" && obj.Content(src) == ref.Namespace &&
		prop.Content(src) == ref.Function
}

func firstLiteralArg(args *sitter.Node, src []byte) (string, bool) {
	if args == nil {
		return "", false
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		if a.Type() == "comment" {
			continue
		}
		raw := a.Content(src)
		switch a.Type() {
		case "string":
			return extract.Unescape(raw[1 : len(raw)-1]), true
		case "template_string":
			for j := 0; j < int(a.NamedChildCount()); j++ {
				if a.NamedChild(j).Type() == "template_substitution" {
					return "", false
				}
			}
			return extract.Unescape(raw[1 : len(raw)-1]), true
		}
		return "", false
	}
	return "", false
}

// closers may sit between a call and its annotation.
var closers = map[string]bool{",": true, ";": true, ")": true, "]": true, "}": true}

// nextSignificant returns the first leaf at or after offset that is not a
// closing token on the same line.
func nextSignificant(leaves []*sitter.Node, src []byte, offset int) *sitter.Node {
	i := sort.Search(len(leaves), func(i int) bool {
		return int(leaves[i].StartByte()) >= offset
	})
	for ; i < len(leaves); i++ {
		leaf := leaves[i]
		if closers[leaf.Type()] && sameLine(src, offset, int(leaf.StartByte())) {
			continue
		}
		return leaf
	}
	return nil
}

func sameLine(src []byte, from, to int) bool {
	return bytes.IndexByte(src[from:to], '\n') < 0
}

// lineContentEnd returns the offset just past the last non-blank byte of
// the line containing offset.
func lineContentEnd(src []byte, offset int) int {
	end := offset
	if nl := bytes.IndexByte(src[offset:], '\n'); nl >= 0 {
		end = offset + nl
	} else {
		end = len(src)
	}
	for end > offset && (src[end-1] == ' ' || src[end-1] == '\t' || src[end-1] == '\r') {
		end--
	}
	return end
}

func trimSpaceBefore(src []byte, offset int) int {
	for offset > 0 && (src[offset-1] == ' ' || src[offset-1] == '\t') {
		offset--
	}
	return offset
}
