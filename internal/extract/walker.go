package extract

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/i18nsync/internal/keypath"
	"github.com/hargabyte/i18nsync/internal/rewrite"
	"github.com/hargabyte/i18nsync/internal/tree"
)

// Skip reasons.
const (
	SkipPlaceholder  = "single-brace placeholder declined"
	SkipCollision    = "key already holds a different value"
	SkipInvalidKey   = "property name contains the key separator"
	SkipEmptyKeyPath = "no key path"
)

// Skip records a literal that was left in place.
type Skip struct {
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
	Reason string `json:"reason" yaml:"reason"`
	Line   int    `json:"line" yaml:"line"`
}

// walker descends one declaration initializer, queueing spans on rw and
// staging dedup decisions on tx.
type walker struct {
	cls *Classifier
	ref keypath.Reference
	rw  *rewrite.Rewriter
	tx  *txn
	ask Confirm
	res *FileResult
}

func (w *walker) walk(n *sitter.Node, path []string) {
	node := w.cls.Classify(n)

	switch node.Kind {
	case PluralBlock:
		w.plural(node, path)
	case ObjectLiteral:
		for _, p := range w.cls.Properties(node.Raw) {
			if !keypath.ValidSegment(p.Key) {
				w.skip(p.Value, keypath.Join(path...)+"["+strconv.Quote(p.Key)+"]", "", SkipInvalidKey)
				continue
			}
			w.walk(p.Value, keypath.Append(path, p.Key))
		}
	case ArrayLiteral:
		for _, e := range w.cls.Elements(node.Raw) {
			w.walk(e.Value, keypath.Append(path, strconv.Itoa(e.Index)))
		}
	case StringLiteral, TemplateLiteral:
		w.leaf(node, path)
	case LegacyCall:
		w.rw.Replace(int(node.Callee.StartByte()), int(node.Callee.EndByte()), w.ref.Callee())
		w.res.Upgraded++
	}
}

func (w *walker) leaf(node Node, path []string) {
	value := node.Value
	if strings.TrimSpace(value) == "" || strings.Contains(value, w.ref.Callee()+"(") {
		return
	}

	key := keypath.Join(path...)
	if key == "" {
		w.skip(node.Raw, key, value, SkipEmptyKeyPath)
		return
	}
	if !w.accept(node.Raw, key, value) {
		return
	}

	canonical, seen := w.tx.keyFor(value)
	if seen {
		w.tx.duplicate(value, canonical, key)
	} else {
		if err := w.tx.claim(key, value); err != nil {
			w.collision(node.Raw, key, value, err)
			return
		}
		w.tx.register(value, key)
		canonical = key
	}

	w.replace(node.Raw, canonical)
}

// plural stores both forms under P_one and P_other and collapses the block
// to a single reference to P. Either form failing validation leaves the
// whole block untouched.
func (w *walker) plural(node Node, path []string) {
	key := keypath.Join(path...)
	if key == "" {
		w.skip(node.Raw, key, node.One, SkipEmptyKeyPath)
		return
	}

	forms := [2][2]string{
		{key + "_one", node.One},
		{key + "_other", node.Other},
	}
	for _, f := range forms {
		if !w.accept(node.Raw, f[0], f[1]) {
			return
		}
	}
	for _, f := range forms {
		if err := w.tx.check(f[0], f[1]); err != nil {
			w.collision(node.Raw, f[0], f[1], err)
			return
		}
	}

	for _, f := range forms {
		formKey, value := f[0], f[1]
		if canonical, seen := w.tx.keyFor(value); seen {
			if canonical != formKey {
				w.tx.duplicate(value, canonical, formKey)
			}
		} else {
			w.tx.register(value, formKey)
		}
		// Both forms passed check above.
		_ = w.tx.claim(formKey, value)
	}

	w.replace(node.Raw, key)
	w.res.Plurals++
}

func (w *walker) accept(n *sitter.Node, key, value string) bool {
	phs := SingleBracePlaceholders(value)
	if len(phs) == 0 {
		return true
	}
	v := &PlaceholderViolation{Key: key, Value: value, Placeholders: phs}
	if w.ask(v.Message()) {
		return true
	}
	w.skip(n, key, value, SkipPlaceholder)
	return false
}

func (w *walker) replace(n *sitter.Node, key string) {
	w.rw.Replace(int(n.StartByte()), int(n.EndByte()), w.ref.Call(key))
	w.res.Replaced++
}

func (w *walker) collision(n *sitter.Node, key, value string, err error) {
	if ce, ok := err.(*tree.CollisionError); ok {
		w.res.Collisions = append(w.res.Collisions, ce)
	}
	w.skip(n, key, value, SkipCollision)
}

func (w *walker) skip(n *sitter.Node, key, value, reason string) {
	line := 0
	if n != nil {
		line = int(n.StartPoint().Row) + 1
	}
	w.res.Skipped = append(w.res.Skipped, Skip{Key: key, Value: value, Reason: reason, Line: line})
}
