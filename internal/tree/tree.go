// Package tree reads and writes nested translation files.
//
// A Tree is the decoded form of src/locales/<lang>/translation.json: objects
// nest by key path segment and string leaves hold the text. Flatten and
// Unflatten convert between the nested form and flat dot-joined keys.
package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/hargabyte/i18nsync/internal/fsutil"
	"github.com/hargabyte/i18nsync/internal/keypath"
)

// Tree is a nested translation map. Branches are Tree values and leaves are
// strings; other JSON values are preserved on save but never flattened.
type Tree map[string]any

// CollisionError reports a key that cannot take a new value: either the key
// already holds a different string, or the path crosses a leaf/branch
// boundary.
type CollisionError struct {
	Key      string
	Existing string
	Incoming string
	// Structural is set when the conflict is between a leaf and a branch.
	Structural bool
}

func (e *CollisionError) Error() string {
	if e.Structural {
		return fmt.Sprintf("key %q conflicts with an existing %s", e.Key, e.Existing)
	}
	return fmt.Sprintf("key %q already holds %q, refusing %q", e.Key, e.Existing, e.Incoming)
}

// New returns an empty tree.
func New() Tree {
	return Tree{}
}

// Get returns the string stored at key.
func (t Tree) Get(key string) (string, bool) {
	segs := keypath.Split(key)
	if len(segs) == 0 {
		return "", false
	}
	node := t
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asTree(node[seg])
		if !ok {
			return "", false
		}
		node = next
	}
	s, ok := node[segs[len(segs)-1]].(string)
	return s, ok
}

// Set stores value at key. An identical existing value is a no-op; any
// other occupant yields a *CollisionError and leaves the tree unchanged.
func (t Tree) Set(key, value string) error {
	if err := t.Check(key, value); err != nil {
		return err
	}
	segs := keypath.Split(key)
	node := t
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asTree(node[seg])
		if !ok {
			next = Tree{}
			node[seg] = next
		}
		node = next
	}
	node[segs[len(segs)-1]] = value
	return nil
}

// Check reports the error Set would return without modifying the tree.
func (t Tree) Check(key, value string) error {
	segs := keypath.Split(key)
	if len(segs) == 0 {
		return fmt.Errorf("empty key")
	}

	node := t
	for i, seg := range segs[:len(segs)-1] {
		child, present := node[seg]
		if !present {
			return nil
		}
		next, ok := asTree(child)
		if !ok {
			return &CollisionError{
				Key:        keypath.Join(segs[:i+1]...),
				Existing:   "leaf",
				Incoming:   value,
				Structural: true,
			}
		}
		node = next
	}

	switch cur := node[segs[len(segs)-1]].(type) {
	case nil:
		return nil
	case string:
		if cur == value {
			return nil
		}
		return &CollisionError{Key: key, Existing: cur, Incoming: value}
	default:
		return &CollisionError{Key: key, Existing: "branch", Incoming: value, Structural: true}
	}
}

// Clone returns a deep copy of the tree's branches.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		if child, ok := asTree(v); ok {
			out[k] = child.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// Delete removes the leaf at key and prunes branches left empty. It reports
// whether a leaf was removed.
func (t Tree) Delete(key string) bool {
	segs := keypath.Split(key)
	if len(segs) == 0 {
		return false
	}
	return deleteAt(t, segs)
}

func deleteAt(node Tree, segs []string) bool {
	if len(segs) == 1 {
		if _, ok := node[segs[0]].(string); !ok {
			return false
		}
		delete(node, segs[0])
		return true
	}
	child, ok := asTree(node[segs[0]])
	if !ok {
		return false
	}
	removed := deleteAt(child, segs[1:])
	if removed && len(child) == 0 {
		delete(node, segs[0])
	}
	return removed
}

// Flatten returns every string leaf keyed by its dot-joined path.
func (t Tree) Flatten() map[string]string {
	out := make(map[string]string)
	flattenInto(out, t, "")
	return out
}

func flattenInto(out map[string]string, node Tree, prefix string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + keypath.Separator + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		default:
			if child, ok := asTree(val); ok {
				flattenInto(out, child, key)
			}
		}
	}
}

// Keys returns the flattened keys in sorted order.
func (t Tree) Keys() []string {
	flat := t.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of string leaves.
func (t Tree) Len() int {
	return len(t.Flatten())
}

// Unflatten builds a tree from flat keys, visiting keys in sorted order so
// that conflicts resolve deterministically. Every rejected key is reported
// in the joined error; the returned tree holds all accepted keys.
func Unflatten(flat map[string]string) (Tree, error) {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := New()
	var errs []error
	for _, k := range keys {
		if err := t.Set(k, flat[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return t, errors.Join(errs...)
}

// Merge sets every entry of flat into t in sorted key order and returns the
// collisions it refused.
func (t Tree) Merge(flat map[string]string) []*CollisionError {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var collisions []*CollisionError
	for _, k := range keys {
		var ce *CollisionError
		if err := t.Set(k, flat[k]); errors.As(err, &ce) {
			collisions = append(collisions, ce)
		}
	}
	return collisions
}

// Load reads a translation file. A missing file yields an empty tree.
func Load(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes translation JSON. Empty input yields an empty tree.
func Parse(data []byte) (Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse translation JSON: %w", err)
	}
	return normalize(raw), nil
}

// Marshal encodes the tree with sorted keys, two-space indentation and
// literal Unicode.
func (t Tree) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any(t)); err != nil {
		return nil, fmt.Errorf("encode translation JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the tree to path atomically.
func Save(path string, t Tree) error {
	data, err := t.Marshal()
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0644)
}

func normalize(m map[string]any) Tree {
	t := make(Tree, len(m))
	for k, v := range m {
		if child, ok := v.(map[string]any); ok {
			t[k] = normalize(child)
			continue
		}
		t[k] = v
	}
	return t
}

func asTree(v any) (Tree, bool) {
	switch val := v.(type) {
	case Tree:
		return val, true
	case map[string]any:
		return Tree(val), true
	default:
		return nil, false
	}
}
