package extract

import (
	"errors"
	"sort"

	"github.com/hargabyte/i18nsync/internal/keypath"
	"github.com/hargabyte/i18nsync/internal/tree"
)

// Options configures a Session.
type Options struct {
	Rules     keypath.Rules
	Reference keypath.Reference
	// Confirm is asked about single-brace placeholders. Nil declines.
	Confirm Confirm
}

// DefaultOptions returns the conventional rules and reference syntax with
// placeholder violations declined.
func DefaultOptions() Options {
	return Options{
		Rules:     keypath.DefaultRules(),
		Reference: keypath.DefaultReference(),
		Confirm:   Decline,
	}
}

// Duplicate reports one value found under more than one key path.
type Duplicate struct {
	Value string `json:"value" yaml:"value"`
	// Key is the canonical key every occurrence resolves to.
	Key string `json:"key" yaml:"key"`
	// Locations lists every key path where the value occurred, canonical
	// first, in discovery order.
	Locations []string `json:"locations" yaml:"locations"`
}

// Session holds the state of one extraction run across files: the
// value→key map, the duplicate report and the entries discovered so far.
// Files must be processed one at a time in a fixed order because later
// files observe the decisions of earlier ones. A Session is not safe for
// concurrent use.
type Session struct {
	opts       Options
	known      tree.Tree
	valueToKey map[string]string
	dups       map[string]*Duplicate
	entries    map[string]string
}

// NewSession seeds a session from the existing source-language tree. When
// the tree already holds a value under several keys, the first key in
// sorted order becomes canonical and the others are reported as duplicates.
func NewSession(existing tree.Tree, opts Options) *Session {
	if opts.Confirm == nil {
		opts.Confirm = Decline
	}
	if existing == nil {
		existing = tree.New()
	}

	s := &Session{
		opts:       opts,
		known:      existing.Clone(),
		valueToKey: make(map[string]string),
		dups:       make(map[string]*Duplicate),
		entries:    make(map[string]string),
	}

	flat := existing.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := flat[k]
		if canon, ok := s.valueToKey[v]; ok {
			s.noteDuplicate(v, canon, k)
			continue
		}
		s.valueToKey[v] = k
	}
	return s
}

// Options returns the session configuration.
func (s *Session) Options() Options {
	return s.opts
}

// KeyFor returns the canonical key of value.
func (s *Session) KeyFor(value string) (string, bool) {
	k, ok := s.valueToKey[value]
	return k, ok
}

// NewEntries returns the key→value pairs first discovered in this run.
func (s *Session) NewEntries() map[string]string {
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Known returns the source tree merged with every accepted new entry.
func (s *Session) Known() tree.Tree {
	return s.known
}

// Duplicates returns the values seen at two or more key paths, ordered by
// canonical key then value.
func (s *Session) Duplicates() []Duplicate {
	var out []Duplicate
	for _, d := range s.dups {
		if len(d.Locations) < 2 {
			continue
		}
		locs := make([]string, len(d.Locations))
		copy(locs, d.Locations)
		out = append(out, Duplicate{Value: d.Value, Key: d.Key, Locations: locs})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func (s *Session) noteDuplicate(value, canonical, location string) {
	d, ok := s.dups[value]
	if !ok {
		d = &Duplicate{Value: value, Key: canonical, Locations: []string{canonical}}
		s.dups[value] = d
	}
	for _, l := range d.Locations {
		if l == location {
			return
		}
	}
	d.Locations = append(d.Locations, location)
}

// txn stages the effects of one file so they can be dropped if the file
// fails after its walk.
type txn struct {
	s          *Session
	staged     tree.Tree
	valueToKey map[string]string
	entries    map[string]string
	dups       [][3]string
}

func (s *Session) begin() *txn {
	return &txn{
		s:          s,
		staged:     tree.New(),
		valueToKey: make(map[string]string),
		entries:    make(map[string]string),
	}
}

func (t *txn) keyFor(value string) (string, bool) {
	if k, ok := t.valueToKey[value]; ok {
		return k, true
	}
	return t.s.KeyFor(value)
}

func (t *txn) duplicate(value, canonical, location string) {
	t.dups = append(t.dups, [3]string{value, canonical, location})
}

// check reports whether key could be claimed for value.
func (t *txn) check(key, value string) error {
	if err := t.s.known.Check(key, value); err != nil {
		return err
	}
	return t.staged.Check(key, value)
}

// claim reserves key for value, failing with a *tree.CollisionError when
// the key is taken by a different value or crosses a leaf/branch boundary.
func (t *txn) claim(key, value string) error {
	if err := t.check(key, value); err != nil {
		return err
	}
	if err := t.staged.Set(key, value); err != nil {
		return err
	}
	if _, exists := t.s.known.Get(key); !exists {
		t.entries[key] = value
	}
	return nil
}

func (t *txn) register(value, key string) {
	if _, ok := t.keyFor(value); !ok {
		t.valueToKey[value] = key
	}
}

func (t *txn) commit() error {
	var errs []error
	for k, v := range t.entries {
		if err := t.s.known.Set(k, v); err != nil {
			errs = append(errs, err)
			continue
		}
		t.s.entries[k] = v
	}
	for v, k := range t.valueToKey {
		if _, ok := t.s.valueToKey[v]; !ok {
			t.s.valueToKey[v] = k
		}
	}
	for _, d := range t.dups {
		t.s.noteDuplicate(d[0], d[1], d[2])
	}
	return errors.Join(errs...)
}
