// Package state records a content hash for every managed file so that a
// sync only reprocesses files that changed since the previous run.
//
// A snapshot maps source-root-relative paths (slash separated) to hex
// SHA-256 digests. Snapshots are replaced as a whole by Store.Save; there is
// no per-entry update.
package state

import (
	"sort"
)

// State is one snapshot: relative path → content hash.
type State map[string]string

// Paths returns the snapshot's paths in sorted order.
func (s State) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Diff returns the paths of current whose hash differs from previous,
// including paths previous has never seen. Paths only in previous are not
// reported. The result is sorted.
func Diff(current, previous State) []string {
	var changed []string
	for path, hash := range current {
		if prev, ok := previous[path]; !ok || prev != hash {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

// Select returns the paths to reprocess: every current path when force is
// set, otherwise Diff(current, previous).
func Select(current, previous State, force bool) []string {
	if force {
		return current.Paths()
	}
	return Diff(current, previous)
}

// Removed returns the paths of previous that are absent from current.
func Removed(current, previous State) []string {
	var gone []string
	for path := range previous {
		if _, ok := current[path]; !ok {
			gone = append(gone, path)
		}
	}
	sort.Strings(gone)
	return gone
}

// Status classifies one tracked path.
type Status string

const (
	// StatusSynced means the hash matches the previous snapshot.
	StatusSynced Status = "synced"
	// StatusChanged means the content changed since the previous snapshot.
	StatusChanged Status = "changed"
	// StatusNew means the previous snapshot does not know the path.
	StatusNew Status = "new"
	// StatusRemoved means the path is gone from disk.
	StatusRemoved Status = "removed"
)

// Entry is one row of a status report.
type Entry struct {
	Path   string `json:"path" yaml:"path"`
	Status Status `json:"status" yaml:"status"`
	Hash   string `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// Compare reports the status of every path in current or previous, sorted
// by path.
func Compare(current, previous State) []Entry {
	var out []Entry
	for _, p := range current.Paths() {
		e := Entry{Path: p, Hash: current[p], Status: StatusSynced}
		if prev, ok := previous[p]; !ok {
			e.Status = StatusNew
		} else if prev != current[p] {
			e.Status = StatusChanged
		}
		out = append(out, e)
	}
	for _, p := range Removed(current, previous) {
		out = append(out, Entry{Path: p, Status: StatusRemoved})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
