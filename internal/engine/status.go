package engine

import (
	"context"
	"fmt"

	"github.com/hargabyte/i18nsync/internal/state"
)

// StatusReport lists every tracked file with its sync state.
type StatusReport struct {
	Backend string        `json:"backend" yaml:"backend"`
	Path    string        `json:"path" yaml:"path"`
	Files   []state.Entry `json:"files" yaml:"files"`
	// History holds recent snapshots when the backend keeps them.
	History []state.Commit `json:"history,omitempty" yaml:"history,omitempty"`
}

// Counts tallies the files per status.
func (r *StatusReport) Counts() map[state.Status]int {
	out := make(map[state.Status]int)
	for _, f := range r.Files {
		out[f.Status]++
	}
	return out
}

// Status compares the managed files on disk with the last recorded
// snapshot.
func (e *Engine) Status(ctx context.Context) (*StatusReport, error) {
	files, err := e.targets()
	if err != nil {
		return nil, err
	}

	store, err := e.openState()
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	defer store.Close()

	previous, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	current, _, err := state.Current(ctx, e.project.SrcDir(), files, e.workers)
	if err != nil {
		return nil, fmt.Errorf("hash files: %w", err)
	}

	report := &StatusReport{
		Backend: e.cfg().State.Backend,
		Path:    store.Path(),
		Files:   state.Compare(current, previous),
	}
	if ds, ok := store.(*state.DoltStore); ok {
		if report.History, err = ds.History(ctx, 5); err != nil {
			return nil, err
		}
	}
	return report, nil
}
