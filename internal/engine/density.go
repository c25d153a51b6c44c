package engine

import (
	"github.com/hargabyte/i18nsync/internal/output"
	"github.com/hargabyte/i18nsync/internal/state"
)

// SyncSummary is the sparse form of a SyncReport.
type SyncSummary struct {
	RunID      string         `json:"run_id" yaml:"run_id"`
	DryRun     bool           `json:"dry_run" yaml:"dry_run"`
	Tracked    int            `json:"tracked" yaml:"tracked"`
	Files      map[string]int `json:"files" yaml:"files"`
	NewEntries int            `json:"new_entries" yaml:"new_entries"`
	Duplicates int            `json:"duplicates" yaml:"duplicates"`
}

// Densify implements output.Densifier.
func (r *SyncReport) Densify(d output.Density) interface{} {
	if !d.IncludesDetails() {
		s := SyncSummary{
			RunID:      r.RunID,
			DryRun:     r.DryRun,
			Tracked:    r.Tracked,
			Files:      map[string]int{},
			NewEntries: len(r.NewEntries),
			Duplicates: len(r.Duplicates),
		}
		for _, f := range r.Files {
			s.Files[f.Status]++
		}
		return s
	}
	if d.IncludesUnchanged() {
		return r
	}
	out := *r
	out.Files = nil
	for _, f := range r.Files {
		if f.Status != FileUnchanged {
			out.Files = append(out.Files, f)
		}
	}
	return &out
}

// Densify implements output.Densifier.
func (r *StatusReport) Densify(d output.Density) interface{} {
	if !d.IncludesDetails() {
		return map[string]interface{}{
			"backend": r.Backend,
			"path":    r.Path,
			"counts":  r.Counts(),
		}
	}
	if d.IncludesUnchanged() {
		return r
	}
	out := *r
	out.Files = nil
	for _, f := range r.Files {
		if f.Status != state.StatusSynced {
			out.Files = append(out.Files, f)
		}
	}
	return &out
}

// Densify implements output.Densifier.
func (r *CheckReport) Densify(d output.Density) interface{} {
	if d.IncludesDetails() {
		return r
	}
	untranslated := make(map[string]int, len(r.Untranslated))
	for lang, keys := range r.Untranslated {
		untranslated[lang] = len(keys)
	}
	return map[string]interface{}{
		"ok":           r.OK(),
		"out_of_sync":  len(r.OutOfSync),
		"orphaned":     len(r.Orphaned),
		"missing":      len(r.Missing),
		"untranslated": untranslated,
		"invalid":      len(r.Invalid),
	}
}
