package engine

import (
	"context"
	"fmt"

	"github.com/hargabyte/i18nsync/internal/fsutil"
)

// CleanOptions controls Clean.
type CleanOptions struct {
	DryRun bool
	// Confirm is asked before anything is removed. Nil proceeds.
	Confirm func(orphaned []string) bool
}

// CleanReport summarises Clean.
type CleanReport struct {
	RunID     string         `json:"run_id" yaml:"run_id"`
	DryRun    bool           `json:"dry_run" yaml:"dry_run"`
	Orphaned  []string       `json:"orphaned" yaml:"orphaned"`
	Removed   map[string]int `json:"removed" yaml:"removed"`
	Cancelled bool           `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
}

// Clean removes keys that no managed file references from every locale
// file.
func (e *Engine) Clean(ctx context.Context, opts CleanOptions) (*CleanReport, error) {
	log, runID := e.runLogger("clean")
	report := &CleanReport{RunID: runID, DryRun: opts.DryRun, Removed: map[string]int{}}

	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	files, err := e.targets()
	if err != nil {
		return nil, err
	}
	used, unparsed := e.usedKeys(ctx, files)
	if len(unparsed) > 0 {
		// A file we cannot read may reference any key.
		return nil, fmt.Errorf("cannot scan %d file(s) for keys, first %s: refusing to clean", len(unparsed), unparsed[0])
	}
	log.Info().Int("files", len(files)).Int("keys", len(used)).Msg("active keys found")

	srcTree, err := e.loadLocale(e.cfg().SourceLanguage)
	if err != nil {
		return nil, err
	}
	report.Orphaned = orphanedKeys(srcTree.Flatten(), used)
	if len(report.Orphaned) == 0 {
		log.Info().Msg("no orphaned keys found")
		return report, nil
	}

	if opts.Confirm != nil && !opts.Confirm(report.Orphaned) {
		log.Info().Msg("clean cancelled")
		report.Cancelled = true
		return report, nil
	}

	for _, lang := range e.cfg().Languages {
		if !fsutil.Exists(e.project.LocalePath(lang)) {
			continue
		}
		t, err := e.loadLocale(lang)
		if err != nil {
			return nil, err
		}
		updated := t.Clone()
		n := 0
		for _, k := range report.Orphaned {
			if updated.Delete(k) {
				n++
			}
		}
		if n == 0 {
			continue
		}
		report.Removed[lang] = n
		log.Info().Str("lang", lang).Int("removed", n).Msg("orphaned keys removed")
		if err := e.writeLocale(lang, t, updated, opts.DryRun); err != nil {
			return nil, err
		}
	}

	if opts.DryRun {
		log.Warn().Msg("dry run finished, no files were modified")
	}
	return report, nil
}
