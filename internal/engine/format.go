package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/hargabyte/i18nsync/internal/annotate"
	"github.com/hargabyte/i18nsync/internal/fsutil"
	"github.com/hargabyte/i18nsync/internal/state"
)

// FormatOptions controls Format.
type FormatOptions struct {
	DryRun bool
}

// FormatReport summarises Format.
type FormatReport struct {
	RunID   string         `json:"run_id" yaml:"run_id"`
	DryRun  bool           `json:"dry_run" yaml:"dry_run"`
	Files   []string       `json:"files" yaml:"files"`
	Failed  []string       `json:"failed,omitempty" yaml:"failed,omitempty"`
	Stats   annotate.Stats `json:"stats" yaml:"stats"`
	Locales []string       `json:"locales" yaml:"locales"`
}

// Format refreshes the value annotation after every reference in the
// managed files and re-saves every locale file with sorted keys.
//
// Files that were in sync before formatting have their new hash recorded,
// so a formatting pass alone never makes the next sync reprocess them.
func (e *Engine) Format(ctx context.Context, opts FormatOptions) (*FormatReport, error) {
	log, runID := e.runLogger("format")
	report := &FormatReport{RunID: runID, DryRun: opts.DryRun}

	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	srcTree, err := e.loadLocale(e.cfg().SourceLanguage)
	if err != nil {
		return nil, err
	}
	values := srcTree.Flatten()
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, e.cfg().LocaleFile(e.cfg().SourceLanguage))
	}

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
	next := previous.Clone()
	touched := false

	formatter := annotate.NewFormatter(e.cfg().ReferenceSyntax(), annotate.MapLookup(values))
	ps := parsers{}
	defer ps.Close()

	for _, rel := range files {
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
		path := e.srcPath(rel)

		src, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Str("file", rel).Err(err).Msg("skipping unreadable file")
			report.Failed = append(report.Failed, rel)
			continue
		}
		p, err := ps.forFile(rel)
		if err != nil {
			log.Warn().Str("file", rel).Err(err).Msg("skipping file")
			report.Failed = append(report.Failed, rel)
			continue
		}

		out, stats, err := formatter.Format(ctx, p, src)
		if err != nil {
			logFileError(log, rel, err)
			report.Failed = append(report.Failed, rel)
			continue
		}
		addStats(&report.Stats, stats)
		if string(out) == string(src) {
			continue
		}
		report.Files = append(report.Files, rel)

		if opts.DryRun {
			fmt.Fprint(e.out, UnifiedDiff(rel, string(src), string(out)))
			continue
		}
		if err := fsutil.WriteFileAtomic(path, out, 0o644); err != nil {
			log.Error().Str("file", rel).Err(err).Msg("cannot write file")
			report.Failed = append(report.Failed, rel)
			continue
		}
		log.Info().Str("file", rel).Msg("comments formatted")

		if previous[rel] == state.HashBytes(src) {
			next[rel] = state.HashBytes(out)
			touched = true
		}
	}

	log.Info().Msg("sorting keys in all translation files")
	for _, lang := range e.cfg().Languages {
		path := e.project.LocalePath(lang)
		if !fsutil.Exists(path) {
			continue
		}
		t, err := e.loadLocale(lang)
		if err != nil {
			log.Error().Str("lang", lang).Err(err).Msg("cannot load translations")
			continue
		}
		report.Locales = append(report.Locales, lang)
		if opts.DryRun {
			continue
		}
		if err := e.saveLocale(lang, t); err != nil {
			return nil, err
		}
	}

	if touched {
		if err := store.Save(ctx, next); err != nil {
			return nil, fmt.Errorf("save state: %w", err)
		}
	}

	log.Info().Int("files", len(report.Files)).Msg("formatting complete")
	return report, nil
}

func addStats(dst *annotate.Stats, s annotate.Stats) {
	dst.Inserted += s.Inserted
	dst.Updated += s.Updated
	dst.Unchanged += s.Unchanged
	dst.Stripped += s.Stripped
	dst.Blocked += s.Blocked
}
