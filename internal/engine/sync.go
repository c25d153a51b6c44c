package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hargabyte/i18nsync/internal/extract"
	"github.com/hargabyte/i18nsync/internal/fsutil"
	"github.com/hargabyte/i18nsync/internal/parser"
	"github.com/hargabyte/i18nsync/internal/rewrite"
	"github.com/hargabyte/i18nsync/internal/state"
	"github.com/hargabyte/i18nsync/internal/tree"
)

// File outcomes reported by Sync.
const (
	FileWritten    = "written"
	FileUnchanged  = "unchanged"
	FileWouldWrite = "would-write"
	FileFailed     = "failed"
)

// SyncOptions controls a sync run.
type SyncOptions struct {
	// Force reprocesses every managed file regardless of its hash.
	Force bool
	// Languages restricts translation to these target languages.
	Languages []string
	// DryRun computes everything and prints diffs without writing.
	DryRun bool
}

// FileReport is the outcome of one processed file.
type FileReport struct {
	Path       string         `json:"path" yaml:"path"`
	Status     string         `json:"status" yaml:"status"`
	Entries    int            `json:"entries" yaml:"entries"`
	Replaced   int            `json:"replaced" yaml:"replaced"`
	Plurals    int            `json:"plurals,omitempty" yaml:"plurals,omitempty"`
	Upgraded   int            `json:"upgraded,omitempty" yaml:"upgraded,omitempty"`
	Skipped    []extract.Skip `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Collisions []string       `json:"collisions,omitempty" yaml:"collisions,omitempty"`
	Backup     string         `json:"backup,omitempty" yaml:"backup,omitempty"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// SyncReport summarises a sync run.
type SyncReport struct {
	RunID        string              `json:"run_id" yaml:"run_id"`
	DryRun       bool                `json:"dry_run" yaml:"dry_run"`
	Tracked      int                 `json:"tracked" yaml:"tracked"`
	Files        []FileReport        `json:"files" yaml:"files"`
	NewEntries   map[string]string   `json:"new_entries" yaml:"new_entries"`
	Duplicates   []extract.Duplicate `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Translations []LanguageReport    `json:"translations,omitempty" yaml:"translations,omitempty"`
}

// Failed returns the reports of files that could not be processed.
func (r *SyncReport) Failed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Status == FileFailed {
			out = append(out, f)
		}
	}
	return out
}

// Sync extracts literals from changed string modules into the source
// locale, rewrites the modules to reference the extracted keys, translates
// the new entries into the target languages and records the new file
// hashes.
//
// A file that fails to parse or rewrite is logged and skipped; it keeps its
// previous hash so the next run retries it.
func (e *Engine) Sync(ctx context.Context, opts SyncOptions) (*SyncReport, error) {
	log, runID := e.runLogger("sync")
	report := &SyncReport{RunID: runID, DryRun: opts.DryRun, NewEntries: map[string]string{}}

	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	store, err := e.openState()
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	defer store.Close()

	previous, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	files, err := e.targets()
	if err != nil {
		return nil, err
	}
	report.Tracked = len(files)

	current, unreadable, err := state.Current(ctx, e.project.SrcDir(), files, e.workers)
	if err != nil {
		return nil, fmt.Errorf("hash files: %w", err)
	}
	for _, rel := range sortedKeys(unreadable) {
		log.Warn().Str("file", rel).Err(unreadable[rel]).Msg("cannot hash file")
	}

	selected := state.Select(current, previous, opts.Force)
	removed := state.Removed(current, previous)
	if opts.Force {
		log.Warn().Msg("--force is active, reprocessing all files")
	}
	if len(selected) == 0 {
		log.Info().Int("tracked", len(files)).Msg("no files have changed")
		if len(removed) > 0 && !opts.DryRun {
			if err := store.Save(ctx, carryOver(current, previous, unreadable)); err != nil {
				return nil, fmt.Errorf("save state: %w", err)
			}
		}
		return report, nil
	}

	source := e.cfg().SourceLanguage
	srcTree, err := e.loadLocale(source)
	if err != nil {
		return nil, err
	}

	session := extract.NewSession(srcTree, e.sessionOptions())
	for _, d := range session.Duplicates() {
		log.Warn().Str("value", d.Value).Str("key", d.Key).Strs("locations", d.Locations).
			Msg("source translations hold a value under several keys")
	}

	next := carryOver(current, previous, unreadable)
	ps := parsers{}
	defer ps.Close()

	for _, rel := range selected {
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}

		fr, hash, err := e.syncFile(ctx, log, session, ps, rel, opts.DryRun)
		if err != nil {
			fr.Status = FileFailed
			fr.Error = err.Error()
			logFileError(log, rel, err)
			restore(next, previous, rel)
		} else if hash != "" {
			next[rel] = hash
		}
		report.Files = append(report.Files, fr)
	}

	report.NewEntries = session.NewEntries()
	report.Duplicates = session.Duplicates()

	if len(report.NewEntries) > 0 {
		log.Info().Int("count", len(report.NewEntries)).Msg("new unique strings found")
		merged := srcTree.Clone()
		for _, ce := range merged.Merge(report.NewEntries) {
			log.Warn().Str("key", ce.Key).Msg(ce.Error())
		}
		if err := e.writeLocale(source, srcTree, merged, opts.DryRun); err != nil {
			return nil, err
		}
	} else {
		log.Info().Msg("no new strings found in changed files")
	}

	report.Translations = e.translateNew(ctx, log, report.NewEntries, opts)

	if opts.DryRun {
		log.Warn().Msg("dry run finished, no files were written")
	} else {
		if err := store.Save(ctx, next); err != nil {
			return nil, fmt.Errorf("save state: %w", err)
		}
		log.Info().Int("files", len(report.Files)).Msg("synchronization complete")
	}

	for _, d := range report.Duplicates {
		log.Info().Str("value", d.Value).Str("key", d.Key).Strs("locations", d.Locations).Msg("duplicate value")
	}

	return report, nil
}

// syncFile extracts one file. The returned hash is the content the file
// holds afterwards, or "" in a dry run that would change it.
func (e *Engine) syncFile(ctx context.Context, log zerolog.Logger, session *extract.Session, ps parsers, rel string, dryRun bool) (FileReport, string, error) {
	fr := FileReport{Path: rel}
	path := e.srcPath(rel)

	src, err := os.ReadFile(path)
	if err != nil {
		return fr, "", &parser.FileReadError{Path: rel, Err: err}
	}

	p, err := ps.forFile(rel)
	if err != nil {
		return fr, "", err
	}

	log.Debug().Str("file", rel).Msg("processing")
	res, err := session.Process(ctx, p, rel, src)
	if err != nil {
		return fr, "", err
	}

	fr.Entries = len(res.Entries)
	fr.Replaced = res.Replaced
	fr.Plurals = res.Plurals
	fr.Upgraded = res.Upgraded
	fr.Skipped = res.Skipped
	for _, s := range res.Skipped {
		log.Warn().Str("file", rel).Int("line", s.Line).Str("key", s.Key).Str("value", s.Value).Msg(s.Reason)
	}
	for _, ce := range res.Collisions {
		fr.Collisions = append(fr.Collisions, ce.Key)
		log.Warn().Str("file", rel).Str("key", ce.Key).Msg(ce.Error())
	}

	if !res.Changed() {
		fr.Status = FileUnchanged
		return fr, state.HashBytes(src), nil
	}

	from, err := ImportPath(path, e.project.I18nModule())
	if err != nil {
		return fr, "", err
	}
	final := []byte(Compose(string(res.Output), e.cfg().Reference.Namespace, from, e.now()))

	if dryRun {
		fr.Status = FileWouldWrite
		fmt.Fprint(e.out, UnifiedDiff(rel, string(src), string(final)))
		return fr, "", nil
	}

	backup, err := fsutil.Backup(path, e.project.Root, e.project.BackupDir(), e.now())
	if err != nil {
		return fr, "", fmt.Errorf("backup %s: %w", rel, err)
	}
	fr.Backup = backup

	if err := fsutil.WriteFileAtomic(path, final, 0o644); err != nil {
		return fr, "", fmt.Errorf("write %s: %w", rel, err)
	}
	fr.Status = FileWritten
	log.Info().Str("file", rel).Int("entries", fr.Entries).Int("replaced", fr.Replaced).Msg("file rewritten")

	return fr, state.HashBytes(final), nil
}

// writeLocale saves t for lang, or prints its diff against before in a dry
// run.
func (e *Engine) writeLocale(lang string, before, after tree.Tree, dryRun bool) error {
	if dryRun {
		old, err := before.Marshal()
		if err != nil {
			return err
		}
		updated, err := after.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprint(e.out, UnifiedDiff(e.cfg().LocaleFile(lang), string(old), string(updated)))
		return nil
	}
	return e.saveLocale(lang, after)
}

// carryOver builds the next snapshot: current hashes, with unreadable files
// keeping their previous entry.
func carryOver(current, previous state.State, unreadable map[string]error) state.State {
	next := current.Clone()
	for rel := range unreadable {
		restore(next, previous, rel)
	}
	return next
}

func restore(next, previous state.State, rel string) {
	if h, ok := previous[rel]; ok {
		next[rel] = h
		return
	}
	delete(next, rel)
}

func logFileError(log zerolog.Logger, rel string, err error) {
	var pe *parser.ParseError
	switch {
	case errors.As(err, &pe):
		log.Error().Str("file", rel).Uint32("line", pe.Line).Uint32("column", pe.Column).Msg(pe.Message)
	case errors.Is(err, rewrite.ErrOverlappingSpans):
		log.Error().Str("file", rel).Err(err).Msg("overlapping edits, file skipped")
	default:
		log.Error().Str("file", rel).Err(err).Msg("file skipped")
	}
}
