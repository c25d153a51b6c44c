package engine

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/hargabyte/i18nsync/internal/annotate"
	"github.com/hargabyte/i18nsync/internal/fsutil"
	"github.com/hargabyte/i18nsync/internal/keypath"
	"github.com/hargabyte/i18nsync/internal/state"
	"github.com/hargabyte/i18nsync/internal/tree"
)

// CheckReport is the linter outcome.
type CheckReport struct {
	RunID     string   `json:"run_id" yaml:"run_id"`
	OutOfSync []string `json:"out_of_sync" yaml:"out_of_sync"`
	Orphaned  []string `json:"orphaned" yaml:"orphaned"`
	// Missing keys are referenced in code but absent from the source locale.
	Missing []string `json:"missing" yaml:"missing"`
	// Untranslated maps a target language to the source keys it lacks.
	Untranslated map[string][]string `json:"untranslated" yaml:"untranslated"`
	// Invalid maps a language to the reason its file failed to load.
	Invalid map[string]string `json:"invalid,omitempty" yaml:"invalid,omitempty"`
	// Messages counts the messages each locale file loaded.
	Messages map[string]int `json:"messages" yaml:"messages"`
	// Unparsed lists managed files that could not be scanned for keys.
	Unparsed []string `json:"unparsed,omitempty" yaml:"unparsed,omitempty"`
}

// OK reports whether no key used in code is missing from the source
// locale.
func (r *CheckReport) OK() bool {
	return len(r.Missing) == 0
}

// Check lints the project: out-of-sync files, orphaned and missing keys,
// untranslated keys per target language and locale files that fail to load
// into a message bundle.
func (e *Engine) Check(ctx context.Context) (*CheckReport, error) {
	log, runID := e.runLogger("check")
	report := &CheckReport{
		RunID:        runID,
		OutOfSync:    []string{},
		Orphaned:     []string{},
		Missing:      []string{},
		Untranslated: map[string][]string{},
		Invalid:      map[string]string{},
		Messages:     map[string]int{},
	}

	files, err := e.targets()
	if err != nil {
		return nil, err
	}

	// 1. File synchronization state
	store, err := e.openState()
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	previous, err := store.Load(ctx)
	store.Close()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	current, _, err := state.Current(ctx, e.project.SrcDir(), files, e.workers)
	if err != nil {
		return nil, fmt.Errorf("hash files: %w", err)
	}
	report.OutOfSync = append(report.OutOfSync, state.Diff(current, previous)...)

	// 2. Orphaned and missing keys
	srcTree, err := e.loadLocale(e.cfg().SourceLanguage)
	if err != nil {
		return nil, err
	}
	source := srcTree.Flatten()

	used, unparsed := e.usedKeys(ctx, files)
	report.Unparsed = unparsed
	report.Orphaned = append(report.Orphaned, orphanedKeys(source, used)...)
	report.Missing = append(report.Missing, missingKeys(source, used)...)

	// 3. Missing translations in target languages
	for _, lang := range e.cfg().TargetLanguages() {
		t, err := e.loadLocale(lang)
		if err != nil {
			report.Invalid[lang] = err.Error()
			continue
		}
		target := t.Flatten()
		var lacking []string
		for k := range source {
			if _, ok := target[k]; !ok {
				lacking = append(lacking, k)
			}
		}
		if len(lacking) > 0 {
			sort.Strings(lacking)
			report.Untranslated[lang] = lacking
		}
	}

	// 4. Every locale file must load into a message bundle
	for lang, n := range e.validateLocales() {
		if n.err != nil {
			report.Invalid[lang] = n.err.Error()
			continue
		}
		report.Messages[lang] = n.messages
	}

	log.Debug().
		Int("out_of_sync", len(report.OutOfSync)).
		Int("orphaned", len(report.Orphaned)).
		Int("missing", len(report.Missing)).
		Msg("check complete")
	return report, nil
}

// usedKeys collects every key referenced by the managed files. Plural
// references also mark their _one and _other forms.
func (e *Engine) usedKeys(ctx context.Context, files []string) (map[string]bool, []string) {
	ref := e.cfg().ReferenceSyntax()
	used := make(map[string]bool)
	var unparsed []string

	ps := parsers{}
	defer ps.Close()

	for _, rel := range files {
		src, err := os.ReadFile(e.srcPath(rel))
		if err != nil {
			unparsed = append(unparsed, rel)
			continue
		}
		p, err := ps.forFile(rel)
		if err != nil {
			unparsed = append(unparsed, rel)
			continue
		}
		keys, err := annotate.Keys(ctx, p, src, ref)
		if err != nil {
			// Keys found before the syntax error still count.
			unparsed = append(unparsed, rel)
		}
		for _, k := range keys {
			used[k] = true
		}
	}
	return used, unparsed
}

// orphanedKeys returns source keys no reference uses.
func orphanedKeys(source map[string]string, used map[string]bool) []string {
	var out []string
	for k := range source {
		if used[k] || used[pluralBase(k)] {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// missingKeys returns used keys the source lacks, counting a plural
// reference as present when both forms exist.
func missingKeys(source map[string]string, used map[string]bool) []string {
	var out []string
	for k := range used {
		if _, ok := source[k]; ok {
			continue
		}
		_, one := source[k+"_one"]
		_, other := source[k+"_other"]
		if one && other {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// pluralBase returns P for P_one or P_other, and "" otherwise.
func pluralBase(key string) string {
	for _, suffix := range []string{"_one", "_other"} {
		if n := len(key) - len(suffix); n > 0 && key[n:] == suffix {
			return key[:n]
		}
	}
	return ""
}

type localeLoad struct {
	messages int
	err      error
}

// validateLocales loads every existing locale file into a go-i18n bundle.
// Keys are added flattened so nested segments named like go-i18n's reserved
// fields (id, other, ...) stay plain text.
func (e *Engine) validateLocales() map[string]localeLoad {
	tag, err := language.Parse(e.cfg().SourceLanguage)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)

	out := make(map[string]localeLoad)
	for _, lang := range e.cfg().Languages {
		path := e.project.LocalePath(lang)
		if !fsutil.Exists(path) {
			continue
		}
		n, err := loadMessages(bundle, lang, path)
		out[lang] = localeLoad{messages: n, err: err}
	}
	return out
}

func loadMessages(bundle *i18n.Bundle, lang, path string) (int, error) {
	langTag, err := language.Parse(lang)
	if err != nil {
		return 0, fmt.Errorf("language %q: %w", lang, err)
	}
	t, err := tree.Load(path)
	if err != nil {
		return 0, err
	}
	if bad := nonTextLeaves(t, ""); len(bad) > 0 {
		sort.Strings(bad)
		return 0, fmt.Errorf("non-text values at %v", bad)
	}

	flat := t.Flatten()
	msgs := make([]*i18n.Message, 0, len(flat))
	for _, k := range sortedKeys(flat) {
		msgs = append(msgs, &i18n.Message{ID: k, Other: flat[k]})
	}
	if err := bundle.AddMessages(langTag, msgs...); err != nil {
		return 0, err
	}
	return len(msgs), nil
}

// nonTextLeaves lists keys whose value is neither text nor a nested table.
func nonTextLeaves(t tree.Tree, prefix string) []string {
	var out []string
	for k, v := range t {
		key := k
		if prefix != "" {
			key = keypath.Join(prefix, k)
		}
		switch val := v.(type) {
		case string:
		case tree.Tree:
			out = append(out, nonTextLeaves(val, key)...)
		case map[string]any:
			out = append(out, nonTextLeaves(tree.Tree(val), key)...)
		default:
			out = append(out, key)
		}
	}
	return out
}
