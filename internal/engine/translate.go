package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hargabyte/i18nsync/internal/translate"
)

// maxParallelLanguages bounds concurrent provider conversations.
const maxParallelLanguages = 4

// LanguageReport is the outcome of translating into one language.
type LanguageReport struct {
	Language   string `json:"language" yaml:"language"`
	Translated int    `json:"translated" yaml:"translated"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TranslateOptions controls TranslateMissing.
type TranslateOptions struct {
	Languages []string
	DryRun    bool
}

// TranslateReport summarises TranslateMissing.
type TranslateReport struct {
	RunID     string           `json:"run_id" yaml:"run_id"`
	DryRun    bool             `json:"dry_run" yaml:"dry_run"`
	Languages []LanguageReport `json:"languages" yaml:"languages"`
}

// pendingFunc picks the source entries to translate given a target's flat
// translations.
type pendingFunc func(target map[string]string) map[string]string

// TranslateMissing fills every key present in the source locale but
// missing from a target locale.
func (e *Engine) TranslateMissing(ctx context.Context, opts TranslateOptions) (*TranslateReport, error) {
	log, runID := e.runLogger("translate")
	report := &TranslateReport{RunID: runID, DryRun: opts.DryRun}

	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	srcTree, err := e.loadLocale(e.cfg().SourceLanguage)
	if err != nil {
		return nil, err
	}
	source := srcTree.Flatten()

	langs := e.selectLanguages(log, opts.Languages)
	if len(langs) == 0 {
		log.Info().Msg("no target languages configured")
		return report, nil
	}

	tr, err := e.translatorFor()
	if err != nil {
		return nil, err
	}

	pending := func(target map[string]string) map[string]string {
		out := make(map[string]string)
		for _, k := range translate.Missing(source, target) {
			out[k] = source[k]
		}
		return out
	}
	report.Languages = e.fillLanguages(ctx, log, tr, langs, pending, opts.DryRun)
	return report, nil
}

// translateNew translates the entries a sync discovered. A missing
// translator only skips this step.
func (e *Engine) translateNew(ctx context.Context, log zerolog.Logger, entries map[string]string, opts SyncOptions) []LanguageReport {
	if len(entries) == 0 {
		return nil
	}
	langs := e.selectLanguages(log, opts.Languages)
	if len(langs) == 0 {
		return nil
	}

	tr, err := e.translatorFor()
	if err != nil {
		log.Error().Err(err).Msg("translation step skipped")
		return nil
	}

	pending := func(map[string]string) map[string]string { return entries }
	return e.fillLanguages(ctx, log, tr, langs, pending, opts.DryRun)
}

// selectLanguages returns the configured target languages, restricted to
// requested when it is non-empty.
func (e *Engine) selectLanguages(log zerolog.Logger, requested []string) []string {
	targets := e.cfg().TargetLanguages()
	if len(requested) == 0 {
		return targets
	}

	want := make(map[string]bool, len(requested))
	for _, r := range requested {
		r = strings.ToLower(strings.TrimSpace(r))
		want[r] = true
	}

	var out []string
	for _, t := range targets {
		if want[t] {
			out = append(out, t)
			delete(want, t)
		}
	}
	for _, r := range sortedKeys(want) {
		log.Warn().Str("lang", r).Msg("requested language is not a configured target, ignored")
	}
	return out
}

// fillLanguages translates into every language concurrently. A failing
// language is reported and leaves its file untouched; the others proceed.
func (e *Engine) fillLanguages(ctx context.Context, log zerolog.Logger, tr translate.Translator, langs []string, pending pendingFunc, dryRun bool) []LanguageReport {
	reports := make([]LanguageReport, len(langs))
	var outMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLanguages)
	for i, lang := range langs {
		i, lang := i, lang
		g.Go(func() error {
			reports[i] = e.fillLanguage(gctx, log.With().Str("lang", lang).Logger(), tr, lang, pending, dryRun, &outMu)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Language < reports[j].Language })
	return reports
}

func (e *Engine) fillLanguage(ctx context.Context, log zerolog.Logger, tr translate.Translator, lang string, pending pendingFunc, dryRun bool, outMu *sync.Mutex) LanguageReport {
	rep := LanguageReport{Language: lang}

	target, err := e.loadLocale(lang)
	if err != nil {
		rep.Error = err.Error()
		log.Error().Err(err).Msg("cannot load translations")
		return rep
	}

	src := pending(target.Flatten())
	keys := sortedKeys(src)
	if len(keys) == 0 {
		log.Info().Msg("already up to date")
		return rep
	}

	log.Info().Int("count", len(keys)).Msg("translating")
	translated, err := translate.Fill(ctx, tr, src, keys, lang)
	if err != nil {
		rep.Error = err.Error()
		log.Error().Err(err).Msg("translation failed, file not saved")
		return rep
	}

	updated := target.Clone()
	for _, k := range keys {
		updated.Delete(k)
		if err := updated.Set(k, translated[k]); err != nil {
			log.Warn().Str("key", k).Err(err).Msg("translation not stored")
			continue
		}
		rep.Translated++
	}

	if dryRun {
		outMu.Lock()
		defer outMu.Unlock()
	}
	if err := e.writeLocale(lang, target, updated, dryRun); err != nil {
		rep.Error = fmt.Sprintf("save: %v", err)
		log.Error().Err(err).Msg("cannot save translations")
	}
	return rep
}
