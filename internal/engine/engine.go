// Package engine runs the i18n workflow over a project: extraction and
// rewriting of string modules, locale file maintenance, annotation,
// linting and machine translation.
//
// Every mutating operation holds the project lock for its duration. Files
// are always processed in sorted order so that runs are reproducible.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/hargabyte/i18nsync/internal/config"
	"github.com/hargabyte/i18nsync/internal/discover"
	"github.com/hargabyte/i18nsync/internal/extract"
	"github.com/hargabyte/i18nsync/internal/parser"
	"github.com/hargabyte/i18nsync/internal/state"
	"github.com/hargabyte/i18nsync/internal/translate"
	"github.com/hargabyte/i18nsync/internal/tree"
)

// ErrLocked is returned when another process holds the project lock.
var ErrLocked = errors.New("another i18nsync run holds the project lock")

// ErrEmptySource is returned by Format when the source locale has no keys.
var ErrEmptySource = errors.New("source translation file is empty or missing")

// ErrKeyNotFound is returned by Lookup for a key no locale holds.
var ErrKeyNotFound = errors.New("key not found")

// Engine runs workflow operations for one project.
type Engine struct {
	project    *config.Project
	log        zerolog.Logger
	confirm    extract.Confirm
	translator translate.Translator
	out        io.Writer
	now        func() time.Time
	workers    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithConfirm sets how placeholder violations are resolved.
func WithConfirm(c extract.Confirm) Option {
	return func(e *Engine) { e.confirm = c }
}

// WithTranslator replaces the provider configured for the project.
func WithTranslator(t translate.Translator) Option {
	return func(e *Engine) { e.translator = t }
}

// WithOutput sets where dry-run diffs are printed.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithClock sets the time source used for headers and backups.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithWorkers bounds the hashing pool.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New returns an engine for p.
func New(p *config.Project, opts ...Option) *Engine {
	e := &Engine{
		project: p,
		log:     zerolog.Nop(),
		confirm: extract.Decline,
		out:     io.Discard,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Project returns the project the engine works on.
func (e *Engine) Project() *config.Project {
	return e.project
}

func (e *Engine) cfg() *config.Config {
	return e.project.Config
}

// runLogger tags every line of one operation with a fresh run id.
func (e *Engine) runLogger(op string) (zerolog.Logger, string) {
	id := xid.New().String()
	return e.log.With().Str("run", id).Str("op", op).Logger(), id
}

// lock acquires the project lock without waiting.
func (e *Engine) lock() (func(), error) {
	if err := os.MkdirAll(e.project.ConfigDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	fl := flock.New(e.project.LockPath())
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return func() { _ = fl.Unlock() }, nil
}

// targets lists the managed files relative to the source root.
func (e *Engine) targets() ([]string, error) {
	res, err := discover.Find(e.project.SrcDir(), discover.Options{
		FileNames:   e.cfg().Targets.FileNames,
		ExcludeDirs: e.cfg().Targets.ExcludeDirs,
		AutoExclude: true,
	})
	if err != nil {
		return nil, err
	}
	return res.Files, nil
}

func (e *Engine) srcPath(rel string) string {
	return filepath.Join(e.project.SrcDir(), filepath.FromSlash(rel))
}

func (e *Engine) openState() (state.Store, error) {
	return state.Open(state.Backend(e.cfg().State.Backend), e.project.StatePath())
}

func (e *Engine) loadLocale(lang string) (tree.Tree, error) {
	t, err := tree.Load(e.project.LocalePath(lang))
	if err != nil {
		return nil, fmt.Errorf("load %s translations: %w", lang, err)
	}
	return t, nil
}

func (e *Engine) saveLocale(lang string, t tree.Tree) error {
	path := e.project.LocalePath(lang)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create locale directory: %w", err)
	}
	if err := tree.Save(path, t); err != nil {
		return fmt.Errorf("save %s translations: %w", lang, err)
	}
	return nil
}

func (e *Engine) sessionOptions() extract.Options {
	return extract.Options{
		Rules:     e.cfg().Rules(),
		Reference: e.cfg().ReferenceSyntax(),
		Confirm:   e.confirm,
	}
}

// translatorFor returns the configured translator, building a DeepL client
// from the environment when none was injected.
func (e *Engine) translatorFor() (translate.Translator, error) {
	if e.translator != nil {
		return e.translator, nil
	}
	tc := e.cfg().Translate
	return translate.NewDeepL(translate.Options{
		APIKey:     e.project.Env.DeepLAPIKey,
		Endpoint:   tc.Endpoint,
		SourceLang: e.cfg().SourceLanguage,
		BatchSize:  tc.BatchSize,
		MaxRetries: tc.MaxRetries,
		Timeout:    tc.Timeout,
		OnRetry: func(err error, wait time.Duration) {
			e.log.Warn().Err(err).Dur("wait", wait).Msg("translation request failed, retrying")
		},
	})
}

// parsers caches one parser per language for a run.
type parsers map[parser.Language]*parser.Parser

func (ps parsers) forFile(path string) (*parser.Parser, error) {
	lang := parser.LanguageFromExtension(strings.ToLower(filepath.Ext(path)))
	if p, ok := ps[lang]; ok {
		return p, nil
	}
	p, err := parser.NewParserForFile(path)
	if err != nil {
		return nil, err
	}
	ps[lang] = p
	return p, nil
}

func (ps parsers) Close() {
	for _, p := range ps {
		p.Close()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return nil
}
