package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hargabyte/i18nsync/internal/config"
	"github.com/hargabyte/i18nsync/internal/state"
	"github.com/hargabyte/i18nsync/internal/tree"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// prefixTranslator "translates" by prefixing the target language.
type prefixTranslator struct {
	mu    sync.Mutex
	calls map[string][]string
	fail  map[string]error
}

func (p *prefixTranslator) Translate(_ context.Context, texts []string, target string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail[target]; err != nil {
		return nil, err
	}
	if p.calls == nil {
		p.calls = map[string][]string{}
	}
	p.calls[target] = append(p.calls[target], texts...)
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = target + ":" + t
	}
	return out, nil
}

type fixture struct {
	root string
	eng  *Engine
	tr   *prefixTranslator
	out  *bytes.Buffer
}

func newFixture(t *testing.T, langs ...string) *fixture {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Languages = append([]string{"en"}, langs...)
	_, err := config.Save(root, cfg)
	require.NoError(t, err)

	f := &fixture{root: root, tr: &prefixTranslator{}, out: &bytes.Buffer{}}
	f.eng = New(&config.Project{Root: root, Config: cfg},
		WithTranslator(f.tr),
		WithClock(func() time.Time { return fixedNow }),
		WithOutput(f.out),
		WithWorkers(2),
	)
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) locale(t *testing.T, lang string) map[string]string {
	t.Helper()
	tr, err := tree.Load(f.eng.Project().LocalePath(lang))
	require.NoError(t, err)
	return tr.Flatten()
}

const homeModule = `export const scriptLines = {
  title: 'Hello',
  greeting: 'Hi {{name}}',
};
`

func TestSyncExtractsAndRewrites(t *testing.T) {
	f := newFixture(t, "fr")
	f.write(t, "src/features/home/script_lines.js", homeModule)

	report, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"home.title": "Hello", "home.greeting": "Hi {{name}}"}, report.NewEntries)
	require.Len(t, report.Files, 1)
	assert.Equal(t, FileWritten, report.Files[0].Status)
	assert.Equal(t, 2, report.Files[0].Replaced)

	got := f.read(t, "src/features/home/script_lines.js")
	assert.True(t, strings.HasPrefix(got, "/**\n * @auto-managed\n"), got)
	assert.Contains(t, got, " * @last-synced 2024-01-02 03:04:05 UTC\n */\n\nimport i18n from '../../i18n';\n\nexport const scriptLines")
	assert.Contains(t, got, "title: i18n.t('home.title'),")
	assert.Contains(t, got, "greeting: i18n.t('home.greeting'),")

	assert.Equal(t, report.NewEntries, f.locale(t, "en"))
	assert.Equal(t, map[string]string{"home.title": "fr:Hello", "home.greeting": "fr:Hi {{name}}"}, f.locale(t, "fr"))
	require.Len(t, report.Translations, 1)
	assert.Equal(t, LanguageReport{Language: "fr", Translated: 2}, report.Translations[0])

	backup := filepath.Join(f.root, ".i18nsync", "backups", "src", "features", "home", "script_lines.js.20240102_030405.bak")
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, homeModule, string(data))

	// The state holds the rewritten content, so nothing is selected next.
	again, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	assert.Empty(t, again.Files)
}

func TestSyncForceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/features/home/script_lines.js", homeModule)

	_, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	first := f.read(t, "src/features/home/script_lines.js")

	report, err := f.eng.Sync(context.Background(), SyncOptions{Force: true})
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, FileUnchanged, report.Files[0].Status)
	assert.Empty(t, report.NewEntries)
	assert.Equal(t, first, f.read(t, "src/features/home/script_lines.js"))
}

func TestSyncDeduplicatesAcrossFiles(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/features/home/script_lines.js", homeModule)
	f.write(t, "src/features/cart/script_lines.js", "export const scriptLines = { hello: 'Hello', buy: 'Buy' };\n")

	report, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	// cart sorts first and owns the shared value.
	assert.Equal(t, map[string]string{
		"cart.hello":    "Hello",
		"cart.buy":      "Buy",
		"home.greeting": "Hi {{name}}",
	}, report.NewEntries)
	assert.Contains(t, f.read(t, "src/features/home/script_lines.js"), "title: i18n.t('cart.hello'),")

	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, "Hello", report.Duplicates[0].Value)
	assert.Equal(t, []string{"cart.hello", "home.title"}, report.Duplicates[0].Locations)
}

func TestSyncSkipsBrokenFiles(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/features/home/script_lines.js", homeModule)
	f.write(t, "src/features/broken/script_lines.js", "export const scriptLines = { a: 'x' \n")

	report, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "features/broken/script_lines.js", failed[0].Path)
	assert.NotEmpty(t, failed[0].Error)
	assert.Equal(t, "export const scriptLines = { a: 'x' \n", f.read(t, "src/features/broken/script_lines.js"))
	assert.NotContains(t, f.locale(t, "en"), "broken.a")

	// The broken file is retried; the good one is not.
	again, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	require.Len(t, again.Files, 1)
	assert.Equal(t, "features/broken/script_lines.js", again.Files[0].Path)
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	f := newFixture(t, "fr")
	f.write(t, "src/features/home/script_lines.js", homeModule)

	report, err := f.eng.Sync(context.Background(), SyncOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, FileWouldWrite, report.Files[0].Status)

	assert.Equal(t, homeModule, f.read(t, "src/features/home/script_lines.js"))
	assert.NoFileExists(t, f.eng.Project().LocalePath("en"))
	assert.NoFileExists(t, f.eng.Project().LocalePath("fr"))
	assert.NoFileExists(t, f.eng.Project().StatePath())

	diff := f.out.String()
	assert.Contains(t, diff, "+++ b/features/home/script_lines.js")
	assert.Contains(t, diff, "+  title: i18n.t('home.title'),")
	assert.Contains(t, diff, "-  title: 'Hello',")
}

func TestSyncTranslationFailureKeepsGoing(t *testing.T) {
	f := newFixture(t, "de", "fr")
	f.tr.fail = map[string]error{"de": errors.New("quota")}
	f.write(t, "src/features/home/script_lines.js", homeModule)

	report, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	require.Len(t, report.Translations, 2)
	assert.Equal(t, "de", report.Translations[0].Language)
	assert.Contains(t, report.Translations[0].Error, "quota")
	assert.Equal(t, 2, report.Translations[1].Translated)

	assert.NoFileExists(t, f.eng.Project().LocalePath("de"))
	assert.Len(t, f.locale(t, "fr"), 2)

	st, err := state.OpenJSON(f.eng.Project().StatePath()).Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, st, "features/home/script_lines.js")
}

func TestSyncLanguageFilter(t *testing.T) {
	f := newFixture(t, "de", "fr")
	f.write(t, "src/features/home/script_lines.js", homeModule)

	report, err := f.eng.Sync(context.Background(), SyncOptions{Languages: []string{"FR", "es"}})
	require.NoError(t, err)

	require.Len(t, report.Translations, 1)
	assert.Equal(t, "fr", report.Translations[0].Language)
	assert.NotContains(t, f.tr.calls, "de")
}

func TestSyncLocked(t *testing.T) {
	f := newFixture(t)
	fl := flock.New(f.eng.Project().LockPath())
	locked, err := fl.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer fl.Unlock()

	_, err = f.eng.Sync(context.Background(), SyncOptions{})
	assert.ErrorIs(t, err, ErrLocked)
}

func TestFormatAnnotates(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/features/home/script_lines.js", homeModule)

	_, err := f.eng.Format(context.Background(), FormatOptions{})
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	report, err := f.eng.Format(context.Background(), FormatOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"features/home/script_lines.js"}, report.Files)
	assert.Equal(t, 2, report.Stats.Inserted)

	got := f.read(t, "src/features/home/script_lines.js")
	assert.Contains(t, got, "title: i18n.t('home.title'), // \"Hello\"\n")
	assert.Contains(t, got, "greeting: i18n.t('home.greeting'), // \"Hi {{name}}\"\n")

	// Formatting keeps the file in sync.
	status, err := f.eng.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, status.Files, 1)
	assert.Equal(t, state.StatusSynced, status.Files[0].Status)

	again, err := f.eng.Format(context.Background(), FormatOptions{})
	require.NoError(t, err)
	assert.Empty(t, again.Files)
	assert.Equal(t, 2, again.Stats.Unchanged)
}

func TestCheckAndClean(t *testing.T) {
	f := newFixture(t, "fr")
	f.write(t, "src/features/home/script_lines.js", homeModule)
	_, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	report, err := f.eng.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, report.OutOfSync)
	assert.Empty(t, report.Orphaned)
	assert.Empty(t, report.Untranslated)
	assert.Equal(t, map[string]int{"en": 2, "fr": 2}, report.Messages)

	// An unused key, a key the code needs and an out-of-sync edit.
	en := tree.New()
	require.NoError(t, en.Set("home.title", "Hello"))
	require.NoError(t, en.Set("home.stale", "Old"))
	require.NoError(t, tree.Save(f.eng.Project().LocalePath("en"), en))
	f.write(t, "src/features/home/script_lines.js",
		f.read(t, "src/features/home/script_lines.js")+"export const extra = i18n.t('home.count');\n")

	report, err = f.eng.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, []string{"features/home/script_lines.js"}, report.OutOfSync)
	assert.Equal(t, []string{"home.stale"}, report.Orphaned)
	assert.Equal(t, []string{"home.count", "home.greeting"}, report.Missing)
	assert.Equal(t, map[string][]string{"fr": {"home.stale"}}, report.Untranslated)

	var asked []string
	cleaned, err := f.eng.Clean(context.Background(), CleanOptions{
		Confirm: func(keys []string) bool { asked = keys; return true },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"home.stale"}, asked)
	assert.Equal(t, map[string]int{"en": 1}, cleaned.Removed)
	assert.Equal(t, map[string]string{"home.title": "Hello"}, f.locale(t, "en"))
}

func TestCheckPluralReferences(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/features/cart/script_lines.js",
		"export const scriptLines = { items: { one: '{{count}} item', other: '{{count}} items' } };\n")
	_, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"cart.items_one":   "{{count}} item",
		"cart.items_other": "{{count}} items",
	}, f.locale(t, "en"))

	report, err := f.eng.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Orphaned)
}

func TestCheckReservedSegments(t *testing.T) {
	f := newFixture(t, "fr")
	f.write(t, "src/features/shop/script_lines.js", `export const scriptLines = {
  product: { id: 'Product ID', description: 'About', name: 'Name' },
  forms: { other: 'Other', title: 'T' },
};
`)
	_, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Other", f.locale(t, "en")["shop.forms.other"])

	report, err := f.eng.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Invalid)
	assert.Equal(t, map[string]int{"en": 5, "fr": 5}, report.Messages)

	// A number where text belongs is still rejected.
	require.NoError(t, os.WriteFile(f.eng.Project().LocalePath("fr"),
		[]byte(`{"shop": {"forms": {"other": 3}}}`), 0o644))
	report, err = f.eng.Check(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report.Invalid["fr"], "shop.forms.other")
	assert.NotContains(t, report.Messages, "fr")
}

func TestCleanCancelled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/features/home/script_lines.js", homeModule)
	_, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	en := tree.New()
	require.NoError(t, en.Set("home.title", "Hello"))
	require.NoError(t, en.Set("home.greeting", "Hi {{name}}"))
	require.NoError(t, en.Set("old.key", "Old"))
	require.NoError(t, tree.Save(f.eng.Project().LocalePath("en"), en))

	report, err := f.eng.Clean(context.Background(), CleanOptions{
		Confirm: func([]string) bool { return false },
	})
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Contains(t, f.locale(t, "en"), "old.key")
}

func TestTranslateMissing(t *testing.T) {
	f := newFixture(t, "fr")
	en := tree.New()
	require.NoError(t, en.Set("a.one", "One"))
	require.NoError(t, en.Set("a.two", "Two"))
	require.NoError(t, tree.Save(f.eng.Project().LocalePath("en"), en))

	fr := tree.New()
	require.NoError(t, fr.Set("a.one", "Un"))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.eng.Project().LocalePath("fr")), 0o755))
	require.NoError(t, tree.Save(f.eng.Project().LocalePath("fr"), fr))

	report, err := f.eng.TranslateMissing(context.Background(), TranslateOptions{})
	require.NoError(t, err)
	assert.Equal(t, []LanguageReport{{Language: "fr", Translated: 1}}, report.Languages)
	assert.Equal(t, map[string]string{"a.one": "Un", "a.two": "fr:Two"}, f.locale(t, "fr"))
	assert.Equal(t, []string{"Two"}, f.tr.calls["fr"])
}

func TestInit(t *testing.T) {
	root := t.TempDir()

	res, err := Init(root, "DE")
	require.NoError(t, err)
	assert.Equal(t, "de", res.Language)
	assert.False(t, res.AlreadyPresent)
	assert.True(t, res.CreatedLocale)

	data, err := os.ReadFile(filepath.Join(root, "src", "locales", "de", "translation.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))

	cfg, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "de"}, cfg.Languages)

	res, err = Init(filepath.Join(root, "src"), "de")
	require.NoError(t, err)
	assert.True(t, res.AlreadyPresent)
	assert.False(t, res.CreatedLocale)

	_, err = Init(root, "not a language")
	assert.Error(t, err)
}

func TestPreviewAndLookup(t *testing.T) {
	f := newFixture(t, "fr")
	f.write(t, "src/features/home/script_lines.js", homeModule)
	_, err := f.eng.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	p, err := f.eng.Preview(context.Background(), "features/shop/script_lines.js",
		[]byte("export const scriptLines = { hi: 'Hello', bye: 'Bye' };\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"shop.bye": "Bye"}, p.Entries)
	assert.Equal(t, 2, p.Replaced)
	assert.Contains(t, p.Output, "hi: i18n.t('home.title')")
	assert.Contains(t, p.Output, "import i18n from '../../i18n';")
	assert.NotContains(t, f.locale(t, "en"), "shop.bye")

	got, err := f.eng.Lookup("home.title")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]string{
		"en": {"home.title": "Hello"},
		"fr": {"home.title": "fr:Hello"},
	}, got)

	_, err = f.eng.Lookup("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
