package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hargabyte/i18nsync/internal/output"
)

func TestStripHeader(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	body := "export const a = 1;\n"

	assert.Equal(t, body, StripHeader(Header(at)+"\n\n"+body))
	assert.Equal(t, body, StripHeader(body))

	license := "/**\n * Copyright\n */\n" + body
	assert.Equal(t, license, StripHeader(license))
}

func TestImportPath(t *testing.T) {
	tests := []struct {
		file, module, want string
	}{
		{"/app/src/features/home/script_lines.js", "/app/src/i18n", "../../i18n"},
		{"/app/src/script_lines.js", "/app/src/i18n", "./i18n"},
		{"/app/src/script_lines.js", "/app/src/i18n.js", "./i18n"},
		{"/app/src/features/script_lines.ts", "/app/src/features/i18n/index.ts", "./i18n/index"},
	}
	for _, tt := range tests {
		got, err := ImportPath(filepath.FromSlash(tt.file), filepath.FromSlash(tt.module))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.file)
	}
}

func TestCompose(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	body := Header(at.Add(-time.Hour)) + "\nimport i18n from './old';\n\nexport const a = i18n.t('x');\n"

	got := Compose(body, "i18n", "../i18n", at)
	want := Header(at) + "\nimport i18n from '../i18n';\n\nexport const a = i18n.t('x');\n"
	assert.Equal(t, want, got)
	assert.Equal(t, got, Compose(got, "i18n", "../i18n", at))
}

func TestUnifiedDiff(t *testing.T) {
	assert.Empty(t, UnifiedDiff("a.js", "x\n", "x\n"))

	got := UnifiedDiff("a.js", "one\ntwo\nthree\n", "one\nTWO\nthree\n")
	assert.Contains(t, got, "--- a/a.js\n+++ b/a.js\n")
	assert.Contains(t, got, "-two\n+TWO\n")
	assert.Contains(t, got, " one\n")
}

func TestPluralHelpers(t *testing.T) {
	assert.Equal(t, "cart.items", pluralBase("cart.items_one"))
	assert.Equal(t, "cart.items", pluralBase("cart.items_other"))
	assert.Equal(t, "", pluralBase("cart.items"))
	assert.Equal(t, "", pluralBase("_one"))

	source := map[string]string{"a_one": "1", "a_other": "n", "b": "B", "c": "C"}
	used := map[string]bool{"a": true, "b": true, "d": true}
	assert.Equal(t, []string{"c"}, orphanedKeys(source, used))
	assert.Equal(t, []string{"d"}, missingKeys(source, used))
}

func TestSyncReportDensify(t *testing.T) {
	r := &SyncReport{
		Tracked: 2,
		Files: []FileReport{
			{Path: "a.js", Status: FileWritten},
			{Path: "b.js", Status: FileUnchanged},
		},
		NewEntries: map[string]string{"a.x": "X"},
	}

	sparse, ok := r.Densify(output.DensitySparse).(SyncSummary)
	require.True(t, ok)
	assert.Equal(t, map[string]int{FileWritten: 1, FileUnchanged: 1}, sparse.Files)
	assert.Equal(t, 1, sparse.NewEntries)

	medium := r.Densify(output.DensityMedium).(*SyncReport)
	require.Len(t, medium.Files, 1)
	assert.Equal(t, "a.js", medium.Files[0].Path)
	assert.Len(t, r.Files, 2)

	assert.Same(t, r, r.Densify(output.DensityDense))
}
