package fsutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "translation.json")

	require.NoError(t, WriteFileAtomic(path, []byte("{}"), 0644))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	require.NoError(t, os.Chmod(path, 0600))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"a":"b"}`), 0644))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "existing mode is kept")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestBackup(t *testing.T) {
	root := t.TempDir()
	backups := filepath.Join(root, ".backups")
	src := filepath.Join(root, "features", "venues", "script_lines.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte("export const scriptLines = {};\n"), 0644))

	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	dest, err := Backup(src, root, backups, at)
	require.NoError(t, err)

	want := filepath.Join(backups, "features", "venues", "script_lines.js.20250304_050607.bak")
	assert.Equal(t, want, dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "export const scriptLines = {};\n", string(data))
	assert.True(t, Exists(dest))

	outside := filepath.Join(t.TempDir(), "other.js")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))
	dest, err = Backup(outside, root, backups, at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backups, "other.js.20250304_050607.bak"), dest)

	_, err = Backup(filepath.Join(root, "missing.js"), root, backups, at)
	assert.Error(t, err)
}
