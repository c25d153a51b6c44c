package discover

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("export const scriptLines = {};\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "features/home/script_lines.js")
	touch(t, root, "features/cart/utils/script_lines.js")
	touch(t, root, "script_lines.js")
	touch(t, root, "features/home/other.js")
	touch(t, root, "locales/en/script_lines.js")
	touch(t, root, "legacy/old/script_lines.js")
	touch(t, root, "node_modules/pkg/script_lines.js")

	res, err := Find(root, Options{
		FileNames:   []string{"script_lines.js"},
		ExcludeDirs: []string{"locales", "legacy/old"},
		AutoExclude: true,
	})
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}

	// node_modules is not auto-excluded without package.json, but it is
	// still found; exclude_dirs must list it explicitly.
	want := []string{
		"features/cart/utils/script_lines.js",
		"features/home/script_lines.js",
		"node_modules/pkg/script_lines.js",
		"script_lines.js",
	}
	if strings.Join(res.Files, ",") != strings.Join(want, ",") {
		t.Errorf("Find() = %v, want %v", res.Files, want)
	}
}

func TestFindAutoExclude(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "package.json")
	touch(t, root, "node_modules/pkg/script_lines.js")
	touch(t, root, "app/script_lines.js")

	res, err := Find(root, Options{FileNames: []string{"script_lines.js"}, AutoExclude: true})
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "app/script_lines.js" {
		t.Errorf("expected only app/script_lines.js, got %v", res.Files)
	}
	if res.Excluded.Reasons["node_modules"] == "" {
		t.Error("expected reason for node_modules")
	}
}

func TestFindMissingRoot(t *testing.T) {
	if _, err := Find(filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Error("expected error for missing root")
	}

	root := t.TempDir()
	touch(t, root, "file.js")
	if _, err := Find(filepath.Join(root, "file.js"), Options{}); err == nil {
		t.Error("expected error for file root")
	}
}

func TestDetectAutoExcludes_Empty(t *testing.T) {
	result := DetectAutoExcludes(t.TempDir())

	if len(result.Directories) != 0 {
		t.Errorf("expected 0 directories, got %d: %v", len(result.Directories), result.Directories)
	}
}

func TestDetectAutoExcludes_Nested(t *testing.T) {
	tmpDir := t.TempDir()
	touch(t, tmpDir, "apps/web/package.json")
	touch(t, tmpDir, "apps/web/next.config.js")
	if err := os.MkdirAll(filepath.Join(tmpDir, "apps", "web", "node_modules"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "apps", "web", ".next"), 0755); err != nil {
		t.Fatal(err)
	}

	result := DetectAutoExcludes(tmpDir)

	for _, dir := range []string{
		filepath.Join("apps", "web", "node_modules"),
		filepath.Join("apps", "web", ".next"),
	} {
		if !contains(result.Directories, dir) {
			t.Errorf("expected %s in directories, got %v", dir, result.Directories)
		}
		if result.Reasons[dir] == "" {
			t.Errorf("expected reason for %s", dir)
		}
	}
}

func TestDetectAutoExcludes_NoDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	touch(t, tmpDir, "package.json")

	result := DetectAutoExcludes(tmpDir)

	if len(result.Directories) != 0 {
		t.Errorf("expected 0 directories (no node_modules/), got %v", result.Directories)
	}
}
