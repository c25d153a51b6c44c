package discover

import (
	"os"
	"path/filepath"
	"strings"
)

// AutoExcludeResult contains the directories to exclude and why.
type AutoExcludeResult struct {
	// Directories to exclude (relative to the scanned root)
	Directories []string
	// Reasons maps each directory to why it was excluded
	Reasons map[string]string
}

// markers maps a marker file name to the sibling directory it implies and
// the reason reported for excluding it.
var markers = map[string]struct {
	dir    string
	reason string
}{
	"package.json":   {"node_modules", "Node.js dependencies (package.json detected)"},
	"bower.json":     {"bower_components", "Bower dependencies (bower.json detected)"},
	"next.config.js": {".next", "Next.js build output (next.config.js detected)"},
	"next.config.ts": {".next", "Next.js build output (next.config.ts detected)"},
	"nuxt.config.js": {".nuxt", "Nuxt build output (nuxt.config.js detected)"},
	"nuxt.config.ts": {".nuxt", "Nuxt build output (nuxt.config.ts detected)"},
}

// DetectAutoExcludes scans root for dependency and build directories that
// never hold hand-written string modules. A directory is only reported when
// its marker file and the directory itself both exist.
func DetectAutoExcludes(root string) *AutoExcludeResult {
	result := &AutoExcludeResult{
		Directories: []string{},
		Reasons:     make(map[string]string),
	}

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't read
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if contains(result.Directories, relPath) {
				return filepath.SkipDir
			}
			for _, excluded := range result.Directories {
				if strings.HasPrefix(relPath, excluded+string(filepath.Separator)) {
					return filepath.SkipDir
				}
			}
			// Don't descend into dependency trees even if not yet excluded
			if d.Name() == "node_modules" || d.Name() == "bower_components" {
				return filepath.SkipDir
			}
			return nil
		}

		m, ok := markers[d.Name()]
		if !ok {
			return nil
		}

		relDirPath, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return nil
		}
		dir := filepath.Join(relDirPath, m.dir)
		if dirExists(filepath.Join(root, dir)) && !contains(result.Directories, dir) {
			result.Directories = append(result.Directories, dir)
			result.Reasons[dir] = m.reason
		}
		return nil
	})

	return result
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// contains checks if a string is in a slice.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
