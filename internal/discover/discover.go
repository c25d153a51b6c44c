// Package discover finds the string modules managed under a source root.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Options selects target files.
type Options struct {
	// FileNames are the base names of managed files.
	FileNames []string
	// ExcludeDirs are directory names, or slash-separated paths relative to
	// the root, that are never entered.
	ExcludeDirs []string
	// AutoExclude also skips directories found by DetectAutoExcludes.
	AutoExclude bool
}

// Result lists managed files as slash-separated paths relative to the
// root, sorted.
type Result struct {
	Files    []string
	Excluded *AutoExcludeResult
}

// Find walks root and returns every file whose base name is a target.
func Find(root string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", root)
	}

	names := make(map[string]bool, len(opts.FileNames))
	for _, n := range opts.FileNames {
		names[n] = true
	}

	skip := make(map[string]bool)
	for _, d := range opts.ExcludeDirs {
		skip[filepath.Clean(filepath.FromSlash(d))] = true
	}

	res := &Result{Files: []string{}}
	if opts.AutoExclude {
		res.Excluded = DetectAutoExcludes(root)
		for _, d := range res.Excluded.Directories {
			skip[d] = true
		}
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if skip[d.Name()] || skip[rel] {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() && names[d.Name()] {
			res.Files = append(res.Files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(res.Files)
	return res, nil
}
