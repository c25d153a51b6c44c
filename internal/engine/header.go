package engine

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ManagedMarker tags the header of files owned by the sync workflow.
const ManagedMarker = "@auto-managed"

// HeaderTimeFormat is the layout of the @last-synced stamp.
const HeaderTimeFormat = "2006-01-02 15:04:05 UTC"

// Header returns the auto-managed banner stamped with at.
func Header(at time.Time) string {
	return "/**\n" +
		" * " + ManagedMarker + "\n" +
		" *\n" +
		" * This file is managed by the I18N script. Any manual changes to this file will be\n" +
		" * overwritten during the next synchronization. To add or modify text, please\n" +
		" * update the original string in this file and then run the 'sync' command.\n" +
		" *\n" +
		" * @last-synced " + at.UTC().Format(HeaderTimeFormat) + "\n" +
		" */\n"
}

// StripHeader removes a leading auto-managed block comment and the blank
// lines after it. Any other leading comment is kept.
func StripHeader(src string) string {
	trimmed := strings.TrimLeft(src, " \t\r\n")
	if !strings.HasPrefix(trimmed, "/**") {
		return src
	}
	end := strings.Index(trimmed, "*/")
	if end < 0 || !strings.Contains(trimmed[:end], ManagedMarker) {
		return src
	}
	return strings.TrimLeft(trimmed[end+2:], "\r\n")
}

// ImportPath returns the specifier that file uses to import module, both
// absolute paths: relative, slash separated, without a .js/.ts extension
// and always starting with a dot.
func ImportPath(file, module string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(file), module)
	if err != nil {
		return "", fmt.Errorf("relative import path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	for _, ext := range []string{".js", ".jsx", ".ts", ".tsx", ".mjs"} {
		rel = strings.TrimSuffix(rel, ext)
	}
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, nil
}

// ImportLine is the default import of namespace from the module path.
func ImportLine(namespace, from string) string {
	return fmt.Sprintf("import %s from '%s';", namespace, from)
}

func importPattern(namespace string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*import[ \t]+` + regexp.QuoteMeta(namespace) +
		`[ \t]+from[ \t]+['"][^'"\n]*['"][ \t]*;?[ \t]*\r?\n?`)
}

// Compose assembles a managed file: a fresh header, exactly one import of
// the namespace and the body without any previous header or import.
func Compose(body, namespace, from string, at time.Time) string {
	body = StripHeader(body)
	body = importPattern(namespace).ReplaceAllString(body, "")
	return Header(at) + "\n" + ImportLine(namespace, from) + "\n\n" + strings.TrimSpace(body) + "\n"
}
