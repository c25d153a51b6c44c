// Package keypath derives the hierarchical key prefix under which the
// strings of one exported declaration are stored.
package keypath

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Separator joins key path segments into a flat key.
const Separator = "."

// Rules configures prefix derivation. The zero value is not useful; start
// from DefaultRules.
type Rules struct {
	// FeatureMarker is the directory whose child names the feature.
	FeatureMarker string
	// SharedDir is skipped in favour of its parent when it is the file's
	// immediate directory.
	SharedDir string
	// Fallback names the feature when no directory can supply one.
	Fallback string
	// ReservedName contributes no segment when used as the declaration name.
	ReservedName string
	// ReservedPrefix is stripped from declaration names.
	ReservedPrefix string
}

// DefaultRules returns the conventional project layout:
// src/features/<feature>/.../script_lines.js exporting scriptLines and
// scriptLines_<Section> objects.
func DefaultRules() Rules {
	return Rules{
		FeatureMarker:  "features",
		SharedDir:      "utils",
		Fallback:       "common",
		ReservedName:   "scriptLines",
		ReservedPrefix: "scriptLines_",
	}
}

// Feature returns the feature segment for a path relative to the source
// root.
func (r Rules) Feature(relPath string) string {
	parts := splitPath(relPath)
	if len(parts) == 0 {
		return r.Fallback
	}
	dirs := parts[:len(parts)-1]

	if r.FeatureMarker != "" {
		for i, d := range dirs {
			if d == r.FeatureMarker && i+1 < len(dirs) {
				return dirs[i+1]
			}
		}
	}

	if len(dirs) == 0 {
		return r.Fallback
	}
	parent := dirs[len(dirs)-1]
	if r.SharedDir != "" && parent == r.SharedDir {
		if len(dirs) < 2 {
			return r.Fallback
		}
		return dirs[len(dirs)-2]
	}
	return parent
}

// RootKey returns the segment contributed by a declaration name, or "" when
// it contributes none.
func (r Rules) RootKey(name string) string {
	if r.ReservedName != "" && name == r.ReservedName {
		return ""
	}
	if r.ReservedPrefix != "" && strings.HasPrefix(name, r.ReservedPrefix) {
		return lowerFirst(strings.TrimPrefix(name, r.ReservedPrefix))
	}
	return name
}

// Prefix returns the non-empty segments of [feature, rootKey].
func (r Rules) Prefix(relPath, name string) []string {
	var out []string
	for _, seg := range []string{r.Feature(relPath), r.RootKey(name)} {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// Join joins segments into a flat key.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Split splits a flat key into its segments.
func Split(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, Separator)
}

// Append returns a new slice holding segments followed by seg. The input is
// never aliased, so sibling branches of a walk cannot clobber each other.
func Append(segments []string, seg string) []string {
	out := make([]string, len(segments)+1)
	copy(out, segments)
	out[len(segments)] = seg
	return out
}

// ValidSegment reports whether seg can be stored as one path segment.
func ValidSegment(seg string) bool {
	return seg != "" && !strings.Contains(seg, Separator)
}

func splitPath(p string) []string {
	p = path.Clean(strings.ReplaceAll(filepath.ToSlash(p), `\`, "/"))
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
