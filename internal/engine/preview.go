package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hargabyte/i18nsync/internal/extract"
	"github.com/hargabyte/i18nsync/internal/parser"
)

// Preview is the outcome of extracting one file without writing anything.
type Preview struct {
	Path       string              `json:"path" yaml:"path"`
	Entries    map[string]string   `json:"entries" yaml:"entries"`
	Replaced   int                 `json:"replaced" yaml:"replaced"`
	Skipped    []extract.Skip      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Duplicates []extract.Duplicate `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Output     string              `json:"output" yaml:"output"`
}

// Preview runs extraction over src as if it were the managed file at rel
// (relative to the source root), against the current source locale.
// Placeholder violations are declined.
func (e *Engine) Preview(ctx context.Context, rel string, src []byte) (*Preview, error) {
	srcTree, err := e.loadLocale(e.cfg().SourceLanguage)
	if err != nil {
		return nil, err
	}

	opts := e.sessionOptions()
	opts.Confirm = extract.Decline
	session := extract.NewSession(srcTree, opts)

	p, err := parser.NewParserForFile(rel)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	rel = filepath.ToSlash(filepath.Clean(rel))
	res, err := session.Process(ctx, p, rel, src)
	if err != nil {
		return nil, err
	}

	out := string(res.Output)
	if res.Changed() {
		from, err := ImportPath(e.srcPath(rel), e.project.I18nModule())
		if err != nil {
			return nil, err
		}
		out = Compose(out, e.cfg().Reference.Namespace, from, e.now())
	}

	return &Preview{
		Path:       rel,
		Entries:    res.Entries,
		Replaced:   res.Replaced,
		Skipped:    res.Skipped,
		Duplicates: session.Duplicates(),
		Output:     out,
	}, nil
}

// Lookup returns the text stored under key in every configured language
// that has it. Plural keys resolve to their _one and _other forms.
func (e *Engine) Lookup(key string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, lang := range e.cfg().Languages {
		t, err := e.loadLocale(lang)
		if err != nil {
			return nil, err
		}
		forms := map[string]string{}
		if v, ok := t.Get(key); ok {
			forms[key] = v
		} else {
			for _, k := range []string{key + "_one", key + "_other"} {
				if v, ok := t.Get(k); ok {
					forms[k] = v
				}
			}
		}
		if len(forms) > 0 {
			out[lang] = forms
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return out, nil
}
