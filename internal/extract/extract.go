package extract

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/hargabyte/i18nsync/internal/parser"
	"github.com/hargabyte/i18nsync/internal/rewrite"
	"github.com/hargabyte/i18nsync/internal/tree"
)

// FileResult is the outcome of extracting one file.
type FileResult struct {
	// Path is the file path relative to the source root.
	Path string
	// Source is the input buffer.
	Source []byte
	// Output is Source with every queued span applied.
	Output []byte
	// Entries holds the key→value pairs this file added to the run.
	Entries map[string]string
	// Replaced counts literals and plural blocks turned into references.
	Replaced int
	// Plurals counts plural blocks among Replaced.
	Plurals int
	// Upgraded counts legacy calls requalified in place.
	Upgraded int
	// Skipped lists literals left untouched.
	Skipped []Skip
	// Collisions lists keys that already held a different value.
	Collisions []*tree.CollisionError
}

// Changed reports whether extraction altered the file.
func (r *FileResult) Changed() bool {
	return !bytes.Equal(r.Source, r.Output)
}

// SortedEntryKeys returns the keys of Entries in order.
func (r *FileResult) SortedEntryKeys() []string {
	keys := make([]string, 0, len(r.Entries))
	for k := range r.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Process parses src, walks every exported declaration and rewrites the
// extracted literals. relPath is the path relative to the source root and
// drives key derivation.
//
// A syntax error yields a *parser.ParseError and an overlapping edit an
// error matching rewrite.ErrOverlappingSpans. In both cases nothing from the
// file is recorded in the session.
func (s *Session) Process(ctx context.Context, p *parser.Parser, relPath string, src []byte) (*FileResult, error) {
	result, err := p.ParseCtx(ctx, src)
	if err != nil {
		if pe, ok := err.(*parser.ParseError); ok {
			pe.File = relPath
		}
		return nil, err
	}
	defer result.Close()
	result.FilePath = relPath

	if err := result.Err(); err != nil {
		return nil, err
	}

	return s.ProcessTree(result, relPath)
}

// ProcessTree is Process over an already parsed file.
func (s *Session) ProcessTree(result *parser.ParseResult, relPath string) (*FileResult, error) {
	src := result.Source
	res := &FileResult{Path: relPath, Source: src}
	tx := s.begin()
	w := &walker{
		cls: NewClassifier(src, s.opts.Reference),
		ref: s.opts.Reference,
		rw:  rewrite.New(src),
		tx:  tx,
		ask: s.opts.Confirm,
		res: res,
	}

	for _, decl := range parser.ExportedDeclarations(result.Root) {
		name := decl.ChildByFieldName("name")
		value := decl.ChildByFieldName("value")
		if name == nil || value == nil || name.Type() != "identifier" {
			continue
		}
		prefix := s.opts.Rules.Prefix(relPath, name.Content(src))
		w.walk(value, prefix)
	}

	out, err := w.rw.Apply()
	if err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", relPath, err)
	}
	res.Output = out
	res.Entries = tx.entries

	if err := tx.commit(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", relPath, err)
	}
	return res, nil
}
