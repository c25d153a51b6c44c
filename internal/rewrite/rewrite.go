// Package rewrite applies byte-range replacements to an immutable source
// buffer.
//
// Spans are recorded against offsets of the original buffer and are never
// applied incrementally. Apply sorts them, rejects overlaps and rebuilds the
// output in a single left-to-right copy.
package rewrite

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlappingSpans is matched by every OverlapError.
var ErrOverlappingSpans = errors.New("overlapping replacement spans")

// Span replaces Source[Start:End] with Text. A span with Start == End is an
// insertion.
type Span struct {
	Start int
	End   int
	Text  string
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)->%q", s.Start, s.End, s.Text)
}

// overlaps reports whether two spans touch the same bytes. Two insertions at
// the same offset also conflict since their order would be ambiguous.
func (s Span) overlaps(o Span) bool {
	if s.Start == s.End && o.Start == o.End {
		return s.Start == o.Start
	}
	return s.Start < o.End && o.Start < s.End
}

// OverlapError reports the first pair of conflicting spans.
type OverlapError struct {
	A, B Span
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%v: %v and %v", ErrOverlappingSpans, e.A, e.B)
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlappingSpans
}

// RangeError reports a span outside the buffer or with End < Start.
type RangeError struct {
	Span Span
	Len  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("span %v out of range for buffer of %d bytes", e.Span, e.Len)
}

// Rewriter accumulates spans over one source buffer.
type Rewriter struct {
	source []byte
	spans  []Span
}

// New returns a Rewriter over source. The buffer is not copied and must not
// be modified by the caller while the Rewriter is in use.
func New(source []byte) *Rewriter {
	return &Rewriter{source: source}
}

// Replace queues the replacement of source[start:end] with text.
func (r *Rewriter) Replace(start, end int, text string) {
	r.spans = append(r.spans, Span{Start: start, End: end, Text: text})
}

// Insert queues text to be inserted at offset.
func (r *Rewriter) Insert(offset int, text string) {
	r.Replace(offset, offset, text)
}

// Delete queues the removal of source[start:end].
func (r *Rewriter) Delete(start, end int) {
	r.Replace(start, end, "")
}

// Len returns the number of queued spans.
func (r *Rewriter) Len() int {
	return len(r.spans)
}

// Spans returns a copy of the queued spans in insertion order.
func (r *Rewriter) Spans() []Span {
	out := make([]Span, len(r.spans))
	copy(out, r.spans)
	return out
}

// Source returns the original buffer.
func (r *Rewriter) Source() []byte {
	return r.source
}

// Apply returns a new buffer with every queued span applied. The original
// buffer and the queue are left untouched, so Apply may be called again.
func (r *Rewriter) Apply() ([]byte, error) {
	return Apply(r.source, r.spans)
}

// Apply rebuilds source with spans applied. Spans may be given in any order.
func Apply(source []byte, spans []Span) ([]byte, error) {
	if len(spans) == 0 {
		out := make([]byte, len(source))
		copy(out, source)
		return out, nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	size := len(source)
	for i, s := range sorted {
		if s.Start < 0 || s.End < s.Start || s.End > len(source) {
			return nil, &RangeError{Span: s, Len: len(source)}
		}
		if i > 0 && sorted[i-1].overlaps(s) {
			return nil, &OverlapError{A: sorted[i-1], B: s}
		}
		size += len(s.Text) - (s.End - s.Start)
	}

	out := make([]byte, 0, size)
	cursor := 0
	for _, s := range sorted {
		out = append(out, source[cursor:s.Start]...)
		out = append(out, s.Text...)
		cursor = s.End
	}
	out = append(out, source[cursor:]...)
	return out, nil
}
