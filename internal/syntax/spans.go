package syntax

import (
	"sort"
	"strings"
)

// Span is a string or comment region of the source.
type Span struct {
	Start int
	End   int
	Kind  Kind // String or Comment
}

// Spans indexes string and comment regions by offset. Entries are strictly
// ordered and never overlap.
type Spans struct {
	entries []Span
}

// Add records a span. Spans that overlap an existing entry are ignored.
func (s *Spans) Add(start, end int, kind Kind) {
	if end <= start {
		return
	}

	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Start >= start
	})

	if i < len(s.entries) && s.entries[i].Start < end {
		return
	}

	if i > 0 && s.entries[i-1].End > start {
		return
	}

	s.entries = append(s.entries, Span{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = Span{Start: start, End: end, Kind: kind}
}

// At returns the span containing offset.
func (s *Spans) At(offset int) (Span, bool) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].End > offset
	})

	if i < len(s.entries) && s.entries[i].Start <= offset {
		return s.entries[i], true
	}

	return Span{}, false
}

// IsText reports whether offset lies inside a string or comment.
func (s *Spans) IsText(offset int) bool {
	_, ok := s.At(offset)
	return ok
}

// All returns the spans in offset order.
func (s *Spans) All() []Span {
	out := make([]Span, len(s.entries))
	copy(out, s.entries)

	return out
}

// Multiline returns the spans of src that cross a line break; they are the
// folding candidates for comments and continuation sections.
func (s *Spans) Multiline(src string) []Span {
	var out []Span

	for _, sp := range s.entries {
		if sp.End <= len(src) && strings.IndexByte(src[sp.Start:sp.End], '\n') >= 0 {
			out = append(out, sp)
		}
	}

	return out
}
