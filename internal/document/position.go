package document

import (
	"sort"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LineIndex converts between byte offsets and LSP positions, which count
// UTF-16 code units. It is built once per document version.
type LineIndex struct {
	text   string
	starts []int // byte offset of each line start
}

// NewLineIndex indexes the line starts of text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}

	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &LineIndex{text: text, starts: starts}
}

// Text returns the indexed text.
func (li *LineIndex) Text() string {
	return li.text
}

// LineCount returns the number of lines; a trailing newline opens an empty
// last line.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// LineStart returns the byte offset where line begins, clamped to the text.
func (li *LineIndex) LineStart(line int) int {
	switch {
	case line < 0:
		return 0
	case line >= len(li.starts):
		return len(li.text)
	}

	return li.starts[line]
}

// LineEnd returns the byte offset of the end of line, before its newline.
func (li *LineIndex) LineEnd(line int) int {
	if line+1 < len(li.starts) {
		return li.starts[line+1] - 1
	}

	return len(li.text)
}

// LineOf returns the 0-based line containing offset.
func (li *LineIndex) LineOf(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1
}

// Position converts a byte offset to a line and UTF-16 character.
// Offsets outside the text are clamped.
func (li *LineIndex) Position(offset int) protocol.Position {
	offset = max(0, min(offset, len(li.text)))
	line := li.LineOf(offset)

	units := 0
	for _, r := range li.text[li.starts[line]:offset] {
		units += utf16Len(r)
	}

	return protocol.Position{Line: uint32(line), Character: uint32(units)}
}

// Offset converts an LSP position to a byte offset. A character past the end
// of its line selects the line end.
func (li *LineIndex) Offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(li.starts) {
		return len(li.text)
	}

	start, end := li.starts[line], li.LineEnd(line)
	want := int(pos.Character)

	units := 0
	for i, r := range li.text[start:end] {
		if units >= want {
			return start + i
		}

		units += utf16Len(r)
	}

	return end
}

// Range converts a byte range to an LSP range.
func (li *LineIndex) Range(start, end int) protocol.Range {
	return protocol.Range{Start: li.Position(start), End: li.Position(end)}
}

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16Len(r)
	}

	return n
}

func utf16Len(r rune) int {
	if r == utf8.RuneError || r <= 0xFFFF {
		return 1
	}

	return 2
}
