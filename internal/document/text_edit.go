// Package document provides utilities for text document manipulation.
package document

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ApplyContentChange applies a TextDocumentContentChangeEvent to the given text
// and returns the updated text. This handles LSP's UTF-16 based positions.
func ApplyContentChange(text string, change protocol.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}

	li := NewLineIndex(text)

	start, err := checkedOffset(li, change.Range.Start)
	if err != nil {
		return "", fmt.Errorf("invalid start position: %w", err)
	}

	end, err := checkedOffset(li, change.Range.End)
	if err != nil {
		return "", fmt.Errorf("invalid end position: %w", err)
	}

	if start > end {
		return "", fmt.Errorf("start %d:%d after end %d:%d",
			change.Range.Start.Line, change.Range.Start.Character,
			change.Range.End.Line, change.Range.End.Character)
	}

	return text[:start] + change.Text + text[end:], nil
}

// ApplyContentChanges applies changes in order, as didChange delivers them.
// Whole-document events (TextDocumentContentChangeEventWhole) replace the text.
func ApplyContentChanges(text string, changes []any) (string, error) {
	for i, c := range changes {
		var err error

		switch change := c.(type) {
		case protocol.TextDocumentContentChangeEvent:
			text, err = ApplyContentChange(text, change)
		case protocol.TextDocumentContentChangeEventWhole:
			text = change.Text
		default:
			err = fmt.Errorf("unsupported change type %T", c)
		}

		if err != nil {
			return "", fmt.Errorf("change %d: %w", i, err)
		}
	}

	return text, nil
}

// checkedOffset is Offset with range validation: the line must exist and the
// character may not exceed the line length.
func checkedOffset(li *LineIndex, pos protocol.Position) (int, error) {
	line := int(pos.Line)
	if line >= li.LineCount() {
		return 0, fmt.Errorf("line %d out of range (0-%d)", line, li.LineCount()-1)
	}

	width := UTF16Len(li.text[li.LineStart(line):li.LineEnd(line)])
	if int(pos.Character) > width {
		return 0, fmt.Errorf("UTF-16 offset %d exceeds line length %d", pos.Character, width)
	}

	return li.Offset(pos), nil
}

// PositionToOffset converts a line/character position to a byte offset in the text.
func PositionToOffset(text string, line, character int) (int, error) {
	if line < 0 || character < 0 {
		return 0, fmt.Errorf("negative position %d:%d", line, character)
	}

	return checkedOffset(NewLineIndex(text), protocol.Position{Line: uint32(line), Character: uint32(character)})
}

// OffsetToPosition converts a byte offset to a line/character position.
// Returns positions in UTF-16 code units (as expected by LSP).
func OffsetToPosition(text string, offset int) (line, character int, err error) {
	if offset < 0 || offset > len(text) {
		return 0, 0, fmt.Errorf("offset %d out of range (0-%d)", offset, len(text))
	}

	pos := NewLineIndex(text).Position(offset)

	return int(pos.Line), int(pos.Character), nil
}
