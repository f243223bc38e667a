package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestLineIndex_Lines(t *testing.T) {
	li := NewLineIndex("ab\ncd\n")

	assert.Equal(t, 3, li.LineCount())
	assert.Equal(t, 3, li.LineStart(1))
	assert.Equal(t, 5, li.LineEnd(1))
	assert.Equal(t, 6, li.LineStart(2))
	assert.Equal(t, 6, li.LineStart(9), "clamped to the text")
	assert.Equal(t, 0, li.LineStart(-1))
	assert.Equal(t, 1, li.LineOf(3))
	assert.Equal(t, 0, li.LineOf(2))
}

func TestLineIndex_Position(t *testing.T) {
	li := NewLineIndex("ab😀c\nxy")

	tests := []struct {
		name   string
		offset int
		want   protocol.Position
	}{
		{"start", 0, protocol.Position{Line: 0, Character: 0}},
		{"after surrogate pair", 6, protocol.Position{Line: 0, Character: 4}},
		{"second line", 9, protocol.Position{Line: 1, Character: 1}},
		{"past end", 100, protocol.Position{Line: 1, Character: 2}},
		{"negative", -3, protocol.Position{Line: 0, Character: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, li.Position(tt.offset))
		})
	}
}

func TestLineIndex_Offset(t *testing.T) {
	li := NewLineIndex("ab😀c\nxy")

	tests := []struct {
		name string
		pos  protocol.Position
		want int
	}{
		{"start", protocol.Position{Line: 0, Character: 0}, 0},
		{"after surrogate pair", protocol.Position{Line: 0, Character: 4}, 6},
		{"past line end", protocol.Position{Line: 0, Character: 99}, 7},
		{"second line", protocol.Position{Line: 1, Character: 1}, 9},
		{"past last line", protocol.Position{Line: 5, Character: 0}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, li.Offset(tt.pos))
		})
	}
}

func TestLineIndex_RoundTrip(t *testing.T) {
	text := "x := \"é\"\n\tMsgBox x ; 😀\n"
	li := NewLineIndex(text)

	for off := 0; off < len(text)+1; off++ {
		if off < len(text) && text[off]&0xC0 == 0x80 {
			continue
		}

		assert.Equal(t, off, li.Offset(li.Position(off)), "offset %d", off)
	}
}

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 0, UTF16Len(""))
	assert.Equal(t, 3, UTF16Len("abc"))
	assert.Equal(t, 1, UTF16Len("é"))
	assert.Equal(t, 2, UTF16Len("😀"))
}
