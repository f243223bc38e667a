package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
)

func TestSemanticTokensLegend(t *testing.T) {
	legend := NewSemanticTokensLegend()

	assert.Equal(t, 0, legend.GetTokenTypeIndex(analysis.TokenClass))
	assert.Equal(t, 11, legend.GetTokenTypeIndex(analysis.TokenEvent))
	assert.Equal(t, -1, legend.GetTokenTypeIndex("namespace"))

	assert.Equal(t, uint32(0b101), legend.GetModifierMask(analysis.ModDeclaration, analysis.ModStatic))
	assert.Equal(t, uint32(0), legend.GetModifierMask("deprecated"))

	proto := legend.ToProtocolLegend()
	assert.Equal(t, legend.TokenTypes, proto.TokenTypes)
	assert.Equal(t, legend.TokenModifiers, proto.TokenModifiers)
}

func TestConvertSemanticTokens(t *testing.T) {
	text := "/* a\n   b */\nx := \"😀\" . y"
	comment := len("/* a\n   b */")
	x := comment + 1
	str := x + len("x := ")
	y := len(text) - 1

	legend := NewSemanticTokensLegend()
	tokens := []analysis.SemanticToken{
		{Offset: 0, Length: comment, Type: analysis.TokenComment},
		{Offset: x, Length: 1, Type: analysis.TokenVariable, Modifiers: []string{analysis.ModDeclaration}},
		{Offset: str, Length: len("\"😀\""), Type: analysis.TokenString},
		{Offset: y, Length: 1, Type: analysis.TokenVariable},
		{Offset: y, Length: 1, Type: "unknown"},
	}

	got := legend.ConvertSemanticTokens(tokens, document.NewLineIndex(text))

	commentType := uint32(legend.GetTokenTypeIndex(analysis.TokenComment))
	varType := uint32(legend.GetTokenTypeIndex(analysis.TokenVariable))
	strType := uint32(legend.GetTokenTypeIndex(analysis.TokenString))

	assert.Equal(t, []SemanticToken{
		{Line: 0, StartChar: 0, Length: 4, TokenType: commentType},
		{Line: 1, StartChar: 0, Length: 7, TokenType: commentType},
		{Line: 2, StartChar: 0, Length: 1, TokenType: varType, Modifiers: 1},
		// the emoji counts two UTF-16 units
		{Line: 2, StartChar: 5, Length: 4, TokenType: strType},
		{Line: 2, StartChar: 12, Length: 1, TokenType: varType},
	}, got)
}

func TestEncodeSemanticTokens(t *testing.T) {
	tokens := []SemanticToken{
		{Line: 0, StartChar: 5, Length: 3, TokenType: 1},
		{Line: 0, StartChar: 10, Length: 4, TokenType: 2, Modifiers: 1},
		{Line: 2, StartChar: 4, Length: 6, TokenType: 3},
	}

	assert.Equal(t, []uint32{
		0, 5, 3, 1, 0,
		0, 5, 4, 2, 1,
		2, 4, 6, 3, 0,
	}, EncodeSemanticTokens(tokens))

	assert.Equal(t, []uint32{}, EncodeSemanticTokens(nil))
}

func TestComputeSemanticTokensDelta(t *testing.T) {
	base := []SemanticToken{
		{Line: 0, StartChar: 0, Length: 3, TokenType: 0},
		{Line: 0, StartChar: 4, Length: 5, TokenType: 1},
		{Line: 1, StartChar: 0, Length: 4, TokenType: 2, Modifiers: 1},
	}

	modified := append([]SemanticToken{}, base...)
	modified[1].TokenType, modified[1].Modifiers = 3, 1

	added := append(append([]SemanticToken{}, base...),
		SemanticToken{Line: 2, StartChar: 0, Length: 6, TokenType: 3})

	tests := []struct {
		name        string
		old, new    []SemanticToken
		isDelta     bool
		edits       int
		start       uint32
		deleteCount uint32
		dataLen     int
	}{
		{name: "no changes", old: base, new: base, isDelta: true, edits: 0},
		{name: "single token modified", old: base, new: modified, isDelta: true, edits: 1, start: 8, deleteCount: 2, dataLen: 2},
		{name: "token added at end", old: base, new: added, isDelta: true, edits: 1, start: 15, deleteCount: 0, dataLen: 5},
		{name: "tokens removed from start", old: added, new: added[2:], isDelta: true, edits: 1, start: 0, deleteCount: 10, dataLen: 0},
		{name: "all tokens removed", old: base, new: nil, isDelta: true, edits: 1, start: 0, deleteCount: 15, dataLen: 0},
		{name: "no previous tokens", old: nil, new: base, isDelta: false},
		{name: "both empty", old: nil, new: nil, isDelta: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeSemanticTokensDelta(tt.old, tt.new, "next")
			require.NotNil(t, result)
			require.Equal(t, tt.isDelta, result.IsDelta)

			if !tt.isDelta {
				require.NotNil(t, result.Full)
				assert.Equal(t, "next", *result.Full.ResultID)
				assert.Equal(t, EncodeSemanticTokens(tt.new), result.Full.Data)

				return
			}

			require.NotNil(t, result.Delta)
			assert.Equal(t, "next", *result.Delta.ResultId)
			require.NotNil(t, result.Delta.Edits)
			require.Len(t, result.Delta.Edits, tt.edits)

			if tt.edits == 0 {
				return
			}

			edit := result.Delta.Edits[0]
			assert.Equal(t, tt.start, edit.Start)
			assert.Equal(t, tt.deleteCount, edit.DeleteCount)
			assert.Len(t, edit.Data, tt.dataLen)
		})
	}
}

func TestComputeSemanticTokensDelta_Threshold(t *testing.T) {
	oldTokens := make([]SemanticToken, 1000)
	for i := range oldTokens {
		oldTokens[i] = SemanticToken{Line: uint32(i), Length: 5, TokenType: uint32(i % 10)}
	}

	newTokens := append([]SemanticToken{}, oldTokens...)
	newTokens[500].TokenType = 13

	result := ComputeSemanticTokensDelta(oldTokens, newTokens, "small")
	assert.True(t, result.IsDelta, "a single change in a large document is a delta")

	for i := range newTokens {
		newTokens[i].TokenType = uint32((i + 1) % 10)
		newTokens[i].Modifiers = 1
	}

	result = ComputeSemanticTokensDelta(oldTokens, newTokens, "large")
	assert.False(t, result.IsDelta, "rewriting every token falls back to a full response")
	require.NotNil(t, result.Full)
	assert.Equal(t, "large", *result.Full.ResultID)
}
