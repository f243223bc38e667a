// Package server provides semantic tokens support for AutoHotkey v2.
package server

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
)

// SemanticToken represents a raw semantic token with position and classification.
type SemanticToken struct {
	Line      uint32 // 0-based line number
	StartChar uint32 // 0-based start character
	Length    uint32 // Token length
	TokenType uint32 // Index into legend.TokenTypes
	Modifiers uint32 // Bit flags for modifiers
}

// SemanticTokensLegend defines the token types and modifiers used by the server.
// The legend must remain consistent across all requests to ensure proper highlighting.
type SemanticTokensLegend struct {
	// TokenTypes is an ordered array of token type strings.
	// The index in this array is used to encode token types in the semantic tokens response.
	TokenTypes []string

	// TokenModifiers is an ordered array of token modifier strings.
	// Modifiers are encoded as bit flags where each index represents a bit position.
	TokenModifiers []string
}

// NewSemanticTokensLegend creates the legend for the token classes the
// analysis emits.
func NewSemanticTokensLegend() *SemanticTokensLegend {
	return &SemanticTokensLegend{
		TokenTypes: []string{
			analysis.TokenClass,
			analysis.TokenParameter,
			analysis.TokenVariable,
			analysis.TokenProperty,
			analysis.TokenFunction,
			analysis.TokenMethod,
			analysis.TokenKeyword,
			analysis.TokenString,
			analysis.TokenNumber,
			analysis.TokenComment,
			analysis.TokenOperator,
			// hotkeys and hotstrings
			analysis.TokenEvent,
			// directives
			analysis.TokenMacro,
			analysis.TokenLabel,
		},
		TokenModifiers: []string{
			analysis.ModDeclaration,
			analysis.ModReadonly,
			analysis.ModStatic,
			analysis.ModModification,
			analysis.ModDefaultLibrary,
		},
	}
}

// ToProtocolLegend converts the legend to the LSP protocol format.
func (l *SemanticTokensLegend) ToProtocolLegend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes:     l.TokenTypes,
		TokenModifiers: l.TokenModifiers,
	}
}

// GetTokenTypeIndex returns the index of a token type in the legend.
// Returns -1 if the token type is not found.
func (l *SemanticTokensLegend) GetTokenTypeIndex(tokenType string) int {
	for i, t := range l.TokenTypes {
		if t == tokenType {
			return i
		}
	}

	return -1
}

// GetModifierMask returns the bit mask for the given modifiers.
// Multiple modifiers can be combined using bitwise OR.
func (l *SemanticTokensLegend) GetModifierMask(modifiers ...string) uint32 {
	var mask uint32

	for _, modifier := range modifiers {
		for i, m := range l.TokenModifiers {
			if m == modifier {
				mask |= 1 << uint32(i)
				break
			}
		}
	}

	return mask
}

// ConvertSemanticTokens maps analysis tokens, which are byte ranges, onto
// line/character tokens. A token spanning several lines, such as a block
// comment or a continuation section, becomes one token per non-empty line.
// Tokens of a type missing from the legend are dropped.
func (l *SemanticTokensLegend) ConvertSemanticTokens(tokens []analysis.SemanticToken, lines *document.LineIndex) []SemanticToken {
	out := make([]SemanticToken, 0, len(tokens))

	for _, tok := range tokens {
		typ := l.GetTokenTypeIndex(tok.Type)
		if typ < 0 || tok.Length <= 0 {
			continue
		}

		mods := l.GetModifierMask(tok.Modifiers...)
		end := tok.Offset + tok.Length

		for line := lines.LineOf(tok.Offset); line < lines.LineCount(); line++ {
			start := max(tok.Offset, lines.LineStart(line))
			if start >= end {
				break
			}

			stop := min(end, lines.LineEnd(line))
			if stop > start && lines.Text()[stop-1] == '\r' {
				stop--
			}

			if stop > start {
				pos := lines.Position(start)
				out = append(out, SemanticToken{
					Line:      pos.Line,
					StartChar: pos.Character,
					Length:    uint32(document.UTF16Len(lines.Text()[start:stop])),
					TokenType: uint32(typ),
					Modifiers: mods,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}

		return out[i].StartChar < out[j].StartChar
	})

	return out
}

// EncodeSemanticTokens encodes tokens in the LSP relative format: five
// integers per token, line and start relative to the previous token.
// Tokens must be sorted by position.
func EncodeSemanticTokens(tokens []SemanticToken) []uint32 {
	if len(tokens) == 0 {
		return []uint32{}
	}

	encoded := make([]uint32, 0, len(tokens)*5)

	var prevLine, prevChar uint32

	for _, token := range tokens {
		deltaLine := token.Line - prevLine

		deltaChar := token.StartChar
		if deltaLine == 0 {
			deltaChar = token.StartChar - prevChar
		}

		encoded = append(encoded,
			deltaLine,
			deltaChar,
			token.Length,
			token.TokenType,
			token.Modifiers,
		)

		prevLine = token.Line
		prevChar = token.StartChar
	}

	return encoded
}
