package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenAt(t *testing.T, toks []SemanticToken, offset int) SemanticToken {
	t.Helper()

	for _, tok := range toks {
		if tok.Offset == offset {
			return tok
		}
	}

	require.Failf(t, "no token", "no semantic token at offset %d", offset)

	return SemanticToken{}
}

func TestSemanticTokens(t *testing.T) {
	text := "Greet(name) {\n\tstatic hits := 0\n\thits += 1\n\tMsgBox name\n}\nGreet(\"x\")\nMsgBox A_ScriptDir ; done\n"
	s, doc := openMain(t, nil, text)

	toks := s.SemanticTokens(doc)
	require.NotEmpty(t, toks)

	for i := 1; i < len(toks); i++ {
		assert.LessOrEqual(t, toks[i-1].Offset, toks[i].Offset)
	}

	tests := []struct {
		name   string
		needle string
		n      int
		typ    string
		mods   []string
	}{
		{"function declaration", "Greet", 0, TokenFunction, []string{ModDeclaration}},
		{"function call", "Greet", 1, TokenFunction, nil},
		{"parameter declaration", "name", 0, TokenParameter, []string{ModDeclaration}},
		{"parameter use", "name", 1, TokenParameter, nil},
		{"keyword", "static", 0, TokenKeyword, nil},
		{"static declaration", "hits", 0, TokenVariable, []string{ModDeclaration, ModStatic}},
		{"static modification", "hits", 1, TokenVariable, []string{ModModification, ModStatic}},
		{"built-in function", "MsgBox", 0, TokenFunction, []string{ModDefaultLibrary}},
		{"built-in variable", "A_ScriptDir", 0, TokenVariable, []string{ModDefaultLibrary, ModReadonly}},
		{"number", "0", 0, TokenNumber, nil},
		{"string", "\"x\"", 0, TokenString, nil},
		{"comment", "; done", 0, TokenComment, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := tokenAt(t, toks, offsetOf(t, text, tt.needle, tt.n))
			assert.Equal(t, tt.typ, tok.Type)

			if tt.mods == nil {
				assert.Empty(t, tok.Modifiers)
			} else {
				assert.ElementsMatch(t, tt.mods, tok.Modifiers)
			}
		})
	}
}

func TestSemanticTokens_Classes(t *testing.T) {
	text := "class Box {\n\tsize := 1\n\tOpen() {\n\t\treturn this.size\n\t}\n}\nb := Box()\nb.Open()\nstart:\ngoto start\n"
	s, doc := openMain(t, nil, text)

	toks := s.SemanticTokens(doc)

	tests := []struct {
		name   string
		needle string
		n      int
		typ    string
	}{
		{"class declaration", "Box", 0, TokenClass},
		{"class use", "Box", 1, TokenClass},
		{"field", "size", 0, TokenProperty},
		{"method declaration", "Open", 0, TokenMethod},
		{"this", "this", 0, TokenKeyword},
		{"label declaration", "start", 0, TokenLabel},
		{"goto target", "start", 1, TokenLabel},
		{"global variable", "b :=", 0, TokenVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := tokenAt(t, toks, offsetOf(t, text, tt.needle, tt.n))
			assert.Equal(t, tt.typ, tok.Type)
		})
	}
}
