package syntax

import (
	"testing"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kinds returns the kind and text of every non-EOF token.
func kinds(toks []Token) ([]Kind, []string) {
	var ks []Kind

	var texts []string

	for _, t := range toks {
		if t.Kind == EOF {
			break
		}

		ks = append(ks, t.Kind)
		texts = append(texts, t.Text)
	}

	return ks, texts
}

func TestTokenize_Basic(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kinds []Kind
		texts []string
	}{
		{
			name:  "assignment",
			src:   "x := 1 + 2",
			kinds: []Kind{Identifier, Operator, Number, Operator, Number},
			texts: []string{"x", ":=", "1", "+", "2"},
		},
		{
			name:  "call with string",
			src:   `MsgBox("hi")`,
			kinds: []Kind{Identifier, Operator, String, Operator},
			texts: []string{"MsgBox", "(", `"hi"`, ")"},
		},
		{
			name:  "keywords are case insensitive",
			src:   "If x Return",
			kinds: []Kind{Keyword, Identifier, Keyword},
			texts: []string{"If", "x", "Return"},
		},
		{
			name:  "hex and float",
			src:   "0xFF 1.5e3",
			kinds: []Kind{Number, Number},
			texts: []string{"0xFF", "1.5e3"},
		},
		{
			name:  "longest operator wins",
			src:   "a >>>= b",
			kinds: []Kind{Identifier, Operator, Identifier},
			texts: []string{"a", ">>>=", "b"},
		},
		{
			name:  "member access",
			src:   "obj.prop",
			kinds: []Kind{Identifier, Operator, Identifier},
			texts: []string{"obj", ".", "prop"},
		},
		{
			name:  "escaped quote",
			src:   "s := \"a`\"b\"",
			kinds: []Kind{Identifier, Operator, String},
			texts: []string{"s", ":=", "\"a`\"b\""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, sc := Tokenize(tt.src)
			ks, texts := kinds(toks)

			assert.Equal(t, tt.kinds, ks)
			assert.Equal(t, tt.texts, texts)
			assert.Empty(t, sc.Diagnostics())
		})
	}
}

func TestTokenize_LineStartConstructs(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kind  Kind
		text  string
	}{
		{"hotkey", "F1::MsgBox()", Hotkey, "F1::"},
		{"modified hotkey", "#a::Run()", Hotkey, "#a::"},
		{"combination hotkey", "a & b::x()", Hotkey, "a & b::"},
		{"escaped semicolon hotkey", "`;::MsgBox()", Hotkey, "`;::"},
		{"escaped semicolon combination", "a & `;::x()", Hotkey, "a & `;::"},
		{"hotstring", "::btw::by the way", Hotstring, "::btw::"},
		{"hotstring with options", ":*:addr::Main Street", Hotstring, ":*:addr::"},
		{"directive", "#Include lib.ahk", Directive, "#Include lib.ahk"},
		{"directive trailing comment", "#Requires AutoHotkey v2.0 ; version", Directive, "#Requires AutoHotkey v2.0"},
		{"label", "start:", Label, "start:"},
		{"line comment", "; note", Comment, "; note"},
		{"block comment", "/* a\n b */", Comment, "/* a\n b */"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, _ := Tokenize(tt.src)
			require.NotEmpty(t, toks)

			assert.Equal(t, tt.kind, toks[0].Kind)
			assert.Equal(t, tt.text, toks[0].Text)
			assert.True(t, toks[0].NewLine)
		})
	}
}

func TestTokenize_KeywordIsNotLabel(t *testing.T) {
	toks, _ := Tokenize("default:")

	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, Operator, toks[1].Kind)
}

func TestTokenize_HotstringReplacement(t *testing.T) {
	toks, sc := Tokenize("::btw::by the way ; comment\nx := 1")

	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, Hotstring, toks[0].Kind)
	assert.Equal(t, String, toks[1].Kind)
	assert.Equal(t, "by the way", toks[1].Text)
	assert.Equal(t, Comment, toks[2].Kind)
	assert.True(t, sc.Spans().IsText(toks[1].Offset))
}

func TestTokenize_HotstringSectionReplacement(t *testing.T) {
	src := "::sig::\n(\nBest regards\nJane\n)\nx := 1"
	toks, sc := Tokenize(src)

	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, Hotstring, toks[0].Kind)
	assert.Equal(t, String, toks[1].Kind)
	assert.Equal(t, "(\nBest regards\nJane\n)", toks[1].Text)
	assert.False(t, toks[1].NewLine)
	assert.Equal(t, 1, toks[1].Breaks)
	assert.True(t, sc.Spans().IsText(toks[1].Offset+3))

	assert.Equal(t, Identifier, toks[2].Kind)
	assert.Equal(t, "x", toks[2].Text)
	assert.True(t, toks[2].NewLine)
}

func TestTokenize_ExecuteHotstringHasNoReplacement(t *testing.T) {
	toks, _ := Tokenize(":X:go::Run()")
	ks, _ := kinds(toks)

	assert.Equal(t, []Kind{Hotstring, Identifier, Operator, Operator}, ks)
}

func TestTokenize_SemicolonNeedsSpace(t *testing.T) {
	toks, _ := Tokenize("x := 1 ; one\ny := a;b")
	ks, _ := kinds(toks)

	assert.Equal(t, []Kind{
		Identifier, Operator, Number, Comment,
		Identifier, Operator, Identifier, Unknown, Identifier,
	}, ks)
}

func TestTokenize_ContinuationString(t *testing.T) {
	src := "s := \"\n(\nline one\nline two\n)\"\nx := 1"
	toks, sc := Tokenize(src)

	require.GreaterOrEqual(t, len(toks), 4)
	assert.Equal(t, String, toks[2].Kind)
	assert.True(t, toks[2].Multiline())
	assert.Contains(t, toks[2].Text, "line two")
	assert.Equal(t, "x", toks[3].Text)
	assert.True(t, toks[3].NewLine)
	assert.Empty(t, sc.Diagnostics())
}

func TestTokenize_Unterminated(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"string", `x := "abc`, diag.UnterminatedString},
		{"block comment", "/* never closed", diag.UnterminatedComment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sc := Tokenize(tt.src)

			require.Len(t, sc.Diagnostics(), 1)
			assert.Equal(t, tt.code, sc.Diagnostics()[0].Code)
		})
	}
}

func TestTokenize_Flags(t *testing.T) {
	toks, _ := Tokenize("a\n\n  b c")

	require.GreaterOrEqual(t, len(toks), 3)
	assert.True(t, toks[0].NewLine)
	assert.True(t, toks[1].NewLine)
	assert.Equal(t, 2, toks[1].Breaks)
	assert.True(t, toks[1].Space)
	assert.False(t, toks[2].NewLine)
	assert.True(t, toks[2].Space)
}

func TestScanner_NextIsMemoized(t *testing.T) {
	sc := NewScanner("foo bar")

	first, next := sc.Next(0)
	again, next2 := sc.Next(0)

	assert.Equal(t, first, again)
	assert.Equal(t, next, next2)

	second, _ := sc.Next(next)
	assert.Equal(t, "bar", second.Text)
}

func TestSpans(t *testing.T) {
	src := "x := \"str\" ; c"
	_, sc := Tokenize(src)

	spans := sc.Spans()

	assert.True(t, spans.IsText(6))
	assert.True(t, spans.IsText(12))
	assert.False(t, spans.IsText(0))

	all := spans.All()
	require.Len(t, all, 2)
	assert.Equal(t, String, all[0].Kind)
	assert.Equal(t, Comment, all[1].Kind)
}

func TestSpans_RejectsOverlap(t *testing.T) {
	var s Spans

	s.Add(0, 10, String)
	s.Add(5, 15, Comment)
	s.Add(10, 12, Comment)

	assert.Len(t, s.All(), 2)
}

func TestDirectiveName(t *testing.T) {
	name, args := DirectiveName("#Include <Lib>")

	assert.Equal(t, "Include", name)
	assert.Equal(t, "<Lib>", args)
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("abc_1"))
	assert.True(t, IsIdentifier("_x"))
	assert.False(t, IsIdentifier("1abc"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("a-b"))
}
