package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		opts     func(*Options)
		expected string
	}{
		{
			name:     "class body is indented",
			src:      "class A {\n x := 1\n}",
			expected: "class A {\n\tx := 1\n}",
		},
		{
			name:     "hotkey one-liner is untouched",
			src:      `F1::MsgBox("hi")`,
			expected: `F1::MsgBox("hi")`,
		},
		{
			name:     "assignment spacing",
			src:      "x:=1",
			expected: "x := 1",
		},
		{
			name:     "command argument keeps unary minus",
			src:      "MsgBox -1",
			expected: "MsgBox -1",
		},
		{
			name:     "else is glued to the closing brace",
			src:      "if x {\ny()\n}\nelse {\nz()\n}",
			expected: "if x {\n\ty()\n} else {\n\tz()\n}",
		},
		{
			name:     "end-expand starts else on its own line",
			src:      "if x {\ny()\n} else {\nz()\n}",
			opts:     func(o *Options) { o.BraceStyle = BraceEndExpand },
			expected: "if x {\n\ty()\n}\nelse {\n\tz()\n}",
		},
		{
			name:     "expand moves the brace down",
			src:      "f() {\nreturn 1\n}",
			opts:     func(o *Options) { o.BraceStyle = BraceExpand },
			expected: "f()\n{\n\treturn 1\n}",
		},
		{
			name:     "collapse pulls a function brace up",
			src:      "f()\n{\nreturn 1\n}",
			expected: "f() {\n\treturn 1\n}",
		},
		{
			name:     "single statement body",
			src:      "if x\ny()\nz()",
			expected: "if x\n\ty()\nz()",
		},
		{
			name:     "nested single statement bodies",
			src:      "if a\nif b\nc()\nelse\nd()\ne()",
			expected: "if a\n\tif b\n\t\tc()\n\telse\n\t\td()\ne()",
		},
		{
			name:     "switch cases",
			src:      "switch x {\ncase 1:\ny()\ndefault:\nz()\n}",
			expected: "switch x {\n\tcase 1:\n\t\ty()\n\tdefault:\n\t\tz()\n}",
		},
		{
			name:     "switch case alignment",
			src:      "switch x {\ncase 1:\ny()\n}",
			opts:     func(o *Options) { o.SwitchCaseAlignment = true },
			expected: "switch x {\ncase 1:\n\ty()\n}",
		},
		{
			name:     "hotkey block",
			src:      "F1::{\nMsgBox 1\n}",
			expected: "F1:: {\n\tMsgBox 1\n}",
		},
		{
			name:     "object literal collapse",
			src:      "x := {\n\ta: 1,\n\tb: 2\n}",
			opts:     func(o *Options) { o.ObjectStyle = LiteralCollapse },
			expected: "x := {a: 1, b: 2}",
		},
		{
			name:     "array literal padding",
			src:      "x := [1,2]",
			opts:     func(o *Options) { o.SpaceInOther = true },
			expected: "x := [ 1, 2 ]",
		},
		{
			name:     "blank lines are capped",
			src:      "a := 1\n\n\n\n\nb := 2",
			expected: "a := 1\n\n\nb := 2",
		},
		{
			name:     "blank lines dropped without preserve",
			src:      "a := 1\n\nb := 2",
			opts:     func(o *Options) { o.PreserveNewlines = false },
			expected: "a := 1\nb := 2",
		},
		{
			name:     "trailing comment keeps its gap",
			src:      "x := 1    ; note",
			expected: "x := 1    ; note",
		},
		{
			name:     "keyword capitalisation",
			src:      "if x {\nreturn\n}",
			opts:     func(o *Options) { o.KeywordStartWithUppercase = true },
			expected: "If x {\n\tReturn\n}",
		},
		{
			name:     "space before conditional paren",
			src:      "if(x) {\ny()\n}",
			expected: "if (x) {\n\ty()\n}",
		},
		{
			name:     "continuation line",
			src:      "x := a\n&& b",
			expected: "x := a\n\t&& b",
		},
		{
			name:     "indent string",
			src:      "f() {\nx := 1\n}",
			opts:     func(o *Options) { o.IndentString = "    " },
			expected: "f() {\n    x := 1\n}",
		},
		{
			name:     "trailing newline is kept",
			src:      "x:=1\n",
			expected: "x := 1\n",
		},
		{
			name:     "hotstring section is untouched",
			src:      "::sig::\n(\n  Best regards\n)\nx:=1",
			expected: "::sig::\n(\n  Best regards\n)\nx := 1",
		},
		{
			name:     "escaped semicolon hotkey is untouched",
			src:      "`;::MsgBox( 1 )",
			expected: "`;::MsgBox( 1 )",
		},
		{
			name:     "compact ternary",
			src:      "x := a?b:c",
			expected: "x := a ? b : c",
		},
		{
			name:     "ternary after parenthesis",
			src:      "y := (a)?1:2",
			expected: "y := (a) ? 1 : 2",
		},
		{
			name:     "unset-tolerant argument",
			src:      "f(x?)",
			expected: "f(x?)",
		},
		{
			name:     "open block comment at end of file",
			src:      "/* x\n",
			expected: "/* x\n",
		},
		{
			name:     "crlf line endings",
			src:      "f() {\r\nx := 1\r\n}\r\n",
			expected: "f() {\r\n\tx := 1\r\n}\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}

			assert.Equal(t, tt.expected, Format(tt.src, opts))
		})
	}
}

func TestFormat_Idempotent(t *testing.T) {
	samples := []string{
		"class A {\n x := 1\n  Foo(a, b := 2) {\n return a+b\n }\n}\n",
		"if x {\ny()\n}\nelse if z\nw()\nelse {\nv()\n}\n",
		"try {\nrisky()\n}\ncatch Error as e {\nMsgBox e.Message\n}\nfinally {\ncleanup()\n}\n",
		"loop 3 {\ni++\n} until i > 2\n",
		"F1::MsgBox(\"hi\")\nF2:: {\nSend \"x\"\n}\n",
		"x := {a: 1, b: [1,2,3]}\ny := x.a ? 1 : 2\n",
		"/* block\n   comment */\nfor k, v in m {\n; inner\nMsgBox k\n}\n",
		"/* x\n",
		"s := \"\n(\nabc\n",
		"x := a?b:c\ny := (a)?1:2\n",
	}

	for _, opts := range []Options{DefaultOptions(), func() Options {
		o := DefaultOptions()
		o.BraceStyle = BraceExpand
		o.ObjectStyle = LiteralExpand

		return o
	}()} {
		for _, src := range samples {
			once := Format(src, opts)
			assert.Equal(t, once, Format(once, opts), "second pass changed %q", src)
		}
	}
}

func TestFormatRange(t *testing.T) {
	text := "f() {\n\tx:=1\n\ty:=2\n}\n"

	start := len("f() {\n")
	end := start + len("\tx:=1\n")

	edit := FormatRange(text, start, end, DefaultOptions())

	assert.Equal(t, start, edit.Start)
	assert.Equal(t, start+len("\tx:=1"), edit.End)
	assert.Equal(t, "\tx := 1", edit.Text)

	// a range inside a line covers the whole line
	edit = FormatRange(text, start+2, start+3, DefaultOptions())
	assert.Equal(t, start, edit.Start)
	assert.Equal(t, "\tx := 1", edit.Text)
}

func TestOptions_YAML(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected BraceStyle
	}{
		{"canonical", "brace_style: expand", BraceExpand},
		{"allman alias", "brace_style: Allman", BraceExpand},
		{"1tbs alias", "brace_style: 1tbs", BraceCollapse},
		{"variant alias", "brace_style: one-true-brace-variant", BraceEndExpand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			require.NoError(t, yaml.Unmarshal([]byte(tt.src), &opts))
			assert.Equal(t, tt.expected, opts.BraceStyle)
			assert.Equal(t, "\t", opts.IndentString, "unset fields keep their defaults")
		})
	}

	var opts Options
	require.Error(t, yaml.Unmarshal([]byte("brace_style: sideways"), &opts))

	require.NoError(t, yaml.Unmarshal([]byte("object_style: expand\narray_style: collapse"), &opts))
	assert.Equal(t, LiteralExpand, opts.ObjectStyle)
	assert.Equal(t, LiteralCollapse, opts.ArrayStyle)
}
