// Package syntax implements lexical analysis for AutoHotkey v2 source.
package syntax

import (
	"sort"
	"strings"
)

// Kind classifies a token.
type Kind uint8

const (
	EOF Kind = iota
	Identifier
	Keyword
	Number
	String
	Comment
	Operator
	Directive
	Label
	Hotkey
	Hotstring
	Unknown
)

var kindNames = [...]string{
	EOF:        "EOF",
	Identifier: "identifier",
	Keyword:    "keyword",
	Number:     "number",
	String:     "string",
	Comment:    "comment",
	Operator:   "operator",
	Directive:  "directive",
	Label:      "label",
	Hotkey:     "hotkey",
	Hotstring:  "hotstring",
	Unknown:    "unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "invalid"
}

// Hint is a semantic classification attached to a token by the parser.
type Hint uint8

const (
	HintNone Hint = iota
	HintVariable
	HintParameter
	HintFunction
	HintMethod
	HintClass
	HintProperty
	HintLabel
	HintEvent
)

// Token is a single lexical element.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
	Len    int

	// NewLine reports that the token is the first one on its physical line.
	NewLine bool
	// Breaks is the number of line breaks between the previous token and this one.
	Breaks int
	// Space reports that whitespace separates the token from the previous one
	// on the same line.
	Space bool

	// Hint is filled in by the parser for identifiers it could classify.
	Hint Hint
}

// End returns the offset just past the token.
func (t Token) End() int {
	return t.Offset + t.Len
}

// Is reports whether the token is an operator or keyword with the given text.
// Keywords compare case-insensitively.
func (t Token) Is(text string) bool {
	switch t.Kind {
	case Operator:
		return t.Text == text
	case Keyword, Identifier:
		return strings.EqualFold(t.Text, text)
	}

	return false
}

// IsKeyword reports whether the token is the given keyword.
func (t Token) IsKeyword(word string) bool {
	return t.Kind == Keyword && strings.EqualFold(t.Text, word)
}

// Multiline reports whether the token text spans more than one line.
func (t Token) Multiline() bool {
	return strings.IndexByte(t.Text, '\n') >= 0
}

var keywords = map[string]bool{
	"and":      true,
	"as":       true,
	"break":    true,
	"case":     true,
	"catch":    true,
	"class":    true,
	"contains": true,
	"continue": true,
	"default":  true,
	"else":     true,
	"extends":  true,
	"false":    true,
	"finally":  true,
	"for":      true,
	"global":   true,
	"goto":     true,
	"if":       true,
	"in":       true,
	"is":       true,
	"local":    true,
	"loop":     true,
	"not":      true,
	"or":       true,
	"return":   true,
	"static":   true,
	"switch":   true,
	"throw":    true,
	"true":     true,
	"try":      true,
	"unset":    true,
	"until":    true,
	"while":    true,
}

// IsKeyword reports whether word is a reserved word.
func IsKeyword(word string) bool {
	return keywords[strings.ToLower(word)]
}

// Keywords lists the reserved words in lower case, sorted.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// operators is ordered longest first for maximal munch.
var operators = []string{
	">>>=",
	">>>", "//=", ">>=", "<<=", "!==", "??=",
	":=", "+=", "-=", "*=", "/=", ".=", "|=", "&=", "^=",
	"++", "--", "**", "//", "<<", ">>", "==", "!=", "<=", ">=",
	"&&", "||", "??", "=>", "~=",
	"+", "-", "*", "/", ".", ",", "(", ")", "[", "]", "{", "}",
	"!", "~", "&", "|", "^", "<", ">", "=", "?", ":", "%",
}

// IsAssignOp reports whether op is an assignment operator.
func IsAssignOp(op string) bool {
	switch op {
	case ":=", "+=", "-=", "*=", "/=", "//=", ".=", "|=", "&=", "^=", ">>=", "<<=", ">>>=", "??=":
		return true
	}

	return false
}

// IsBinaryOp reports whether a token can sit between two operands. Word
// operators are included.
func IsBinaryOp(t Token) bool {
	switch t.Kind {
	case Operator:
		switch t.Text {
		case "+", "-", "*", "/", "//", "**", ".", "&", "|", "^", "<<", ">>", ">>>",
			"<", ">", "<=", ">=", "=", "==", "!=", "!==", "~=", "&&", "||", "??", "?", ":":
			return true
		}

		return IsAssignOp(t.Text)
	case Keyword:
		switch strings.ToLower(t.Text) {
		case "and", "or", "is", "in", "contains":
			return true
		}
	}

	return false
}
