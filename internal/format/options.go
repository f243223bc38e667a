// Package format reformats AutoHotkey v2 source from its token stream.
package format

import (
	"fmt"
	"strings"
)

// BraceStyle controls where block braces go.
type BraceStyle int

const (
	// BraceCollapse keeps "{" on the head line and glues else/catch/finally/until to "}".
	BraceCollapse BraceStyle = iota
	// BraceExpand puts every block brace on its own line.
	BraceExpand
	// BraceEndExpand keeps "{" on the head line but starts else/catch/finally/until on a new line.
	BraceEndExpand
)

var braceStyleNames = map[string]BraceStyle{
	"collapse":               BraceCollapse,
	"1tbs":                   BraceCollapse,
	"one-true-brace":         BraceCollapse,
	"expand":                 BraceExpand,
	"allman":                 BraceExpand,
	"end-expand":             BraceEndExpand,
	"1tbs-variant":           BraceEndExpand,
	"one-true-brace-variant": BraceEndExpand,
}

func (b BraceStyle) String() string {
	switch b {
	case BraceExpand:
		return "expand"
	case BraceEndExpand:
		return "end-expand"
	}

	return "collapse"
}

// UnmarshalText accepts the style names and their aliases.
func (b *BraceStyle) UnmarshalText(text []byte) error {
	v, ok := braceStyleNames[strings.ToLower(strings.TrimSpace(string(text)))]
	if !ok {
		return fmt.Errorf("unknown brace style %q", text)
	}

	*b = v

	return nil
}

// MarshalText renders the canonical style name.
func (b BraceStyle) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// LiteralStyle controls how object and array literals are laid out.
type LiteralStyle int

const (
	// LiteralNone keeps the author's line breaks.
	LiteralNone LiteralStyle = iota
	// LiteralCollapse puts the literal on one line.
	LiteralCollapse
	// LiteralExpand puts every item on its own line.
	LiteralExpand
)

func (l LiteralStyle) String() string {
	switch l {
	case LiteralCollapse:
		return "collapse"
	case LiteralExpand:
		return "expand"
	}

	return "none"
}

// UnmarshalText parses "none", "collapse" or "expand".
func (l *LiteralStyle) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "none":
		*l = LiteralNone
	case "collapse":
		*l = LiteralCollapse
	case "expand":
		*l = LiteralExpand
	default:
		return fmt.Errorf("unknown literal style %q", text)
	}

	return nil
}

// MarshalText renders the style name.
func (l LiteralStyle) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Options configures the formatter. The field tags match the "ahk2.format"
// client settings and the YAML configuration file.
type Options struct {
	ArrayStyle                LiteralStyle `yaml:"array_style" json:"array_style"`
	ObjectStyle               LiteralStyle `yaml:"object_style" json:"object_style"`
	BraceStyle                BraceStyle   `yaml:"brace_style" json:"brace_style"`
	BreakChainedMethods       bool         `yaml:"break_chained_methods" json:"break_chained_methods"`
	IndentString              string       `yaml:"indent_string" json:"indent_string"`
	IndentBetweenHotIf        bool         `yaml:"indent_between_hotif" json:"indent_between_hotif"`
	KeywordStartWithUppercase bool         `yaml:"keyword_start_with_uppercase" json:"keyword_start_with_uppercase"`
	// MaxPreserveNewlines caps consecutive blank lines; 0 means no cap.
	MaxPreserveNewlines    int  `yaml:"max_preserve_newlines" json:"max_preserve_newlines"`
	PreserveNewlines       bool `yaml:"preserve_newlines" json:"preserve_newlines"`
	SpaceBeforeConditional bool `yaml:"space_before_conditional" json:"space_before_conditional"`
	// SpaceAfterDoubleColon separates a hotkey from a "{" on the same line.
	SpaceAfterDoubleColon bool `yaml:"space_after_double_colon" json:"space_after_double_colon"`
	SpaceInEmptyParen     bool `yaml:"space_in_empty_paren" json:"space_in_empty_paren"`
	SpaceInParen          bool `yaml:"space_in_paren" json:"space_in_paren"`
	// SpaceInOther pads single-line object and array literals.
	SpaceInOther        bool `yaml:"space_in_other" json:"space_in_other"`
	SwitchCaseAlignment bool `yaml:"switch_case_alignment" json:"switch_case_alignment"`
	// WrapLineLength breaks bracketed lists after a comma once a line grows
	// past it; 0 disables wrapping.
	WrapLineLength int `yaml:"wrap_line_length" json:"wrap_line_length"`
}

// DefaultOptions returns the settings used when the client sends none.
func DefaultOptions() Options {
	return Options{
		BraceStyle:             BraceCollapse,
		IndentString:           "\t",
		MaxPreserveNewlines:    2,
		PreserveNewlines:       true,
		SpaceBeforeConditional: true,
		SpaceAfterDoubleColon:  true,
	}
}

func (o Options) indent(level int) string {
	if level <= 0 {
		return ""
	}

	unit := o.IndentString
	if unit == "" {
		unit = "\t"
	}

	return strings.Repeat(unit, level)
}

// indentLevel counts the indentation units at the start of line. A tab
// always counts as one unit.
func (o Options) indentLevel(line string) int {
	unit := o.IndentString
	if unit == "" {
		unit = "\t"
	}

	level := 0

	for line != "" {
		switch {
		case strings.HasPrefix(line, unit):
			line = line[len(unit):]
		case line[0] == '\t':
			line = line[1:]
		default:
			return level
		}

		level++
	}

	return level
}
