// Package diag defines the closed set of diagnostics reported by the scanner,
// parser and resolver.
package diag

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Code identifies a diagnostic class. The set is closed: every diagnostic the
// analysis core produces carries one of the codes below.
type Code string

// Syntax errors.
const (
	UnexpectedToken      Code = "E_UNEXPECTED_TOKEN"
	MissingDelimiter     Code = "E_MISSING_DELIMITER"
	InvalidName          Code = "E_INVALID_NAME"
	InvalidParameter     Code = "E_INVALID_PARAMETER"
	InvalidProperty      Code = "E_INVALID_PROPERTY"
	InvalidObjectLiteral Code = "E_INVALID_OBJECT_LITERAL"
	UnterminatedString   Code = "E_UNTERMINATED_STRING"
	UnterminatedComment  Code = "E_UNTERMINATED_COMMENT"
)

// Scope conflicts.
const (
	SameName             Code = "E_SAME_NAME"
	DuplicateDeclaration Code = "E_DUPLICATE_DECLARATION"
	DuplicateLabel       Code = "E_DUPLICATE_LABEL"
	AssignToNonVariable  Code = "E_ASSIGN_NON_VARIABLE"
)

// Call-shape errors.
const (
	TooManyParams Code = "E_TOO_MANY_PARAMS"
	MissingParam  Code = "E_MISSING_PARAM"
	MissingByRef  Code = "W_MISSING_BYREF"
	MissingReturn Code = "W_MISSING_RETURN"
)

// Lint warnings.
const (
	VarUnset               Code = "W_VAR_UNSET"
	LocalSameAsGlobal      Code = "H_LOCAL_SAME_AS_GLOBAL"
	CallWithoutParentheses Code = "H_CALL_WITHOUT_PARENS"
	UnknownMember          Code = "W_UNKNOWN_MEMBER"
)

// Resource errors.
const (
	IncludeNotFound Code = "E_INCLUDE_NOT_FOUND"
	IncludeInvalid  Code = "E_INCLUDE_INVALID"
)

// Diagnostic is an offset-based problem report. Conversion to line/character
// positions happens at the protocol boundary.
type Diagnostic struct {
	Start   int
	End     int
	Code    Code
	Message string
}

// New creates a diagnostic with a formatted message.
func New(code Code, start, end int, format string, args ...any) Diagnostic {
	if end < start {
		end = start
	}

	return Diagnostic{
		Start:   start,
		End:     end,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Severity maps a diagnostic code to its LSP severity.
func (c Code) Severity() protocol.DiagnosticSeverity {
	switch c {
	case VarUnset, MissingByRef, MissingReturn, UnknownMember:
		return protocol.DiagnosticSeverityWarning
	case LocalSameAsGlobal, CallWithoutParentheses:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

// Tags maps a diagnostic code to LSP diagnostic tags.
func (c Code) Tags() []protocol.DiagnosticTag {
	switch c {
	case LocalSameAsGlobal:
		return []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
	}

	return nil
}

// Toggle names the user setting that can disable a lint code. Codes that
// cannot be disabled return "".
func (c Code) Toggle() string {
	switch c {
	case VarUnset:
		return "var_unset"
	case LocalSameAsGlobal:
		return "local_same_as_global"
	case CallWithoutParentheses:
		return "call_without_parentheses"
	case UnknownMember:
		return "class_non_dynamic_member_check"
	case TooManyParams, MissingParam, MissingByRef:
		return "params_check"
	}

	return ""
}
