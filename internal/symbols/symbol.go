// Package symbols defines the symbol tree built by the parser: a tagged union
// of symbol kinds stored in an arena and addressed by handles.
package symbols

import "strings"

// Kind enumerates the symbol variants.
type Kind uint8

const (
	KindVariable Kind = iota
	KindFunction
	KindMethod
	KindProperty
	KindClass
	KindLabel
	KindEvent
)

var kindNames = [...]string{
	KindVariable: "variable",
	KindFunction: "function",
	KindMethod:   "method",
	KindProperty: "property",
	KindClass:    "class",
	KindLabel:    "label",
	KindEvent:    "hotkey",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "invalid"
}

// Range is a half-open byte range in the document text.
type Range struct {
	Start int
	End   int
}

// Contains reports whether offset lies within the range. The end offset is
// inclusive so a cursor placed right after a name still hits it.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset <= r.End
}

// Covers reports whether o lies entirely within r.
func (r Range) Covers(o Range) bool {
	return o.Start >= r.Start && o.End <= r.End
}

// Header holds the fields shared by every symbol kind.
type Header struct {
	Kind      Kind
	Name      string
	Range     Range // whole declaration
	Selection Range // the name only; always within Range
	Parent    Handle
	Children  []Handle
	Doc       string // attached doc comment, markers stripped
}

// Head returns the shared header.
func (h *Header) Head() *Header {
	return h
}

// Node is implemented by every symbol variant.
type Node interface {
	Head() *Header
}

// Param describes one function, method or property parameter.
type Param struct {
	Name     string
	Range    Range
	ByRef    bool
	Variadic bool
	Optional bool
	Default  string // default value expression text
	Handle   Handle // the Variable node declaring the parameter
}

// CallSite records a call expression inside a scope.
type CallSite struct {
	Name     string // callee text, possibly dotted
	Range    Range  // callee name
	Args     Range  // inside the parentheses
	ArgCount int
	ByRef    []bool // per argument, whether it was passed as &x
	Empty    []bool // per argument, whether it was omitted (f(a,,b))
	Spread   bool   // an argument is expanded with args*
	Paren    bool   // false for command-style calls (MsgBox "x")
	Used     bool   // the result is consumed by an enclosing expression
}

// Expr is an expression captured as text for later inference.
type Expr struct {
	Text   string
	Offset int
}

// Variable is a reference to, or definition of, a variable.
type Variable struct {
	Header

	IsDef    bool
	Assign   Expr   // right-hand side for definitions; empty otherwise
	Type     string // explicit @type annotation
	Static   bool   // class static field or function static declaration
	Declared string // "local", "global", "static" or "" for implicit
	Param    bool
	ByRef    bool // defined through an &x argument or by-ref parameter
}

// Function is a function, method, closure or hotkey body.
type Function struct {
	Header
	Scope

	Params     []Param
	Static     bool
	Arrow      bool
	Closure    bool
	ReturnType string // explicit @returns annotation
}

// MinParams returns the number of required parameters.
func (f *Function) MinParams() int {
	n := 0
	for _, p := range f.Params {
		if !p.Optional && !p.Variadic && p.Default == "" {
			n++
		}
	}

	return n
}

// MaxParams returns the parameter limit, or -1 for variadic functions.
func (f *Function) MaxParams() int {
	for _, p := range f.Params {
		if p.Variadic {
			return -1
		}
	}

	return len(f.Params)
}

// Property is a class property with optional getter, setter and call bodies.
type Property struct {
	Header

	Params []Param
	Static bool
	Get    Handle
	Set    Handle
	Call   Handle
}

// Class is a class declaration.
type Class struct {
	Header

	Extends      string
	ExtendsRange Range
	StaticDecl   map[string]Handle
	InstanceDecl map[string]Handle
}

// Label is a goto label or a reference to one.
type Label struct {
	Header

	IsDef bool
}

// Event is a hotkey or hotstring with its body scope.
type Event struct {
	Header
	Scope

	Hotstring bool
	Options   string
}

// Key folds a name for case-insensitive lookup.
func Key(name string) string {
	return strings.ToUpper(name)
}
