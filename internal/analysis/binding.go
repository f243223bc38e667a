// Package analysis resolves scopes, infers types and answers symbol queries
// over parsed AutoHotkey documents.
package analysis

import (
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// BindingKind classifies what a name is bound to.
type BindingKind uint8

const (
	BindUnresolved BindingKind = iota
	BindLocal
	BindParam
	BindStatic
	BindGlobal
	BindFunction
	BindClass
	BindThis
	BindBuiltin
)

var bindingNames = [...]string{
	BindUnresolved: "unresolved",
	BindLocal:      "local",
	BindParam:      "parameter",
	BindStatic:     "static",
	BindGlobal:     "global",
	BindFunction:   "function",
	BindClass:      "class",
	BindThis:       "this",
	BindBuiltin:    "built-in",
}

func (k BindingKind) String() string {
	if int(k) < len(bindingNames) {
		return bindingNames[k]
	}

	return "invalid"
}

// IsVariable reports whether the binding names storage rather than a
// function or class.
func (k BindingKind) IsVariable() bool {
	switch k {
	case BindLocal, BindParam, BindStatic, BindGlobal:
		return true
	}

	return false
}

// Binding is one resolved name. Every reference that resolves to the same
// storage shares the same *Binding.
type Binding struct {
	Kind BindingKind
	Name string

	// Doc is the document holding Decl. For bindings taken from an included
	// document it differs from the document being resolved.
	Doc *parser.Document
	// Decl is the declaring node: the first definition for implicit
	// variables, the function or class node otherwise.
	Decl symbols.Handle
	// Owner is the scope that owns the storage; NoHandle for globals.
	Owner symbols.Handle

	// Assigned is set when any definition in the resolved documents writes
	// to the binding.
	Assigned bool
	// Typed is set when a declaration carries an @type annotation.
	Typed bool
}

// Env is the flattened name table of one scope.
type Env struct {
	Owner symbols.Handle
	// Parent is the enclosing function's table for closures; nil otherwise.
	Parent       *Env
	Names        map[string]*Binding
	AssumeGlobal bool

	// implicit lists the names bound as implicit locals, in source order.
	implicit []string
	// unresolved holds one placeholder per name that matched nothing.
	unresolved map[string]*Binding
}

func newEnv(owner symbols.Handle, parent *Env) *Env {
	return &Env{
		Owner:      owner,
		Parent:     parent,
		Names:      make(map[string]*Binding),
		unresolved: make(map[string]*Binding),
	}
}

// lookup walks the closure chain.
func (e *Env) lookup(key string) (*Binding, bool) {
	for cur := e; cur != nil; cur = cur.Parent {
		if b, ok := cur.Names[key]; ok {
			return b, true
		}
	}

	return nil, false
}

// Bound is the result of resolving one document.
type Bound struct {
	Doc *parser.Document

	// Globals holds document-wide bindings: top-level variables, functions,
	// classes and every name declared global anywhere.
	Globals map[string]*Binding
	// Envs maps each scope owner (function, method, hotkey) to its table.
	// The document scope is stored under NoHandle.
	Envs map[symbols.Handle]*Env
	// Refs maps every variable node to the binding it resolved to.
	Refs map[symbols.Handle]*Binding
}

func newBound(doc *parser.Document) *Bound {
	return &Bound{
		Doc:     doc,
		Globals: make(map[string]*Binding),
		Envs:    make(map[symbols.Handle]*Env),
		Refs:    make(map[symbols.Handle]*Binding),
	}
}

// EnvAt returns the table of the innermost scope containing offset.
func (b *Bound) EnvAt(offset int) *Env {
	if env, ok := b.Envs[b.Doc.Tree.Enclosing(offset)]; ok {
		return env
	}

	return b.Envs[symbols.NoHandle]
}

// Lookup resolves name as seen from offset: the scope chain first, then the
// document globals.
func (b *Bound) Lookup(name string, offset int) (*Binding, bool) {
	key := symbols.Key(name)

	if env := b.EnvAt(offset); env != nil {
		if bd, ok := env.lookup(key); ok {
			return bd, true
		}
	}

	bd, ok := b.Globals[key]

	return bd, ok
}

// References returns the variable nodes bound to bd, in creation order.
func (b *Bound) References(bd *Binding) []symbols.Handle {
	var out []symbols.Handle

	b.Doc.Tree.Each(func(h symbols.Handle, _ symbols.Node) {
		if b.Refs[h] == bd {
			out = append(out, h)
		}
	})

	return out
}
