package symbols

import "strings"

// Handle addresses a node in a Tree.
type Handle int32

// NoHandle is the zero reference; the document scope uses it as its owner.
const NoHandle Handle = -1

// Valid reports whether h refers to a node.
func (h Handle) Valid() bool {
	return h >= 0
}

// Scope holds the raw per-scope tables filled in by the parser. Maps are keyed
// by Key(name).
type Scope struct {
	Declaration  map[string]Handle
	Local        map[string]Handle
	Global       map[string]Handle
	Labels       []Handle
	AssumeGlobal bool
	CallSites    []CallSite
	Vars         []Handle
	Returns      []Expr
}

// NewScope returns a scope with its maps allocated.
func NewScope() Scope {
	return Scope{
		Declaration: make(map[string]Handle),
		Local:       make(map[string]Handle),
		Global:      make(map[string]Handle),
	}
}

// Tree is an arena of symbol nodes. Children are owned through handle lists;
// parents are stored as handles, never as pointers.
type Tree struct {
	nodes []Node

	// Roots are the top-level symbols in source order.
	Roots []Handle
	// Root is the document-level (auto-execute) scope.
	Root Scope
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{Root: NewScope()}
}

// Add stores n under parent and lists it among the parent's children.
func (t *Tree) Add(parent Handle, n Node) Handle {
	h := t.AddDetached(parent, n)

	if parent.Valid() {
		ph := t.nodes[parent].Head()
		ph.Children = append(ph.Children, h)
	} else {
		t.Roots = append(t.Roots, h)
	}

	return h
}

// AddDetached stores n with a parent link but without listing it as a child.
// Variable references use this so they never show up in the outline.
func (t *Tree) AddDetached(parent Handle, n Node) Handle {
	h := Handle(len(t.nodes))
	n.Head().Parent = parent
	t.nodes = append(t.nodes, n)

	return h
}

// Get returns the node for h, or nil.
func (t *Tree) Get(h Handle) Node {
	if h < 0 || int(h) >= len(t.nodes) {
		return nil
	}

	return t.nodes[h]
}

// Head returns the header of h, or nil.
func (t *Tree) Head(h Handle) *Header {
	if n := t.Get(h); n != nil {
		return n.Head()
	}

	return nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Function returns h as a Function.
func (t *Tree) Function(h Handle) (*Function, bool) {
	f, ok := t.Get(h).(*Function)
	return f, ok
}

// Class returns h as a Class.
func (t *Tree) Class(h Handle) (*Class, bool) {
	c, ok := t.Get(h).(*Class)
	return c, ok
}

// Variable returns h as a Variable.
func (t *Tree) Variable(h Handle) (*Variable, bool) {
	v, ok := t.Get(h).(*Variable)
	return v, ok
}

// ScopeOf returns the scope owned by h. NoHandle yields the document scope;
// nodes without a scope yield nil.
func (t *Tree) ScopeOf(h Handle) *Scope {
	if !h.Valid() {
		return &t.Root
	}

	switch n := t.Get(h).(type) {
	case *Function:
		return &n.Scope
	case *Event:
		return &n.Scope
	}

	return nil
}

// Walk visits every listed node depth-first in source order. Returning false
// from fn skips the node's children.
func (t *Tree) Walk(fn func(Handle, Node) bool) {
	var visit func(hs []Handle)
	visit = func(hs []Handle) {
		for _, h := range hs {
			n := t.nodes[h]
			if fn(h, n) {
				visit(n.Head().Children)
			}
		}
	}

	visit(t.Roots)
}

// Each visits every node in the arena, listed or not, in creation order.
func (t *Tree) Each(fn func(Handle, Node)) {
	for i, n := range t.nodes {
		fn(Handle(i), n)
	}
}

// Enclosing returns the innermost function, method or hotkey whose range
// contains offset, or NoHandle for the document scope.
func (t *Tree) Enclosing(offset int) Handle {
	best := NoHandle

	var visit func(hs []Handle)
	visit = func(hs []Handle) {
		for _, h := range hs {
			n := t.nodes[h]
			hd := n.Head()

			if !hd.Range.Contains(offset) {
				continue
			}

			switch n.(type) {
			case *Function, *Event:
				best = h
			}

			visit(hd.Children)
		}
	}

	visit(t.Roots)

	return best
}

// EnclosingClass returns the innermost class containing h.
func (t *Tree) EnclosingClass(h Handle) Handle {
	for h.Valid() {
		if _, ok := t.nodes[h].(*Class); ok {
			return h
		}

		h = t.nodes[h].Head().Parent
	}

	return NoHandle
}

// EnclosingScope returns the nearest ancestor of h (h excluded) that owns a
// scope, or NoHandle for the document scope.
func (t *Tree) EnclosingScope(h Handle) Handle {
	if !h.Valid() {
		return NoHandle
	}

	for p := t.nodes[h].Head().Parent; p.Valid(); p = t.nodes[p].Head().Parent {
		if t.ScopeOf(p) != nil {
			return p
		}
	}

	return NoHandle
}

// QualifiedName joins the names of enclosing classes, e.g. "Outer.Inner.Method".
func (t *Tree) QualifiedName(h Handle) string {
	var parts []string

	for cur := h; cur.Valid(); cur = t.nodes[cur].Head().Parent {
		hd := t.nodes[cur].Head()

		switch t.nodes[cur].(type) {
		case *Class, *Property:
			parts = append(parts, hd.Name)
		case *Function:
			if cur == h || hd.Kind == KindMethod {
				parts = append(parts, hd.Name)
			}
		default:
			if cur == h {
				parts = append(parts, hd.Name)
			}
		}
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, ".")
}
