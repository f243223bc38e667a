package analysis

import (
	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// unset binds every remaining variable reference and reports the ones that
// can never hold a value. It runs after the binding pass has seen the whole
// document, so forward references to globals resolve.
func (r *resolver) unset() {
	r.unsetScope(r.bound.Envs[symbols.NoHandle], &r.tree.Root)

	r.tree.Each(func(h symbols.Handle, _ symbols.Node) {
		env, ok := r.bound.Envs[h]
		if !ok || !h.Valid() {
			return
		}

		r.unsetScope(env, r.tree.ScopeOf(h))
		r.shadowsGlobal(env)
	})
}

func (r *resolver) unsetScope(env *Env, s *symbols.Scope) {
	for _, vh := range s.Vars {
		if _, done := r.bound.Refs[vh]; done {
			continue
		}

		v, _ := r.tree.Variable(vh)
		if v.IsDef {
			continue
		}

		b := r.resolveRef(env, symbols.Key(v.Name), v.Name)
		r.bound.Refs[vh] = b

		if r.flagged[b] || r.assigned(b) {
			continue
		}

		r.flagged[b] = true
		r.report(diag.VarUnset, v.Selection, "Variable '%s' appears to never be assigned a value", v.Name)
	}
}

// resolveRef looks a referenced name up: the scope chain, the document
// globals, the built-ins and then the included documents.
func (r *resolver) resolveRef(env *Env, key, name string) *Binding {
	if env != nil {
		if b, ok := env.lookup(key); ok {
			return b
		}
	}

	if b, ok := r.bound.Globals[key]; ok {
		return b
	}

	if builtins.IsBuiltin(name) {
		b, ok := r.builtin[key]
		if !ok {
			b = &Binding{Kind: BindBuiltin, Name: name, Decl: symbols.NoHandle, Owner: symbols.NoHandle, Assigned: true}
			r.builtin[key] = b
		}

		return b
	}

	for _, ext := range r.opts.Externals {
		if b, ok := ext.Globals[key]; ok {
			return b
		}
	}

	b, ok := env.unresolved[key]
	if !ok {
		b = &Binding{Kind: BindUnresolved, Name: name, Doc: r.doc, Decl: symbols.NoHandle, Owner: env.Owner}
		env.unresolved[key] = b
	}

	return b
}

// assigned reports whether b can hold a value. A global counts as assigned
// when any included document assigns it.
func (r *resolver) assigned(b *Binding) bool {
	switch {
	case b.Kind == BindUnresolved:
		return false
	case b.Assigned, b.Typed:
		return true
	case b.Kind != BindGlobal:
		return false
	}

	key := symbols.Key(b.Name)
	for _, ext := range r.opts.Externals {
		if eb, ok := ext.Globals[key]; ok && (eb.Assigned || eb.Typed) {
			return true
		}
	}

	return false
}

// shadowsGlobal reports implicit locals that hide a global variable.
func (r *resolver) shadowsGlobal(env *Env) {
	for _, key := range env.implicit {
		g, ok := r.bound.Globals[key]
		if !ok || g.Kind != BindGlobal {
			continue
		}

		local := env.Names[key]
		if v, ok := r.tree.Variable(local.Decl); ok {
			r.report(diag.LocalSameAsGlobal, v.Selection, "Local variable '%s' has the same name as a global variable", v.Name)
		}
	}
}
