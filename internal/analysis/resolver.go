package analysis

import (
	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// LintOptions toggles the optional diagnostics.
type LintOptions struct {
	ClassNonDynamicMemberCheck bool `yaml:"class_non_dynamic_member_check" json:"class_non_dynamic_member_check"`
	ParamsCheck                bool `yaml:"params_check" json:"params_check"`
	VarUnset                   bool `yaml:"var_unset" json:"var_unset"`
	LocalSameAsGlobal          bool `yaml:"local_same_as_global" json:"local_same_as_global"`
	CallWithoutParentheses     bool `yaml:"call_without_parentheses" json:"call_without_parentheses"`
}

// DefaultLints returns the lint settings used when the client sends none.
func DefaultLints() LintOptions {
	return LintOptions{
		ClassNonDynamicMemberCheck: true,
		ParamsCheck:                true,
		VarUnset:                   true,
	}
}

// Enabled reports whether diagnostics with code c should be reported.
func (o LintOptions) Enabled(c diag.Code) bool {
	switch c.Toggle() {
	case "class_non_dynamic_member_check":
		return o.ClassNonDynamicMemberCheck
	case "params_check":
		return o.ParamsCheck
	case "var_unset":
		return o.VarUnset
	case "local_same_as_global":
		return o.LocalSameAsGlobal
	case "call_without_parentheses":
		return o.CallWithoutParentheses
	}

	return true
}

// Options configures Resolve.
type Options struct {
	Lints LintOptions
	// Externals are the resolved documents reachable through #Include. Their
	// globals satisfy references the document itself cannot bind.
	Externals []*Bound
}

// resolver carries the state of one Resolve call. The inherited environment
// is passed down explicitly; nothing here outlives the call.
type resolver struct {
	doc   *parser.Document
	tree  *symbols.Tree
	bound *Bound
	opts  Options
	diags []diag.Diagnostic

	builtin map[string]*Binding
	flagged map[*Binding]bool
}

// Resolve flattens the raw scope tables of doc into bindings and reports
// scope conflicts and unset variables.
func Resolve(doc *parser.Document, opts Options) (*Bound, []diag.Diagnostic) {
	r := newResolver(doc, opts)
	r.flatTree()
	r.unset()

	return r.bound, r.diags
}

// bind runs only the binding pass. Included documents are bound this way so
// their globals can serve as externals without reporting on them.
func bind(doc *parser.Document) *Bound {
	r := newResolver(doc, Options{})
	r.flatTree()

	return r.bound
}

func newResolver(doc *parser.Document, opts Options) *resolver {
	return &resolver{
		doc:     doc,
		tree:    doc.Tree,
		bound:   newBound(doc),
		opts:    opts,
		builtin: make(map[string]*Binding),
		flagged: make(map[*Binding]bool),
	}
}

func (r *resolver) report(code diag.Code, rng symbols.Range, format string, args ...any) {
	if !r.opts.Lints.Enabled(code) {
		return
	}

	r.diags = append(r.diags, diag.New(code, rng.Start, rng.End, format, args...))
}

// ----------------------------------------------------------------------------
// Binding pass

func (r *resolver) flatTree() {
	root := newEnv(symbols.NoHandle, nil)
	r.bound.Envs[symbols.NoHandle] = root

	r.bindDocument()
	r.checkLabels(&r.tree.Root)
	r.walk(r.tree.Roots, nil)

	listed := make(map[symbols.Handle]bool)
	r.tree.Walk(func(h symbols.Handle, _ symbols.Node) bool {
		listed[h] = true
		return true
	})

	// field initializers live in detached __Init methods
	r.tree.Each(func(h symbols.Handle, n symbols.Node) {
		if _, ok := n.(*symbols.Function); ok && !listed[h] {
			r.walk([]symbols.Handle{h}, nil)
		}
	})
}

// bindDocument binds the document scope. Functions and classes are hoisted,
// so they are bound before any variable.
func (r *resolver) bindDocument() {
	for _, h := range r.tree.Roots {
		switch r.tree.Get(h).(type) {
		case *symbols.Function:
			r.declareGlobal(h, BindFunction)
		case *symbols.Class:
			r.declareGlobal(h, BindClass)
		}
	}

	for _, vh := range r.tree.Root.Vars {
		v, _ := r.tree.Variable(vh)
		if v.Declared == "" && !v.IsDef {
			continue
		}

		r.bindGlobalVar(vh, v)
	}
}

func (r *resolver) declareGlobal(h symbols.Handle, kind BindingKind) {
	hd := r.tree.Head(h)
	key := symbols.Key(hd.Name)

	if prev, ok := r.bound.Globals[key]; ok {
		r.conflict(hd, prev, false)
		return
	}

	r.bound.Globals[key] = &Binding{
		Kind:     kind,
		Name:     hd.Name,
		Doc:      r.doc,
		Decl:     h,
		Owner:    symbols.NoHandle,
		Assigned: true,
	}
}

// bindGlobalVar binds vh to the document global of its name, creating it
// if absent.
func (r *resolver) bindGlobalVar(vh symbols.Handle, v *symbols.Variable) *Binding {
	key := symbols.Key(v.Name)

	b, ok := r.bound.Globals[key]
	if ok && !b.Kind.IsVariable() {
		r.conflict(&v.Header, b, v.IsDef && v.Declared == "")
		return nil
	}

	if !ok {
		if v.IsDef && v.Declared == "" && r.assignsBuiltin(v) {
			return nil
		}

		b = &Binding{Kind: BindGlobal, Name: v.Name, Doc: r.doc, Decl: vh, Owner: symbols.NoHandle}
		r.bound.Globals[key] = b
	}

	r.use(vh, v, b)

	return b
}

// use records vh as a reference to b.
func (r *resolver) use(vh symbols.Handle, v *symbols.Variable, b *Binding) {
	r.bound.Refs[vh] = b

	if v.IsDef || v.Param {
		b.Assigned = true
	}

	if v.Type != "" {
		b.Typed = true
	}
}

func (r *resolver) assignsBuiltin(v *symbols.Variable) bool {
	what := ""

	switch {
	case builtins.IsFunction(v.Name):
		what = "function"
	case builtins.IsClass(v.Name):
		what = "class"
	default:
		return false
	}

	r.report(diag.AssignToNonVariable, v.Selection, "Cannot assign to built-in %s '%s'", what, v.Name)

	return true
}

// walk descends into hs. env is the innermost function table, passed on to
// closures only.
func (r *resolver) walk(hs []symbols.Handle, env *Env) {
	for _, h := range hs {
		switch n := r.tree.Get(h).(type) {
		case *symbols.Function:
			if _, done := r.bound.Envs[h]; done {
				continue
			}

			var parent *Env
			if n.Closure {
				parent = env
			}

			inner := r.bindScope(h, &n.Scope, parent)

			if cls := r.tree.EnclosingClass(h); cls.Valid() && !n.Closure {
				inner.Names["THIS"] = &Binding{Kind: BindThis, Name: "this", Doc: r.doc, Decl: cls, Owner: h, Assigned: true}
				inner.Names["SUPER"] = &Binding{Kind: BindThis, Name: "super", Doc: r.doc, Decl: cls, Owner: h, Assigned: true}
			}

			r.walk(n.Children, inner)
		case *symbols.Event:
			inner := r.bindScope(h, &n.Scope, nil)
			r.walk(n.Children, inner)
		case *symbols.Class:
			r.checkMembers(n)
			r.walk(n.Children, nil)
		case *symbols.Property:
			r.walk(n.Children, nil)
		}
	}
}

// bindScope flattens one function scope: explicit globals first, then
// parameters and local/static declarations, nested functions, and finally
// implicit assignment targets.
func (r *resolver) bindScope(h symbols.Handle, s *symbols.Scope, parent *Env) *Env {
	env := newEnv(h, parent)
	env.AssumeGlobal = s.AssumeGlobal
	r.bound.Envs[h] = env

	declared := func(vh symbols.Handle, v *symbols.Variable, b *Binding) {
		key := symbols.Key(v.Name)
		if prev, ok := env.Names[key]; ok && prev != b {
			r.report(diag.DuplicateDeclaration, v.Selection, "'%s' is already declared as %s", v.Name, article(prev.Kind))
			r.use(vh, v, prev)

			return
		}

		env.Names[key] = b
	}

	for _, vh := range s.Vars {
		v, _ := r.tree.Variable(vh)
		if v.Declared != "global" {
			continue
		}

		if b := r.bindGlobalVar(vh, v); b != nil {
			declared(vh, v, b)
		}
	}

	for _, vh := range s.Vars {
		v, _ := r.tree.Variable(vh)

		kind := BindLocal

		switch v.Declared {
		case "param":
			kind = BindParam
		case "static":
			kind = BindStatic
		case "local":
		default:
			continue
		}

		b := &Binding{Kind: kind, Name: v.Name, Doc: r.doc, Decl: vh, Owner: h}
		r.use(vh, v, b)
		declared(vh, v, b)
	}

	for _, ch := range r.tree.Head(h).Children {
		fn, ok := r.tree.Function(ch)
		if !ok || fn.Kind != symbols.KindFunction {
			continue
		}

		key := symbols.Key(fn.Name)
		if prev, ok := env.Names[key]; ok {
			r.conflict(&fn.Header, prev, false)
			continue
		}

		env.Names[key] = &Binding{Kind: BindFunction, Name: fn.Name, Doc: r.doc, Decl: ch, Owner: h, Assigned: true}
	}

	for _, vh := range s.Vars {
		v, _ := r.tree.Variable(vh)
		if !v.IsDef || v.Declared != "" {
			continue
		}

		r.bindImplicit(env, vh, v)
	}

	r.checkLabels(s)

	return env
}

func (r *resolver) bindImplicit(env *Env, vh symbols.Handle, v *symbols.Variable) {
	key := symbols.Key(v.Name)

	if b, ok := env.Names[key]; ok {
		if !b.Kind.IsVariable() {
			r.conflict(&v.Header, b, true)
			return
		}

		r.use(vh, v, b)

		return
	}

	if env.AssumeGlobal {
		if b := r.bindGlobalVar(vh, v); b != nil {
			env.Names[key] = b
		}

		return
	}

	if env.Parent != nil {
		if b, ok := env.Parent.lookup(key); ok && b.Kind.IsVariable() {
			env.Names[key] = b
			r.use(vh, v, b)

			return
		}
	}

	if r.assignsBuiltin(v) {
		return
	}

	b := &Binding{Kind: BindLocal, Name: v.Name, Doc: r.doc, Decl: vh, Owner: env.Owner}
	env.Names[key] = b
	env.implicit = append(env.implicit, key)
	r.use(vh, v, b)
}

// ----------------------------------------------------------------------------
// Conflicts

// sameName holds the message for each pair of kinds that may not share a
// name, indexed by the earlier declaration's kind and then the later one's.
var sameName = map[[2]symbols.Kind]string{
	{symbols.KindFunction, symbols.KindVariable}: "'%s' is already declared as a function",
	{symbols.KindClass, symbols.KindVariable}:    "'%s' is already declared as a class",
	{symbols.KindVariable, symbols.KindFunction}: "'%s' is already declared as a variable; cannot redeclare it as a function",
	{symbols.KindVariable, symbols.KindClass}:    "'%s' is already declared as a variable; cannot redeclare it as a class",
	{symbols.KindFunction, symbols.KindClass}:    "'%s' is already declared as a function; cannot redeclare it as a class",
	{symbols.KindClass, symbols.KindFunction}:    "'%s' is already declared as a class; cannot redeclare it as a function",
	{symbols.KindMethod, symbols.KindProperty}:   "'%s' is already declared as a method; cannot redeclare it as a property",
	{symbols.KindProperty, symbols.KindMethod}:   "'%s' is already declared as a property; cannot redeclare it as a method",
	{symbols.KindMethod, symbols.KindClass}:      "'%s' is already declared as a method; cannot redeclare it as a class",
	{symbols.KindClass, symbols.KindMethod}:      "'%s' is already declared as a class; cannot redeclare it as a method",
	{symbols.KindProperty, symbols.KindClass}:    "'%s' is already declared as a property; cannot redeclare it as a class",
	{symbols.KindClass, symbols.KindProperty}:    "'%s' is already declared as a class; cannot redeclare it as a property",
	{symbols.KindVariable, symbols.KindMethod}:   "'%s' is already declared as a field; cannot redeclare it as a method",
	{symbols.KindMethod, symbols.KindVariable}:   "'%s' is already declared as a method; cannot redeclare it as a field",
	{symbols.KindVariable, symbols.KindProperty}: "'%s' is already declared as a field; cannot redeclare it as a property",
	{symbols.KindProperty, symbols.KindVariable}: "'%s' is already declared as a property; cannot redeclare it as a field",
}

func bindingKind(b *Binding) symbols.Kind {
	switch b.Kind {
	case BindFunction:
		return symbols.KindFunction
	case BindClass:
		return symbols.KindClass
	}

	return symbols.KindVariable
}

// conflict reports cur clashing with an earlier binding. assign marks cur
// as a plain assignment, which is never allowed on a function or class.
func (r *resolver) conflict(cur *symbols.Header, prev *Binding, assign bool) {
	r.clash(cur, bindingKind(prev), assign)
}

func (r *resolver) clash(cur *symbols.Header, prev symbols.Kind, assign bool) {
	if prev == cur.Kind && prev != symbols.KindVariable {
		r.report(diag.DuplicateDeclaration, cur.Selection, "Duplicate declaration of '%s'", cur.Name)
		return
	}

	format, ok := sameName[[2]symbols.Kind{prev, cur.Kind}]
	if !ok {
		return
	}

	if assign {
		format += "; cannot assign to it"
	}

	r.report(diag.SameName, cur.Selection, format, cur.Name)
}

// checkMembers reports members of one class that share a name.
func (r *resolver) checkMembers(cls *symbols.Class) {
	type slot struct {
		name   string
		static bool
	}

	seen := make(map[slot]symbols.Kind)

	for _, h := range cls.Children {
		var static bool

		hd := r.tree.Head(h)

		switch n := r.tree.Get(h).(type) {
		case *symbols.Function:
			static = n.Static
		case *symbols.Property:
			static = n.Static
		case *symbols.Variable:
			static = n.Static
		case *symbols.Class:
			static = true
		default:
			continue
		}

		key := slot{symbols.Key(hd.Name), static}

		prev, ok := seen[key]
		if !ok {
			seen[key] = hd.Kind
			continue
		}

		if prev == symbols.KindVariable && hd.Kind == symbols.KindVariable {
			continue
		}

		r.clash(hd, prev, false)
	}
}

// checkLabels reports labels defined twice in one scope.
func (r *resolver) checkLabels(s *symbols.Scope) {
	defined := make(map[string]bool)

	for _, h := range s.Labels {
		l, ok := r.tree.Get(h).(*symbols.Label)
		if !ok || !l.IsDef {
			continue
		}

		key := symbols.Key(l.Name)
		if defined[key] {
			r.report(diag.DuplicateLabel, l.Selection, "Duplicate label '%s'", l.Name)
			continue
		}

		defined[key] = true
	}
}

func article(k BindingKind) string {
	switch k {
	case BindLocal:
		return "a local"
	case BindParam:
		return "a parameter"
	case BindStatic:
		return "a static"
	case BindGlobal:
		return "a global"
	}

	return "a " + k.String()
}
