package analysis

import (
	"log"
	"sort"
	"sync"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// Config holds the settings a Session analyses with.
type Config struct {
	Lints LintOptions
	// LibDirs are searched for <Lib> includes.
	LibDirs []string
}

// Analysis is the outcome of analysing one document.
type Analysis struct {
	Doc   *parser.Document
	Bound *Bound
	// Includes lists the documents reachable through #Include, in discovery
	// order, the analysed document excluded.
	Includes    []*parser.Document
	Diagnostics []diag.Diagnostic
}

// Session owns the caches shared by the queries of one analysis pass: the
// documents materialized from includes, the resolved scopes and the
// inference memo table. BeginPass invalidates all of them.
type Session struct {
	mu sync.Mutex

	includes IncludeResolver
	config   Config

	// open holds the documents the client has open. They take precedence
	// over reading included files from disk.
	open map[string]*parser.Document

	pass *pass
}

// pass holds the state that lives for one analysis pass.
type pass struct {
	docs     map[string]*parser.Document // included documents parsed this pass
	edges    map[string][]*parser.Document
	incDiags map[string][]diag.Diagnostic
	flat     map[string]*Bound
	resolved map[string]*Analysis
	memo     map[memoKey]*memoEntry
}

func newPass() *pass {
	return &pass{
		docs:     make(map[string]*parser.Document),
		edges:    make(map[string][]*parser.Document),
		incDiags: make(map[string][]diag.Diagnostic),
		flat:     make(map[string]*Bound),
		resolved: make(map[string]*Analysis),
		memo:     make(map[memoKey]*memoEntry),
	}
}

type memoState uint8

const (
	memoResolving memoState = iota + 1
	memoResolved
)

type memoKey struct {
	uri   string
	scope symbols.Handle
	expr  string
}

type memoEntry struct {
	state memoState
	tags  TagSet
}

// NewSession creates a session. includes may be nil, in which case
// #Include directives are never resolved.
func NewSession(includes IncludeResolver, config Config) *Session {
	return &Session{
		includes: includes,
		config:   config,
		open:     make(map[string]*parser.Document),
		pass:     newPass(),
	}
}

// SetConfig replaces the configuration and starts a new pass.
func (s *Session) SetConfig(config Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = config
	s.pass = newPass()
}

// Open registers doc as the current version of its URI and starts a new
// pass, since every cached result may depend on it.
func (s *Session) Open(doc *parser.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open[doc.URI] = doc
	s.pass = newPass()
}

// Close drops uri from the open documents.
func (s *Session) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.open, uri)
	s.pass = newPass()
}

// Document returns the open document for uri.
func (s *Session) Document(uri string) (*parser.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.open[uri]

	return doc, ok
}

// BeginPass clears every per-pass cache.
func (s *Session) BeginPass() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pass = newPass()
}

// Analyze resolves doc against its include graph and collects all of its
// diagnostics: syntax, include, scope, call-shape and lint.
func (s *Session) Analyze(doc *parser.Document) *Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.analyze(doc)
}

func (s *Session) analyze(doc *parser.Document) *Analysis {
	if a, ok := s.pass.resolved[doc.URI]; ok && a.Doc == doc {
		return a
	}

	incs := s.graph(doc)

	externals := make([]*Bound, 0, len(incs))
	for _, inc := range incs {
		externals = append(externals, s.flat(inc))
	}

	bound, diags := Resolve(doc, Options{Lints: s.config.Lints, Externals: externals})

	a := &Analysis{Doc: doc, Bound: bound, Includes: incs}
	// publish before the checks run; they query inference, which needs it
	s.pass.resolved[doc.URI] = a

	all := append([]diag.Diagnostic{}, doc.Diagnostics...)
	all = append(all, s.pass.incDiags[doc.URI]...)
	all = append(all, diags...)
	all = append(all, s.checkCalls(a)...)
	all = append(all, s.checkMembers(a)...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start < all[j].Start
	})

	a.Diagnostics = all

	log.Printf("Analyzed %s: %d includes, %d diagnostics", doc.URI, len(incs), len(all))

	return a
}

// bound returns the resolved scopes of doc for this pass.
func (s *Session) bound(doc *parser.Document) *Bound {
	return s.analyze(doc).Bound
}

// flat binds an included document without reporting on it.
func (s *Session) flat(doc *parser.Document) *Bound {
	if b, ok := s.pass.flat[doc.URI]; ok && b.Doc == doc {
		return b
	}

	b := bind(doc)
	s.pass.flat[doc.URI] = b

	return b
}

func (s *Session) report(code diag.Code, rng symbols.Range, format string, args ...any) []diag.Diagnostic {
	if !s.config.Lints.Enabled(code) {
		return nil
	}

	return []diag.Diagnostic{diag.New(code, rng.Start, rng.End, format, args...)}
}
