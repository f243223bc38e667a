package analysis

import (
	"path/filepath"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
)

// IncludeTarget is a resolved #Include path.
type IncludeTarget struct {
	URI  string
	Path string
	// Dir marks a directory include, which only changes the directory later
	// includes of the same file are resolved against.
	Dir bool
}

// IncludeResolver is the file-system side of include handling.
type IncludeResolver interface {
	// ResolveInclude maps the raw include text to a file or directory.
	// Library includes (<Name>) are searched in searchDirs; other paths are
	// taken relative to currentDir.
	ResolveInclude(raw string, searchDirs []string, currentDir string) (IncludeTarget, bool)
	// ReadFile returns the contents of an included file.
	ReadFile(path string) (string, error)
}

// graph returns the documents reachable from doc through #Include in
// discovery order, doc excluded. Cycles are cut by the visited set, and each
// document is parsed at most once per pass.
func (s *Session) graph(doc *parser.Document) []*parser.Document {
	seen := map[string]bool{doc.URI: true}

	var out []*parser.Document

	var visit func(d *parser.Document)
	visit = func(d *parser.Document) {
		for _, inc := range s.edges(d) {
			if seen[inc.URI] {
				continue
			}

			seen[inc.URI] = true
			out = append(out, inc)
			visit(inc)
		}
	}

	visit(doc)

	return out
}

// edges resolves the #Include directives of d. Failures are recorded as
// diagnostics on d.
func (s *Session) edges(d *parser.Document) []*parser.Document {
	if out, ok := s.pass.edges[d.URI]; ok {
		return out
	}

	// mark before recursing so a self-include sees an empty edge list
	s.pass.edges[d.URI] = nil

	if s.includes == nil || len(d.Includes) == 0 {
		return nil
	}

	path, err := URIToPath(d.URI)
	if err != nil {
		return nil
	}

	dir := filepath.Dir(path)
	cur := dir
	search := append(append([]string{}, s.config.LibDirs...), filepath.Join(dir, "Lib"))

	var (
		out   []*parser.Document
		diags []diag.Diagnostic
	)

	for _, inc := range d.Includes {
		raw := expandIncludeVars(inc.Raw, dir, path)
		if raw == "" {
			continue
		}

		target, ok := s.includes.ResolveInclude(raw, search, cur)
		if !ok {
			if !inc.Optional {
				diags = append(diags, diag.New(diag.IncludeNotFound, inc.Range.Start, inc.Range.End,
					"Include file '%s' not found", inc.Raw))
			}

			continue
		}

		if target.Dir {
			cur = target.Path
			continue
		}

		doc, err := s.load(target)
		if err != nil {
			if !inc.Optional {
				diags = append(diags, diag.New(diag.IncludeNotFound, inc.Range.Start, inc.Range.End,
					"Cannot read include file '%s': %v", inc.Raw, err))
			}

			continue
		}

		out = append(out, doc)
	}

	s.pass.edges[d.URI] = out
	s.pass.incDiags[d.URI] = diags

	return out
}

// load returns the document for target: the open version if the client has
// one, otherwise the file parsed once for this pass.
func (s *Session) load(target IncludeTarget) (*parser.Document, error) {
	if doc, ok := s.open[target.URI]; ok {
		return doc, nil
	}

	if doc, ok := s.pass.docs[target.URI]; ok {
		return doc, nil
	}

	text, err := s.includes.ReadFile(target.Path)
	if err != nil {
		return nil, err
	}

	doc := parser.Parse(target.URI, text)
	s.pass.docs[target.URI] = doc

	return doc, nil
}

// expandIncludeVars substitutes the built-in variables allowed in include
// paths. A_ScriptDir is approximated by the including file's directory.
func expandIncludeVars(raw, dir, file string) string {
	r := strings.NewReplacer(
		"%A_ScriptDir%", dir,
		"%A_LineFile%", file,
		"%A_WorkingDir%", dir,
		"%A_InitialWorkingDir%", dir,
	)

	return strings.TrimSpace(r.Replace(raw))
}
