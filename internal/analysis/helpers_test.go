package analysis

import (
	"os"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
)

const mainPath = "/proj/main.ahk"

// memFS resolves includes against an in-memory file set keyed by slash
// paths.
type memFS struct {
	files map[string]string
	reads map[string]int
}

func newMemFS(files map[string]string) *memFS {
	return &memFS{files: files, reads: make(map[string]int)}
}

func (fs *memFS) ResolveInclude(raw string, searchDirs []string, currentDir string) (IncludeTarget, bool) {
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		name := raw[1 : len(raw)-1]

		for _, dir := range searchDirs {
			p := path.Join(dir, name+".ahk")
			if _, ok := fs.files[p]; ok {
				return IncludeTarget{URI: PathToURI(p), Path: p}, true
			}
		}

		return IncludeTarget{}, false
	}

	p := raw
	if !path.IsAbs(p) {
		p = path.Join(currentDir, p)
	}

	if _, ok := fs.files[p]; ok {
		return IncludeTarget{URI: PathToURI(p), Path: p}, true
	}

	for name := range fs.files {
		if strings.HasPrefix(name, p+"/") {
			return IncludeTarget{Path: p, Dir: true}, true
		}
	}

	return IncludeTarget{}, false
}

func (fs *memFS) ReadFile(p string) (string, error) {
	fs.reads[p]++

	text, ok := fs.files[p]
	if !ok {
		return "", os.ErrNotExist
	}

	return text, nil
}

func newTestSession(fs IncludeResolver) *Session {
	return NewSession(fs, Config{Lints: DefaultLints()})
}

// openDoc parses text as uri and registers it with s.
func openDoc(s *Session, uri, text string) *parser.Document {
	doc := parser.Parse(uri, text)
	s.Open(doc)

	return doc
}

// openMain opens text as the main script of an in-memory project.
func openMain(t *testing.T, files map[string]string, text string) (*Session, *parser.Document) {
	t.Helper()

	var fs IncludeResolver
	if files != nil {
		fs = newMemFS(files)
	}

	s := newTestSession(fs)

	return s, openDoc(s, PathToURI(mainPath), text)
}

// offsetOf returns the offset of the n-th (0-based) occurrence of needle.
func offsetOf(t *testing.T, text, needle string, n int) int {
	t.Helper()

	off := -1
	for i := 0; i <= n; i++ {
		next := strings.Index(text[off+1:], needle)
		require.GreaterOrEqual(t, next, 0, "occurrence %d of %q not found", n, needle)

		off += next + 1
	}

	return off
}

func diagCodes(diags []diag.Diagnostic) []diag.Code {
	var out []diag.Code
	for _, d := range diags {
		out = append(out, d.Code)
	}

	return out
}

// locationTexts renders each location as "uri@text".
func locationTexts(locs []Location) []string {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		out = append(out, path.Base(l.Doc.URI)+"@"+l.Doc.Text[l.Range.Start:l.Range.End])
	}

	return out
}
