package analysis

import (
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
)

func includeNames(docs []*parser.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		p, _ := URIToPath(d.URI)
		out = append(out, p)
	}

	return out
}

func countCode(diags []diag.Diagnostic, code diag.Code) int {
	n := 0
	for _, d := range diags {
		if d.Code == code {
			n++
		}
	}

	return n
}

func TestIncludeGraph(t *testing.T) {
	fs := newMemFS(map[string]string{
		"/proj/lib.ahk":         "#Include sub/helpers.ahk\nLibFunc() {\n}\n",
		"/proj/sub/helpers.ahk": "#Include ../lib.ahk\nHelper() {\n}\n",
		"/proj/Lib/Tools.ahk":   "Tool() {\n}\n",
	})
	s := newTestSession(fs)

	text := "#Include lib.ahk\n#Include <Tools>\n#Include *i nothere.ahk\n#Include missing.ahk\nLibFunc()\nHelper()\nTool()\n"
	doc := openDoc(s, PathToURI(mainPath), text)

	a := s.Analyze(doc)

	assert.Equal(t, []string{"/proj/lib.ahk", "/proj/sub/helpers.ahk", "/proj/Lib/Tools.ahk"}, includeNames(a.Includes))
	assert.Equal(t, 1, countCode(a.Diagnostics, diag.IncludeNotFound))
	assert.NotContains(t, diagCodes(a.Diagnostics), diag.VarUnset)

	for _, d := range a.Diagnostics {
		if d.Code == diag.IncludeNotFound {
			assert.Contains(t, d.Message, "missing.ahk")
		}
	}
}

func TestIncludeGraph_ReadOncePerPass(t *testing.T) {
	fs := newMemFS(map[string]string{
		"/proj/a.ahk":      "#Include shared.ahk\nA() {\n}\n",
		"/proj/b.ahk":      "#Include shared.ahk\nB() {\n}\n",
		"/proj/shared.ahk": "Shared() {\n}\n",
	})
	s := newTestSession(fs)

	text := "#Include a.ahk\n#Include b.ahk\nA()\nB()\nShared()\n"
	doc := openDoc(s, PathToURI(mainPath), text)

	s.Analyze(doc)
	s.References(doc, offsetOf(t, text, "Shared", 0), true)
	s.Hover(doc, offsetOf(t, text, "A()", 0))

	assert.Equal(t, 1, fs.reads["/proj/shared.ahk"])
	assert.Equal(t, 1, fs.reads["/proj/a.ahk"])

	s.BeginPass()
	s.Analyze(doc)

	assert.Equal(t, 2, fs.reads["/proj/shared.ahk"])
}

func TestIncludeGraph_LibrarySearchOrder(t *testing.T) {
	fs := newMemFS(map[string]string{
		"/shared/Tools.ahk":   "SharedTool() {\n}\n",
		"/proj/Lib/Tools.ahk": "LocalTool() {\n}\n",
		"/proj/Lib/Extra.ahk": "Extra() {\n}\n",
	})
	s := NewSession(fs, Config{Lints: DefaultLints(), LibDirs: []string{"/shared"}})

	doc := openDoc(s, PathToURI(mainPath), "#Include <Tools>\n#Include <Extra>\n")

	assert.Equal(t, []string{"/shared/Tools.ahk", "/proj/Lib/Extra.ahk"}, includeNames(s.Analyze(doc).Includes))
}

func TestIncludeGraph_DirectoryInclude(t *testing.T) {
	fs := newMemFS(map[string]string{
		"/proj/parts/a.ahk": "PartA() {\n}\n",
	})
	s := newTestSession(fs)

	doc := openDoc(s, PathToURI(mainPath), "#Include parts\n#Include a.ahk\nPartA()\n")
	a := s.Analyze(doc)

	assert.Equal(t, []string{"/proj/parts/a.ahk"}, includeNames(a.Includes))
	assert.Empty(t, a.Diagnostics)
}

func TestIncludeGraph_ScriptDirVariable(t *testing.T) {
	fs := newMemFS(map[string]string{
		"/proj/lib.ahk": "LibFunc() {\n}\n",
	})
	s := newTestSession(fs)

	doc := openDoc(s, PathToURI(mainPath), "#Include %A_ScriptDir%/lib.ahk\nLibFunc()\n")

	assert.Equal(t, []string{"/proj/lib.ahk"}, includeNames(s.Analyze(doc).Includes))
}

func TestIncludeGraph_OpenDocumentWins(t *testing.T) {
	fs := newMemFS(map[string]string{
		"/proj/lib.ahk": "LibFunc() {\n}\n",
	})
	s := newTestSession(fs)

	doc := openDoc(s, PathToURI(mainPath), "#Include lib.ahk\nLibFunc()\n")
	assert.NotContains(t, diagCodes(s.Analyze(doc).Diagnostics), diag.MissingParam)

	openDoc(s, PathToURI("/proj/lib.ahk"), "LibFunc(required) {\n}\n")

	assert.Contains(t, diagCodes(s.Analyze(doc).Diagnostics), diag.MissingParam)
	assert.Equal(t, 1, fs.reads["/proj/lib.ahk"], "open document must not be read from disk")
}

func TestIncludeGraph_NoResolver(t *testing.T) {
	s, doc := openMain(t, nil, "#Include lib.ahk\nx := 1\n")

	a := s.Analyze(doc)
	assert.Empty(t, a.Includes)
	assert.NotContains(t, diagCodes(a.Diagnostics), diag.IncludeNotFound)
}

func TestIncludeGraph_ExternalGlobals(t *testing.T) {
	files := map[string]string{
		"/proj/config.ahk": "debug := true\n",
	}

	s, doc := openMain(t, files, "#Include config.ahk\nMsgBox debug\n")
	assert.NotContains(t, diagCodes(s.Analyze(doc).Diagnostics), diag.VarUnset)

	s, doc = openMain(t, nil, "MsgBox debug\n")
	assert.Contains(t, diagCodes(s.Analyze(doc).Diagnostics), diag.VarUnset)
}

func TestExpandIncludeVars(t *testing.T) {
	dir := "/proj"
	file := path.Join(dir, "main.ahk")

	tests := []struct {
		raw  string
		want string
	}{
		{"%A_ScriptDir%/lib.ahk", "/proj/lib.ahk"},
		{"%A_LineFile%", "/proj/main.ahk"},
		{"  %A_WorkingDir%/x.ahk  ", "/proj/x.ahk"},
		{"plain.ahk", "plain.ahk"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, expandIncludeVars(tt.raw, dir, file))
		})
	}
}

func TestURIPathRoundTrip(t *testing.T) {
	uri := PathToURI("/proj/some dir/main.ahk")

	p, err := URIToPath(uri)
	require.NoError(t, err)
	assert.Equal(t, "/proj/some dir/main.ahk", p)

	_, err = URIToPath("http://example.com/x.ahk")
	assert.Error(t, err)
}
