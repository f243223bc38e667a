package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileResolver_ResolveInclude(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "Lib")
	userLib := filepath.Join(root, "user")

	writeFile(t, filepath.Join(root, "util.ahk"), "Util() {\n}\n")
	writeFile(t, filepath.Join(root, "sub", "inner.ahk"), "")
	writeFile(t, filepath.Join(lib, "Json.ahk"), "")
	writeFile(t, filepath.Join(userLib, "Json.ahk"), "")
	writeFile(t, filepath.Join(lib, "Gdip.ahk"), "")

	r := NewFileResolver()
	search := []string{userLib, lib}

	tests := []struct {
		name  string
		raw   string
		cur   string
		ok    bool
		path  string
		isDir bool
	}{
		{name: "relative file", raw: "util.ahk", cur: root, ok: true, path: filepath.Join(root, "util.ahk")},
		{name: "nested relative file", raw: "sub/inner.ahk", cur: root, ok: true, path: filepath.Join(root, "sub", "inner.ahk")},
		{name: "backslash separators", raw: `sub\inner.ahk`, cur: root, ok: true, path: filepath.Join(root, "sub", "inner.ahk")},
		{name: "absolute file", raw: filepath.Join(root, "util.ahk"), cur: "/elsewhere", ok: true, path: filepath.Join(root, "util.ahk")},
		{name: "directory", raw: "sub", cur: root, ok: true, path: filepath.Join(root, "sub"), isDir: true},
		{name: "missing file", raw: "missing.ahk", cur: root},
		{name: "library in first search dir", raw: "<Json>", ok: true, path: filepath.Join(userLib, "Json.ahk")},
		{name: "library prefix before underscore", raw: "<Gdip_All>", ok: true, path: filepath.Join(lib, "Gdip.ahk")},
		{name: "missing library", raw: "<Nope>"},
		{name: "empty library", raw: "<>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := r.ResolveInclude(tt.raw, search, tt.cur)
			require.Equal(t, tt.ok, ok)

			if !tt.ok {
				return
			}

			assert.Equal(t, tt.path, target.Path)
			assert.Equal(t, tt.isDir, target.Dir)

			if tt.isDir {
				assert.Empty(t, target.URI)
			} else {
				assert.Contains(t, target.URI, "file://")
			}
		})
	}
}

func TestFileResolver_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.ahk")
	writeFile(t, path, "\xEF\xBB\xBFx := 1\n")

	r := NewFileResolver()

	text, err := r.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x := 1\n", text)

	_, err = r.ReadFile(filepath.Join(dir, "missing.ahk"))
	assert.Error(t, err)
}
