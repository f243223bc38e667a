package workspace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
)

// FileResolver resolves #Include directives against the local file system.
type FileResolver struct{}

// NewFileResolver returns a resolver backed by the OS file system.
func NewFileResolver() *FileResolver {
	return &FileResolver{}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ResolveInclude implements analysis.IncludeResolver. A library include
// <Name> is looked up as Name.ahk in each search directory; when Name holds
// an underscore the prefix before it is tried as well. Other paths are
// taken relative to currentDir and may name a directory.
func (r *FileResolver) ResolveInclude(raw string, searchDirs []string, currentDir string) (analysis.IncludeTarget, bool) {
	raw = strings.TrimSpace(raw)
	if filepath.Separator == '/' {
		raw = strings.ReplaceAll(raw, `\`, "/")
	}

	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		return r.resolveLibrary(strings.TrimSpace(raw[1:len(raw)-1]), searchDirs)
	}

	path := raw
	if !filepath.IsAbs(path) {
		path = filepath.Join(currentDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return analysis.IncludeTarget{}, false
	}

	if info.IsDir() {
		return analysis.IncludeTarget{Path: filepath.Clean(path), Dir: true}, true
	}

	return fileTarget(path), true
}

func (r *FileResolver) resolveLibrary(name string, searchDirs []string) (analysis.IncludeTarget, bool) {
	if name == "" {
		return analysis.IncludeTarget{}, false
	}

	candidates := []string{name}
	if i := strings.IndexByte(name, '_'); i > 0 {
		candidates = append(candidates, name[:i])
	}

	for _, candidate := range candidates {
		for _, dir := range searchDirs {
			path := filepath.Join(dir, candidate+".ahk")

			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return fileTarget(path), true
			}
		}
	}

	return analysis.IncludeTarget{}, false
}

// ReadFile implements analysis.IncludeResolver. A UTF-8 byte order mark is
// dropped.
func (r *FileResolver) ReadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(bytes.TrimPrefix(content, utf8BOM)), nil
}

func fileTarget(path string) analysis.IncludeTarget {
	path = filepath.Clean(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	return analysis.IncludeTarget{URI: analysis.PathToURI(path), Path: path}
}
