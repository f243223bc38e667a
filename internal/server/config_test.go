package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-ahk2-lsp/internal/format"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.MaxProblems)
	assert.Equal(t, "off", cfg.Trace)
	assert.Equal(t, "\t", cfg.Format.IndentString)
	assert.True(t, cfg.Diagnostics.VarUnset)
	assert.False(t, cfg.Diagnostics.LocalSameAsGlobal)
	assert.Empty(t, cfg.LibDirs)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ahk2.yaml")
	content := `format:
  brace_style: expand
  indent_string: "    "
diagnostics:
  var_unset: false
  local_same_as_global: true
lib_dirs:
  - C:/AutoHotkey/Lib
max_problems: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, format.BraceExpand, cfg.Format.BraceStyle)
	assert.Equal(t, "    ", cfg.Format.IndentString)
	assert.False(t, cfg.Diagnostics.VarUnset)
	assert.True(t, cfg.Diagnostics.LocalSameAsGlobal)
	assert.Equal(t, []string{"C:/AutoHotkey/Lib"}, cfg.LibDirs)
	assert.Equal(t, 20, cfg.MaxProblems)

	// keys missing from the file keep their defaults
	assert.True(t, cfg.Diagnostics.ParamsCheck)
	assert.Equal(t, "off", cfg.Trace)
	assert.Equal(t, 2, cfg.Format.MaxPreserveNewlines)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("format:\n  brace_style: sideways\n"), 0o644))

	_, err = LoadConfig(bad)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("max_problems: [1"), 0o644))

	_, err = LoadConfig(broken)
	assert.Error(t, err)
}

func TestApplySettings(t *testing.T) {
	tests := []struct {
		name     string
		settings any
		check    func(t *testing.T, cfg Config)
	}{
		{
			name:     "nil keeps everything",
			settings: nil,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name: "ahk2 section",
			settings: map[string]any{
				"ahk2": map[string]any{
					"max_problems": 5,
					"diagnostics":  map[string]any{"params_check": false},
				},
				"editor": map[string]any{"tabSize": 2},
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 5, cfg.MaxProblems)
				assert.False(t, cfg.Diagnostics.ParamsCheck)
				// sibling keys of a nested object are kept
				assert.True(t, cfg.Diagnostics.VarUnset)
			},
		},
		{
			name:     "bare settings",
			settings: map[string]any{"lib_dirs": []any{"/opt/lib"}, "format": map[string]any{"brace_style": "allman"}},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, []string{"/opt/lib"}, cfg.LibDirs)
				assert.Equal(t, format.BraceExpand, cfg.Format.BraceStyle)
				assert.Equal(t, "\t", cfg.Format.IndentString)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, cfg.ApplySettings(tt.settings))
			tt.check(t, cfg)
		})
	}
}

func TestApplySettings_InvalidKeepsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LibDirs = []string{"/keep"}

	err := cfg.ApplySettings(map[string]any{"ahk2": map[string]any{
		"lib_dirs":     []any{"/other"},
		"max_problems": "many",
	}})
	require.Error(t, err)

	assert.Equal(t, []string{"/keep"}, cfg.LibDirs)
	assert.Equal(t, 100, cfg.MaxProblems)
}

func TestAnalysisConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LibDirs = []string{"/lib"}
	cfg.Diagnostics.VarUnset = false

	ac := cfg.AnalysisConfig()
	assert.Equal(t, cfg.Diagnostics, ac.Lints)
	assert.Equal(t, []string{"/lib"}, ac.LibDirs)

	// the copy does not alias the configuration
	ac.LibDirs[0] = "/changed"
	assert.Equal(t, "/lib", cfg.LibDirs[0])
}
