package server

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/format"
)

// SettingsSection is the key the client nests the server settings under in
// workspace/didChangeConfiguration.
const SettingsSection = "ahk2"

// Config holds server configuration options. It is read from the YAML file
// given with -config and updated from the client settings.
type Config struct {
	Format      format.Options       `yaml:"format" json:"format"`
	Diagnostics analysis.LintOptions `yaml:"diagnostics" json:"diagnostics"`

	// LibDirs are searched for <Lib> includes before the script's own Lib
	// directory.
	LibDirs []string `yaml:"lib_dirs" json:"lib_dirs"`

	// MaxProblems limits the number of diagnostics reported per document
	MaxProblems int `yaml:"max_problems" json:"max_problems"`

	// Trace controls logging verbosity
	Trace string `yaml:"trace" json:"trace"`
}

// DefaultConfig returns the configuration used when neither a file nor the
// client provide settings.
func DefaultConfig() Config {
	return Config{
		Format:      format.DefaultOptions(),
		Diagnostics: analysis.DefaultLints(),
		MaxProblems: 100,
		Trace:       "off",
	}
}

// LoadConfig reads a YAML configuration file. Keys missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplySettings merges client settings into c. settings is the decoded
// JSON value of workspace/didChangeConfiguration; when it holds an "ahk2"
// key only that section is used. Keys not present keep their values.
func (c *Config) ApplySettings(settings any) error {
	if settings == nil {
		return nil
	}

	if m, ok := settings.(map[string]any); ok {
		if section, ok := m[SettingsSection]; ok {
			settings = section
		}
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	next := *c
	next.LibDirs = append([]string(nil), c.LibDirs...)

	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("decoding settings: %w", err)
	}

	*c = next

	return nil
}

// AnalysisConfig returns the part of c the analysis session needs.
func (c Config) AnalysisConfig() analysis.Config {
	return analysis.Config{
		Lints:   c.Diagnostics,
		LibDirs: append([]string(nil), c.LibDirs...),
	}
}
