// Package config loads and persists the docforge project configuration
// (docforge.yaml at the project root), with environment overrides for the
// settings that vary between machines.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file looked up at the root.
const ConfigFileName = "docforge.yaml"

// Config holds all docforge configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Validate ValidateConfig `yaml:"validate"`
	Index    IndexConfig    `yaml:"index"`
	Serve    ServeConfig    `yaml:"serve"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig describes where sources and static assets live.
type SourceConfig struct {
	Dir        string   `yaml:"dir"`         // source root, relative to project root
	StaticDir  string   `yaml:"static_dir"`  // images and other assets
	Extensions []string `yaml:"extensions"`  // source extensions to pick up
	Exclude    []string `yaml:"exclude"`     // glob patterns skipped during the scan
}

// OutputConfig controls HTML generation.
type OutputConfig struct {
	Dir            string `yaml:"dir"`
	HighlightStyle string `yaml:"highlight_style"` // chroma style name
	LineNumbers    bool   `yaml:"line_numbers"`
	SiteTitle      string `yaml:"site_title"`
}

// ValidateConfig controls the validation pass.
type ValidateConfig struct {
	Workers int  `yaml:"workers"` // concurrent documents; 0 means NumCPU
	Strict  bool `yaml:"strict"`  // treat warnings as failures
	// Languages whose code blocks are exempt from syntax checking.
	ExemptLanguages []string `yaml:"exempt_languages"`
}

// IndexConfig configures the SQLite search index.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the category file logger (internal/logging).
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories,omitempty"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns the configuration a fresh `docforge init` writes.
func DefaultConfig() *Config {
	return &Config{
		Name:    "docforge",
		Version: "1",
		Source: SourceConfig{
			Dir:        "source",
			StaticDir:  "source/_static",
			Extensions: []string{".rst", ".txt"},
			Exclude:    []string{"_build/*", ".docforge/*"},
		},
		Output: OutputConfig{
			Dir:            "_build/html",
			HighlightStyle: "monokai",
			LineNumbers:    false,
			SiteTitle:      "Documentation",
		},
		Validate: ValidateConfig{
			Workers:         0,
			Strict:          false,
			ExemptLanguages: []string{"text", "console", "none"},
		},
		Index: IndexConfig{
			Path: ".docforge/index.db",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads a config file and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadProject finds docforge.yaml under root and loads it. A missing file
// yields the defaults so that bare directories still build.
func LoadProject(root string) (*Config, error) {
	path := filepath.Join(root, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	return Load(path)
}

// Save writes the config to path in YAML form.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets DOCFORGE_* variables override file settings.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCFORGE_ADDR"); v != "" {
		c.Serve.Addr = v
	}
	if v := os.Getenv("DOCFORGE_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("DOCFORGE_INDEX_PATH"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("DOCFORGE_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Validate.Strict = b
		}
	}
	if v := os.Getenv("DOCFORGE_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
}

// Check rejects settings that cannot work.
func (c *Config) Check() error {
	if c.Source.Dir == "" {
		return fmt.Errorf("source.dir must not be empty")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if filepath.IsAbs(c.Source.Dir) {
		return fmt.Errorf("source.dir must be relative to the project root, got %q", c.Source.Dir)
	}
	if len(c.Source.Extensions) == 0 {
		return fmt.Errorf("source.extensions must list at least one extension")
	}
	if c.Validate.Workers < 0 {
		return fmt.Errorf("validate.workers must be >= 0, got %d", c.Validate.Workers)
	}
	return nil
}

// IsExemptLanguage reports whether code blocks of the given language skip
// syntax checking.
func (c *Config) IsExemptLanguage(lang string) bool {
	for _, l := range c.Validate.ExemptLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
