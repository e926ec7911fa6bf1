package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every decoding and schema failure.
var ErrInvalidConfig = errors.New("invalid config")

// FileNames is the config file search order.
var FileNames = []string{
	".inspectorrc",
	".inspectorrc.yaml",
	".inspectorrc.yml",
	".inspectorrc.json",
	"inspector.config.yaml",
}

//go:embed config.schema.json
var schemaJSON []byte

const schemaURL = "config.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type OpenAPIInfo struct {
	Title   string `yaml:"title" json:"title"`
	Version string `yaml:"version" json:"version"`
	Server  string `yaml:"server" json:"server"`
}

type Config struct {
	Entry       string      `yaml:"entry" json:"entry"`
	Framework   string      `yaml:"framework" json:"framework"`
	Ignore      []string    `yaml:"ignore" json:"ignore"`
	HTML        string      `yaml:"html" json:"html,omitempty"`
	OpenAPI     string      `yaml:"openapi" json:"openapi,omitempty"`
	Format      string      `yaml:"format" json:"format,omitempty"`    // OpenAPI encoding: json or yaml
	Mermaid     string      `yaml:"mermaid" json:"mermaid,omitempty"`  // mount diagram output path
	DB          string      `yaml:"db" json:"db,omitempty"`            // scan history database
	Concurrency int         `yaml:"concurrency" json:"concurrency"`    // 0 means GOMAXPROCS
	LogLevel    string      `yaml:"log_level" json:"log_level"`
	OpenAPIInfo OpenAPIInfo `yaml:"openapi_info" json:"openapi_info"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-" json:"-"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Entry:     ".",
		Framework: "express",
		Ignore:    []string{"**/node_modules/**"},
		Format:    "json",
		LogLevel:  "info",
		OpenAPIInfo: OpenAPIInfo{
			Title:   "API",
			Version: "1.0.0",
		},
	}
}

// Load reads .env and the first config file found in dir, then applies
// environment overrides. A missing config file is not an error.
func Load(dir string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	// 2. Load config file
	cfg := Default()
	if path := Find(dir); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// 3. Override with Environment Variables if present
	ApplyEnv(cfg)
	return cfg, nil
}

// Find returns the first existing config file in dir, or "".
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// LoadFile decodes a YAML or JSON config file over the defaults after
// validating it against the embedded schema.
func LoadFile(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Source = path

	var doc any
	if err := yaml.Unmarshal(file, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if doc == nil {
		return cfg, nil
	}
	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from INSPECTOR_* variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("INSPECTOR_ENTRY"); v != "" {
		cfg.Entry = v
	}
	if v := os.Getenv("INSPECTOR_FRAMEWORK"); v != "" {
		cfg.Framework = v
	}
	if v := os.Getenv("INSPECTOR_IGNORE"); v != "" {
		var patterns []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		cfg.Ignore = patterns
	}
	if v := os.Getenv("INSPECTOR_DB"); v != "" {
		cfg.DB = v
	}
}

func validate(doc any) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}

	// Round-trip through JSON so YAML values take the shapes the validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config is not representable as JSON: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}
