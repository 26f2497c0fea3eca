// Package config handles qdsl.toml CLI defaults.
//
// Every field is optional; command-line flags override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up by FindAndLoad.
const FileName = "qdsl.toml"

// Config holds the CLI defaults.
type Config struct {
	Output  Output  `toml:"output"`
	Store   Store   `toml:"store"`
	Harness Harness `toml:"harness"`
	Log     Log     `toml:"log"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// Output configures command output.
type Output struct {
	// Format is "text" or "json".
	Format string `toml:"format"`
	// Inspect is the default inspect view, "dict" or "text".
	Inspect string `toml:"inspect"`
}

// Store configures the run log.
type Store struct {
	// DB is the SQLite path used by run and history when --db is not set.
	DB string `toml:"db"`
}

// Harness configures the test command.
type Harness struct {
	// Tolerance is used by scenarios that set none.
	Tolerance float64 `toml:"tolerance"`
}

// Log configures the stderr logger.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Output:  Output{Format: "text", Inspect: "dict"},
		Harness: Harness{Tolerance: 1e-9},
		Log:     Log{Level: "warn"},
	}
}

// Load parses the config file at path over the defaults. Unknown keys are
// rejected. A relative store.db is resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.Path = path
	if cfg.Store.DB != "" && cfg.Store.DB != ":memory:" && !filepath.IsAbs(cfg.Store.DB) {
		cfg.Store.DB = filepath.Join(filepath.Dir(path), cfg.Store.DB)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for qdsl.toml. It returns the
// defaults when no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", startDir, err)
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks enumerated fields and the tolerance.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", c.Output.Format)
	}
	switch c.Output.Inspect {
	case "dict", "text":
	default:
		return fmt.Errorf("output.inspect must be dict or text, got %q", c.Output.Inspect)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Harness.Tolerance <= 0 {
		return fmt.Errorf("harness.tolerance must be positive, got %v", c.Harness.Tolerance)
	}
	return nil
}
