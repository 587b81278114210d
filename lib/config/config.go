// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the configuration file when no --config
// flag is given.
const EnvironmentVariable = "FLOW_CONFIG"

// Config is the configuration of the flow tool.
type Config struct {
	// Program overrides the root name shown in help and error output.
	// Empty means the manifest's own root name.
	Program string `yaml:"program"`

	// Color selects help styling: auto, always or never.
	// Default: auto
	Color string `yaml:"color"`

	// Log configures the diagnostic logger.
	Log LogConfig `yaml:"log"`

	// Help configures help rendering.
	Help HelpConfig `yaml:"help"`

	// Doc configures documentation export.
	Doc DocConfig `yaml:"doc"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: warn
	Level string `yaml:"level"`

	// Format is text, json, or auto (text on a terminal, JSON
	// otherwise).
	// Default: auto
	Format string `yaml:"format"`
}

// HelpConfig configures help rendering.
type HelpConfig struct {
	// Width is the wrapping width in columns.
	// Default: 80
	Width int `yaml:"width"`
}

// DocConfig configures documentation export.
type DocConfig struct {
	// Format is json, yaml or cbor.
	// Default: json
	Format string `yaml:"format"`

	// Compression applies to CBOR snapshots: none, lz4 or zstd.
	// Default: none
	Compression string `yaml:"compression"`

	// Output is the default output file. Empty means stdout. ${HOME}
	// and ${VAR:-default} patterns are expanded.
	Output string `yaml:"output"`
}

var (
	colorModes   = []string{"auto", "always", "never"}
	logLevels    = []string{"debug", "info", "warn", "error"}
	logFormats   = []string{"auto", "text", "json"}
	docFormats   = []string{"json", "yaml", "cbor"}
	compressions = []string{"none", "lz4", "zstd"}
)

// Default returns the configuration used when no file is given, and
// the base that a file is merged into.
func Default() *Config {
	return &Config{
		Color: "auto",
		Log: LogConfig{
			Level:  "warn",
			Format: "auto",
		},
		Help: HelpConfig{
			Width: 80,
		},
		Doc: DocConfig{
			Format:      "json",
			Compression: "none",
		},
	}
}

// Resolve loads the file named by path, or by FLOW_CONFIG when path is
// empty. With neither set it returns [Default]. There is no search for
// configuration files anywhere else.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Load loads configuration from the FLOW_CONFIG environment variable,
// which must be set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your flow.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// [Default], then expands variables and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// loadFile decodes a single file into c. Unknown keys are errors and
// an empty file leaves c unchanged.
func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Doc.Output = expandVars(c.Doc.Output, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	check := func(field, value string, allowed []string) {
		if !slices.Contains(allowed, value) {
			errs = append(errs, fmt.Errorf("%s must be one of: %s (got %q)",
				field, strings.Join(allowed, ", "), value))
		}
	}
	check("color", c.Color, colorModes)
	check("log.level", c.Log.Level, logLevels)
	check("log.format", c.Log.Format, logFormats)
	check("doc.format", c.Doc.Format, docFormats)
	check("doc.compression", c.Doc.Compression, compressions)

	if c.Help.Width < 20 {
		errs = append(errs, fmt.Errorf("help.width must be at least 20 (got %d)", c.Help.Width))
	}
	if strings.TrimSpace(c.Program) != c.Program {
		errs = append(errs, fmt.Errorf("program must not have surrounding whitespace"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel returns the configured level as an slog.Level. It assumes
// a validated configuration; unknown names map to warn.
func (l LogConfig) SlogLevel() slog.Level {
	return ParseLevel(l.Level)
}

// ParseLevel maps debug, info, warn and error onto slog levels.
// Anything else is warn.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ValidLevel reports whether name is a log level [ParseLevel] knows.
func ValidLevel(name string) bool {
	return slices.Contains(logLevels, name)
}
