// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "flow.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Color != "auto" {
		t.Errorf("expected color=auto, got %s", cfg.Color)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "auto" {
		t.Errorf("expected log warn/auto, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Help.Width != 80 {
		t.Errorf("expected help.width=80, got %d", cfg.Help.Width)
	}
	if cfg.Doc.Format != "json" || cfg.Doc.Compression != "none" {
		t.Errorf("expected doc json/none, got %s/%s", cfg.Doc.Format, cfg.Doc.Compression)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresFlowConfig(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when FLOW_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "FLOW_CONFIG environment variable not set") {
		t.Errorf("unexpected error message: %q", err)
	}
}

func TestResolve(t *testing.T) {
	fromEnv := writeConfig(t, "program: from-env\n")
	fromFlag := writeConfig(t, "program: from-flag\n")

	t.Run("no file", func(t *testing.T) {
		t.Setenv(EnvironmentVariable, "")
		cfg, err := Resolve("")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if cfg.Program != "" || cfg.Help.Width != 80 {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(EnvironmentVariable, fromEnv)
		cfg, err := Resolve("")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if cfg.Program != "from-env" {
			t.Errorf("expected program=from-env, got %s", cfg.Program)
		}
	})

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvironmentVariable, fromEnv)
		cfg, err := Resolve(fromFlag)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if cfg.Program != "from-flag" {
			t.Errorf("expected program=from-flag, got %s", cfg.Program)
		}
	})
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
program: ops
color: never

log:
  level: debug
  format: json

help:
  width: 100

doc:
  format: cbor
  compression: zstd
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Program != "ops" {
		t.Errorf("expected program=ops, got %s", cfg.Program)
	}
	if cfg.Color != "never" {
		t.Errorf("expected color=never, got %s", cfg.Color)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("expected log debug/json, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Help.Width != 100 {
		t.Errorf("expected help.width=100, got %d", cfg.Help.Width)
	}
	if cfg.Doc.Format != "cbor" || cfg.Doc.Compression != "zstd" {
		t.Errorf("expected doc cbor/zstd, got %s/%s", cfg.Doc.Format, cfg.Doc.Compression)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "log:\n  level: info\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log.level=info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "auto" || cfg.Help.Width != 80 || cfg.Doc.Format != "json" {
		t.Errorf("unset fields lost their defaults: %+v", cfg)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadFile failed on an empty file: %v", err)
	}
	if cfg.Color != "auto" {
		t.Errorf("expected defaults from an empty file, got %+v", cfg)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "colour: never\n", "field colour not found"},
		{"unknown nested key", "log:\n  lvl: debug\n", "field lvl not found"},
		{"bad value", "color: sometimes\n", "color must be one of"},
		{"narrow width", "help:\n  width: 5\n", "help.width must be at least 20"},
		{"bad compression", "doc:\n  compression: gzip\n", "doc.compression must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFile() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// Only FLOW_CONFIG selects the file; nothing overrides its values.
	t.Setenv("FLOW_COLOR", "always")
	t.Setenv("FLOW_LOG_LEVEL", "error")

	cfg, err := LoadFile(writeConfig(t, "color: never\nlog:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Color != "never" {
		t.Errorf("expected color=never from file, got %s (env vars should not override)", cfg.Color)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log.level=debug from file, got %s (env vars should not override)", cfg.Log.Level)
	}
}

func TestLoadFile_ExpandsOutput(t *testing.T) {
	t.Setenv("HOME", "/home/user")
	cfg, err := LoadFile(writeConfig(t, "doc:\n  output: ${HOME}/docs/${TREE:-tree}.json\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Doc.Output != "/home/user/docs/tree.json" {
		t.Errorf("expected expanded output path, got %s", cfg.Doc.Output)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/flow",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/flow",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "invalid doc format",
			modify:  func(c *Config) { c.Doc.Format = "toml" },
			wantErr: true,
		},
		{
			name:    "padded program",
			modify:  func(c *Config) { c.Program = " ops" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Color = "rainbow"
	cfg.Help.Width = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"color", "help.width"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelWarn,
	} {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", name, got, want)
		}
	}
	if ValidLevel("bogus") || !ValidLevel("info") {
		t.Error("ValidLevel disagrees with the level list")
	}
}
