// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/flow/lib/config"
	"github.com/bureau-foundation/flow/lib/flow"
	"github.com/bureau-foundation/flow/lib/flowdef"
	"github.com/bureau-foundation/flow/lib/flowdoc"
)

const (
	configFlag   = "config"
	logLevelFlag = "log-level"
)

// globalParams are accepted by every command. Their values are read by
// newApp from the routing pass, before any command runs; the
// declarations exist so the typed pass and help know about them.
type globalParams struct {
	Config   string `flag:"config"    desc:"configuration file (default: $FLOW_CONFIG)"`
	LogLevel string `flag:"log-level" desc:"log level: debug, info, warn or error (default from config)"`
}

// app carries the resolved configuration and output streams shared by
// every command.
type app struct {
	config *config.Config
	logger *slog.Logger
	color  flow.ColorMode
	stdout io.Writer
	stderr io.Writer
}

func newApp(globals flow.Parsed, stdout, stderr io.Writer) (*app, error) {
	configPath, err := globalString(globals, configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if override, err := globalString(globals, logLevelFlag); err != nil {
		return nil, err
	} else if override != "" {
		if !config.ValidLevel(override) {
			return nil, fmt.Errorf("--%s: unknown level %q (want debug, info, warn or error)", logLevelFlag, override)
		}
		level = override
	}

	color, err := flow.ParseColorMode(cfg.Color)
	if err != nil {
		return nil, err
	}

	logger := newLogger(stderr, config.ParseLevel(level), cfg.Log.Format)
	logger.Debug("configuration resolved",
		"config", configPath,
		"color", cfg.Color,
		"help_width", cfg.Help.Width,
	)

	return &app{
		config: cfg,
		logger: logger,
		color:  color,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// globalString returns the value of a global flag from the routing
// pass. Both global flags take a value, so a bare switch is an error.
func globalString(globals flow.Parsed, key string) (string, error) {
	value, ok := globals.Flags[key]
	if !ok {
		return "", nil
	}
	text, isText := value.(string)
	if !isText {
		return "", fmt.Errorf("--%s requires a value", key)
	}
	return text, nil
}

// options configure the flow tree itself.
func (a *app) options() []flow.Option {
	return []flow.Option{
		flow.WithStdout(a.stdout),
		flow.WithStderr(a.stderr),
		flow.WithLogger(a.logger),
		flow.WithColor(a.color),
		flow.WithHelpWidth(a.config.Help.Width),
	}
}

// manifestOptions configure a tree built from a manifest and run from
// inside a handler.
func (a *app) manifestOptions(ec *flow.Context) []flow.Option {
	options := []flow.Option{
		flow.WithStdout(ec.Stdout),
		flow.WithStderr(ec.Stderr),
		flow.WithLogger(ec.Logger),
		flow.WithColor(a.color),
		flow.WithHelpWidth(a.config.Help.Width),
	}
	if a.config.Program != "" {
		options = append(options, flow.WithProgram(a.config.Program))
	}
	return options
}

// buildManifest loads a manifest and builds it against the built-in
// handlers.
func (a *app) buildManifest(path string) (*flow.Workflow, error) {
	manifest, err := flowdef.Load(path)
	if err != nil {
		return nil, err
	}
	root, err := flowdef.Build(manifest, builtinRegistry())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("manifest built", "path", path, "root", root.Name)
	return root, nil
}

// describeManifest builds a manifest and describes the whole tree,
// which loads every referenced workflow.
func (a *app) describeManifest(ctx context.Context, path string) (*flowdoc.Node, error) {
	root, err := a.buildManifest(path)
	if err != nil {
		return nil, err
	}
	node, err := flowdoc.Describe(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return node, nil
}

// manifestPath returns the single positional argument of a command
// that takes exactly one file.
func manifestPath(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], nil
}
