// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
)

// ColorMode selects whether help output is styled.
type ColorMode int

const (
	// ColorAuto styles output only when the writer is a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses "auto", "always" or "never". The empty string
// is ColorAuto.
func ParseColorMode(name string) (ColorMode, error) {
	switch name {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode %q (want auto, always or never)", name)
	}
}

// DefaultHelpWidth is the wrapping width of help output when none is
// configured.
const DefaultHelpWidth = 80

// Option configures one call of [Workflow.Run], [Workflow.Invoke],
// [Workflow.Main] or [Workflow.Execute].
type Option func(*settings)

// WithStdout sets the writer for help, version and handler output.
// Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(s *settings) { s.stdout = w }
}

// WithStderr sets the writer for error messages. Defaults to os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(s *settings) { s.stderr = w }
}

// WithLogger sets the logger for routing and dispatch diagnostics.
// Defaults to a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithProgram replaces the root workflow's name in help output and in
// [Context.Path] (typically with the binary name).
func WithProgram(name string) Option {
	return func(s *settings) { s.program = name }
}

// WithColor sets the help styling mode.
func WithColor(mode ColorMode) Option {
	return func(s *settings) { s.color = mode }
}

// WithHelpWidth sets the width help text is wrapped to.
func WithHelpWidth(width int) Option {
	return func(s *settings) {
		if width > 0 {
			s.width = width
		}
	}
}

// WithExit replaces os.Exit in [Workflow.Main].
func WithExit(exit func(code int)) Option {
	return func(s *settings) { s.exit = exit }
}

// withPathPrefix makes the invocation path start with prefix instead
// of the root's name. Used when a handler runs one of its children
// through [Context.Run].
func withPathPrefix(prefix []string) Option {
	return func(s *settings) { s.pathPrefix = slices.Clone(prefix) }
}

type settings struct {
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
	program    string
	pathPrefix []string
	color      ColorMode
	width      int
	exit       func(int)
}

func newSettings(options []Option) *settings {
	s := &settings{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.New(slog.DiscardHandler),
		width:  DefaultHelpWidth,
		exit:   os.Exit,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// displayPath turns a route path (root name first) into the path shown
// to users and handlers.
func (s *settings) displayPath(path []string) []string {
	switch {
	case s.pathPrefix != nil:
		return append(slices.Clone(s.pathPrefix), path[1:]...)
	case s.program != "":
		return append([]string{s.program}, path[1:]...)
	default:
		return slices.Clone(path)
	}
}

func (s *settings) helpOptions(showAll bool) HelpOptions {
	return HelpOptions{
		ShowAll: showAll,
		Color:   s.color,
		Width:   s.width,
	}
}

// inherit returns options reproducing s for a nested invocation rooted
// at path.
func (s *settings) inherit(path []string) []Option {
	return []Option{
		WithStdout(s.stdout),
		WithStderr(s.stderr),
		WithLogger(s.logger),
		WithColor(s.color),
		WithHelpWidth(s.width),
		WithExit(s.exit),
		withPathPrefix(path),
	}
}
