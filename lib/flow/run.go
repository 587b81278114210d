// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// Run resolves argv against the workflow tree, runs the selected
// handler, and returns the process exit code:
//
//   - 0 after a successful handler, help, or version output;
//   - 1 after a missing required argument, a rejected command line, a
//     failing loader, or a handler error, with a message on the error
//     stream;
//   - the code carried by an error with an ExitCode() int method (such
//     as [*ExitError]) anywhere in the chain, with no message.
//
// Run never exits the process; see [Workflow.Main].
func (w *Workflow) Run(ctx context.Context, argv []string, options ...Option) int {
	s := newSettings(options)
	return s.report(w.Invoke(ctx, argv, options...))
}

// Invoke is [Workflow.Run] without the exit-code translation: errors
// are returned instead of printed.
//
// The driver runs in this order:
//
//  1. Routing pass. --version prints this workflow's version and
//     returns before any routing.
//  2. Path walk. --help (or -h) prints the resolved leaf's help;
//     --help=all prints the leaf and its whole subtree.
//  3. Typed pass against the leaf's descriptors ([*UsageError] on
//     failure).
//  4. Required-argument check ([*ValidationError] for the first
//     missing one in declaration order).
//  5. The leaf's handler ([*HandlerError] wrapping its error). A leaf
//     without a handler prints its help instead.
func (w *Workflow) Invoke(ctx context.Context, argv []string, options ...Option) error {
	s := newSettings(options)
	logger := s.logger

	routing := ParseRouting(argv)
	if routing.version() {
		_, err := fmt.Fprintln(s.stdout, w.version())
		return err
	}

	route, err := Walk(w, routing.Positional)
	if err != nil {
		return err
	}
	path := s.displayPath(route.Path)
	logger.Debug("resolved route",
		"path", joinPath(path),
		"consumed", route.Consumed,
		"rest", len(route.Rest),
	)

	if requested, all := routing.help(); requested {
		return RenderHelp(s.stdout, route.Leaf, path, s.helpOptions(all))
	}

	values, err := ParseTyped(route.Leaf, route.Rest, routing)
	if err != nil {
		return &UsageError{Path: path, Err: err}
	}

	for _, arg := range route.Leaf.Args {
		if arg.Required && !values.Has(arg.Name) {
			return &ValidationError{Path: path, Arg: arg.Name}
		}
	}

	if route.Leaf.Handler == nil {
		s.hintUnknownSubflow(route)
		return RenderHelp(s.stdout, route.Leaf, path, s.helpOptions(false))
	}

	logger.Debug("dispatching handler", "path", joinPath(path))
	ec := newContext(route.Leaf, path, routing.residualRaw(route.Consumed), s)
	if err := route.Leaf.Handler(ctx, values, ec); err != nil {
		return &HandlerError{Path: path, Err: err}
	}
	return nil
}

// Execute calls the workflow's handler directly with the arguments
// {_: [], ...partial}. Nothing is parsed and nothing is validated:
// required arguments missing from partial are simply absent. A "_"
// entry of type []string in partial replaces the empty positional
// list.
func (w *Workflow) Execute(ctx context.Context, partial map[string]any, options ...Option) error {
	if w.Handler == nil {
		return fmt.Errorf("executing %q: %w", w.Name, ErrNoHandler)
	}
	s := newSettings(options)

	named := maps.Clone(partial)
	positional := []string{}
	if value, ok := named[positionalKey]; ok {
		if tokens, isTokens := value.([]string); isTokens {
			positional = tokens
		}
		delete(named, positionalKey)
	}

	path := s.displayPath([]string{w.Name})
	ec := newContext(w, path, []string{}, s)
	return w.Handler(ctx, NewValues(positional, named), ec)
}

// report prints err (when it carries a message for the user) and
// returns the exit code.
func (s *settings) report(err error) int {
	if err == nil {
		return 0
	}

	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		fmt.Fprintf(s.stderr, "error: %v\n\nRun '%s --help' for usage.\n",
			validation, joinPath(validation.Path))
		return 1
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintf(s.stderr, "error: %v\n\nRun '%s --help' for usage.\n",
			usage, joinPath(usage.Path))
		return 1
	}

	s.logger.Debug("invocation failed", "category", string(CategoryOf(err)), "error", err)
	fmt.Fprintf(s.stderr, "error: %v\n", err)
	return 1
}

// hintUnknownSubflow writes a "did you mean" line when the walk stopped
// at a token that looks like a mistyped subflow of a leaf that cannot
// use positional arguments anyway.
func (s *settings) hintUnknownSubflow(route Route) {
	if len(route.Rest) == 0 {
		return
	}
	names, err := route.Leaf.SubflowNames()
	if err != nil || len(names) == 0 {
		return
	}
	unknown := route.Rest[0]
	path := joinPath(s.displayPath(route.Path))
	if suggestion := suggestName(unknown, names); suggestion != "" {
		fmt.Fprintf(s.stderr, "unknown subflow %q for %q (did you mean %q?)\n", unknown, path, suggestion)
		return
	}
	fmt.Fprintf(s.stderr, "unknown subflow %q for %q\n", unknown, path)
}
