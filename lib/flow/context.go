// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// Context is built once per invocation and handed to the leaf's
// handler. Its subflow accessors are bound to the leaf's own children,
// not the root's, so a handler can look up and run the subflows it
// declares.
type Context struct {
	// Path is the invocation path, root first.
	Path []string

	// Raw is the argument vector with the tokens consumed by routing
	// removed.
	Raw []string

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	leaf     *Workflow
	settings *settings
}

func newContext(leaf *Workflow, path, raw []string, s *settings) *Context {
	return &Context{
		Path:     path,
		Raw:      raw,
		Stdout:   s.stdout,
		Stderr:   s.stderr,
		Logger:   s.logger,
		leaf:     leaf,
		settings: s,
	}
}

// Workflow returns the workflow whose handler is running.
func (c *Context) Workflow() *Workflow {
	return c.leaf
}

// Subflow returns the running workflow's child named name.
func (c *Context) Subflow(name string) (*Workflow, bool, error) {
	return c.leaf.Subflow(name)
}

// SubflowNames returns the running workflow's children's names in
// declaration order.
func (c *Context) SubflowNames() ([]string, error) {
	return c.leaf.SubflowNames()
}

// Run invokes the child named name with argv through the full driver
// (routing, typed parse, validation), writing to this context's
// streams. Errors are returned, not printed.
func (c *Context) Run(ctx context.Context, name string, argv []string) error {
	child, ok, err := c.leaf.Subflow(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s has no subflow %q", joinPath(c.Path), name)
	}
	path := append(slices.Clone(c.Path), child.Name)
	return child.Invoke(ctx, argv, c.settings.inherit(path)...)
}
