// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
)

// DefaultVersion is reported by workflows that do not set Version.
const DefaultVersion = "1.0.0"

// Handler runs a resolved workflow. args holds the typed values bound
// for the workflow's descriptors plus the leaf's positional arguments.
type Handler func(ctx context.Context, args Values, ec *Context) error

// Example is an example invocation shown at the end of a workflow's
// help output.
type Example struct {
	// Command is the literal command line.
	Command string

	// Description explains what the example does.
	Description string
}

// Workflow is a named, versioned command node.
//
// A Workflow is declared once (usually as a package-level value passed
// through [Define]) and may be run any number of times. It references,
// but does not own, its children: the same child may appear under
// several parents, and a workflow may list itself or an ancestor.
type Workflow struct {
	// Name is the token that selects this workflow from its parent.
	Name string

	// Description is shown in help output and in the parent's subflow
	// listing.
	Description string

	// Version is printed by --version. Empty means [DefaultVersion].
	Version string

	// Args are the workflow's argument descriptors, in help order.
	Args []Arg

	// Subflows are the workflow's children, in help order. Names must
	// be unique; a later child with the same name as an earlier one
	// shadows it.
	Subflows []Child

	// Examples are printed after the subflow listing in top-level help.
	Examples []Example

	// Notes is a Markdown block printed last in top-level help.
	Notes string

	// Handler runs the workflow. A workflow without a handler prints
	// its help when it is the resolved leaf.
	Handler Handler

	// AutoStart makes [Define] run the workflow against the process
	// argument vector as soon as it is defined.
	AutoStart bool

	// mutex guards children and childNames, the resolved subflow
	// table built on first use.
	mutex      sync.Mutex
	children   map[string]*Workflow
	childNames []string
}

// Meta is the introspection view of a workflow.
type Meta struct {
	Name        string
	Description string
	Version     string
	Args        []Arg
}

// Define validates w and returns it. Invalid declarations are
// programming errors and panic. When w.AutoStart is set, Define runs w
// with [Workflow.Main] before returning; Main exits the process only
// on failure.
func Define(w *Workflow, options ...Option) *Workflow {
	if err := w.Validate(); err != nil {
		panic(fmt.Sprintf("flow.Define(%q): %v", w.Name, err))
	}
	if w.AutoStart {
		w.Main(options...)
	}
	return w
}

// Validate checks the workflow's own declaration: its name, its
// argument descriptors, and its directly declared children. Lazy
// children are not loaded.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow with empty name")
	}

	names := make(map[string]bool, len(w.Args))
	aliases := make(map[string]string)
	for _, arg := range w.Args {
		if err := arg.validate(); err != nil {
			return err
		}
		if names[arg.Name] {
			return fmt.Errorf("duplicate argument %q", arg.Name)
		}
		names[arg.Name] = true
		if arg.Alias == "" {
			continue
		}
		if other, exists := aliases[arg.Alias]; exists {
			return fmt.Errorf("alias -%s used by both %q and %q", arg.Alias, other, arg.Name)
		}
		aliases[arg.Alias] = arg.Name
	}

	for index, child := range w.Subflows {
		if !child.valid() {
			return fmt.Errorf("subflow %d: empty child reference", index)
		}
		if child.workflow != nil && child.workflow.Name == "" {
			return fmt.Errorf("subflow %d: workflow with empty name", index)
		}
	}
	return nil
}

// Meta returns the workflow's name, description, version and a copy of
// its argument descriptors.
func (w *Workflow) Meta() Meta {
	return Meta{
		Name:        w.Name,
		Description: w.Description,
		Version:     w.version(),
		Args:        slices.Clone(w.Args),
	}
}

// Main runs the workflow against os.Args and exits the process with
// the resulting code when it is non-zero. This is the only place the
// engine reads the process argument vector.
func (w *Workflow) Main(options ...Option) {
	settings := newSettings(options)
	code := w.Run(context.Background(), os.Args[1:], options...)
	if code != 0 {
		settings.exit(code)
	}
}

func (w *Workflow) version() string {
	if w.Version == "" {
		return DefaultVersion
	}
	return w.Version
}

// arg looks up a descriptor by long name, then by alias.
func (w *Workflow) arg(key string) (Arg, bool) {
	for _, arg := range w.Args {
		if arg.Name == key {
			return arg, true
		}
	}
	for _, arg := range w.Args {
		if arg.Alias != "" && arg.Alias == key {
			return arg, true
		}
	}
	return Arg{}, false
}
