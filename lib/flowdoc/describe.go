// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdoc

import (
	"context"
	"slices"

	"github.com/bureau-foundation/flow/lib/flow"
)

// Node describes one workflow.
type Node struct {
	Name string `json:"name" yaml:"name"`

	// Path is the invocation path of this occurrence, root first.
	Path []string `json:"path" yaml:"path"`

	// Ref is set on a reference node: the workflow was already
	// described at this path, and every other field except Name and
	// Path is empty.
	Ref []string `json:"ref,omitempty" yaml:"ref,omitempty"`

	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string    `json:"version,omitempty" yaml:"version,omitempty"`
	Runnable    bool      `json:"runnable,omitempty" yaml:"runnable,omitempty"`
	Args        []Arg     `json:"args,omitempty" yaml:"args,omitempty"`
	Subflows    []*Node   `json:"subflows,omitempty" yaml:"subflows,omitempty"`
	Examples    []Example `json:"examples,omitempty" yaml:"examples,omitempty"`
	Notes       string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Arg describes one argument. Default holds the normalized value
// (string, bool or float64).
type Arg struct {
	Name        string    `json:"name" yaml:"name"`
	Kind        flow.Kind `json:"kind" yaml:"kind"`
	Alias       string    `json:"alias,omitempty" yaml:"alias,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
}

type Example struct {
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsRef reports whether n stands in for a workflow described elsewhere.
func (n *Node) IsRef() bool {
	return len(n.Ref) > 0
}

// Count returns the number of fully described nodes in the document
// (reference nodes are not counted).
func (n *Node) Count() int {
	if n.IsRef() {
		return 0
	}
	count := 1
	for _, child := range n.Subflows {
		count += child.Count()
	}
	return count
}

// Describe builds the document for the tree rooted at root. Every
// lazy subflow is loaded; the first loader failure is returned as a
// [*flow.LoadError]. ctx is checked between nodes.
func Describe(ctx context.Context, root *flow.Workflow) (*Node, error) {
	d := describer{ctx: ctx, seen: make(map[*flow.Workflow][]string)}
	return d.describe(root, []string{root.Name})
}

type describer struct {
	ctx  context.Context
	seen map[*flow.Workflow][]string
}

func (d *describer) describe(workflow *flow.Workflow, path []string) (*Node, error) {
	if err := d.ctx.Err(); err != nil {
		return nil, err
	}
	if first, ok := d.seen[workflow]; ok {
		return &Node{Name: workflow.Name, Path: path, Ref: first}, nil
	}
	d.seen[workflow] = path

	meta := workflow.Meta()
	node := &Node{
		Name:        meta.Name,
		Path:        path,
		Description: meta.Description,
		Version:     meta.Version,
		Runnable:    workflow.Handler != nil,
		Notes:       workflow.Notes,
	}
	for _, arg := range meta.Args {
		described := Arg{
			Name:        arg.Name,
			Kind:        arg.Kind,
			Alias:       arg.Alias,
			Description: arg.Description,
			Required:    arg.Required,
		}
		if value, ok := arg.DefaultValue(); ok {
			described.Default = value
		}
		node.Args = append(node.Args, described)
	}
	for _, example := range workflow.Examples {
		node.Examples = append(node.Examples, Example{Command: example.Command, Description: example.Description})
	}

	names, err := workflow.SubflowNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		child, _, err := workflow.Subflow(name)
		if err != nil {
			return nil, err
		}
		described, err := d.describe(child, append(slices.Clone(path), name))
		if err != nil {
			return nil, err
		}
		node.Subflows = append(node.Subflows, described)
	}
	return node, nil
}
