// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"maps"
	"slices"
)

// Resolve returns the workflow's subflow table keyed by name. The table
// is built on the first call (running any loaders) and cached on the
// workflow for the rest of its lifetime. A loader failure is returned
// as a [*LoadError] and nothing is cached, so a later call retries.
//
// Resolve does not descend: the children's own tables are built only
// when they are resolved in turn. A workflow may list itself or an
// ancestor; no depth limit applies.
//
// The returned map is a copy and may be modified by the caller.
func (w *Workflow) Resolve() (map[string]*Workflow, error) {
	table, _, err := w.resolved()
	if err != nil {
		return nil, err
	}
	return maps.Clone(table), nil
}

// Subflow returns the child named name, resolving the table if needed.
func (w *Workflow) Subflow(name string) (*Workflow, bool, error) {
	table, _, err := w.resolved()
	if err != nil {
		return nil, false, err
	}
	child, ok := table[name]
	return child, ok, nil
}

// SubflowNames returns the children's names in declaration order. A
// name declared twice appears once, at its first position.
func (w *Workflow) SubflowNames() ([]string, error) {
	_, names, err := w.resolved()
	if err != nil {
		return nil, err
	}
	return slices.Clone(names), nil
}

func (w *Workflow) resolved() (map[string]*Workflow, []string, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.children != nil {
		return w.children, w.childNames, nil
	}

	table := make(map[string]*Workflow, len(w.Subflows))
	names := make([]string, 0, len(w.Subflows))
	for index, reference := range w.Subflows {
		child, err := reference.resolve()
		if err != nil {
			return nil, nil, &LoadError{Parent: w.Name, Index: index, Err: err}
		}
		if _, exists := table[child.Name]; !exists {
			names = append(names, child.Name)
		}
		table[child.Name] = child
	}

	w.children = table
	w.childNames = names
	return table, names, nil
}
