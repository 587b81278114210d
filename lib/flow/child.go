// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import "errors"

// Loader yields a workflow on demand. Loaders let two packages list
// each other's workflows as subflows: each package refers to the other
// through a function value evaluated at run time, not through a
// package-level variable evaluated at initialization.
type Loader func() (*Workflow, error)

// Child is a reference to a subflow: either a workflow value or a
// loader that produces one.
type Child struct {
	workflow *Workflow
	load     Loader
}

// Sub references w directly.
func Sub(w *Workflow) Child {
	return Child{workflow: w}
}

// Lazy references the workflow load returns. load runs the first time
// the parent's subflow table is needed, and its result is cached by
// the parent.
func Lazy(load Loader) Child {
	return Child{load: load}
}

// IsLazy reports whether the reference is a loader.
func (c Child) IsLazy() bool {
	return c.load != nil
}

func (c Child) valid() bool {
	return c.workflow != nil || c.load != nil
}

func (c Child) resolve() (*Workflow, error) {
	if c.load == nil {
		if c.workflow == nil {
			return nil, errors.New("empty child reference")
		}
		return c.workflow, nil
	}
	workflow, err := c.load()
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, errors.New("loader returned no workflow")
	}
	if workflow.Name == "" {
		return nil, errors.New("loader returned a workflow with an empty name")
	}
	return workflow, nil
}
