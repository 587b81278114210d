// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package flowdef builds workflow trees from declarative manifests.
//
// A manifest describes a root workflow plus a list of named workflow
// definitions. Any subflow entry may be an inline definition or a
// reference ({ref: name}) to a named one; references become lazy
// children, so named workflows may refer to each other and to
// themselves. Handlers are named in the manifest and looked up in a
// [Registry] supplied by the program.
//
// Manifests are authored as YAML, or as JSONC (JSON extended with
// comments and trailing commas). The typical flow:
//
//  1. Load or Parse: file bytes → Manifest (unknown keys are errors)
//  2. Validate: structural checks, collected as a list of issues
//  3. Build: Manifest + Registry → *flow.Workflow
package flowdef

import "github.com/bureau-foundation/flow/lib/flow"

// Manifest is a parsed manifest file. The embedded Definition is the
// root workflow; it may itself be a reference to one of Workflows.
type Manifest struct {
	Definition `yaml:",inline"`

	// Workflows are named definitions that subflow entries (and the
	// root) can reference by name.
	Workflows []Definition `json:"workflows,omitempty" yaml:"workflows,omitempty"`
}

// Definition declares one workflow, or references a named one when
// Ref is set (in which case every other field must be empty). Params
// are passed to the handler's [Factory].
type Definition struct {
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`

	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string         `json:"version,omitempty" yaml:"version,omitempty"`
	Args        []ArgSpec      `json:"args,omitempty" yaml:"args,omitempty"`
	Handler     string         `json:"handler,omitempty" yaml:"handler,omitempty"`
	Subflows    []Definition   `json:"subflows,omitempty" yaml:"subflows,omitempty"`
	Examples    []ExampleSpec  `json:"examples,omitempty" yaml:"examples,omitempty"`
	Notes       string         `json:"notes,omitempty" yaml:"notes,omitempty"`
	Params      map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// ArgSpec declares one argument. Kind is "string", "boolean" (or
// "bool") or "number"; an omitted kind is string.
type ArgSpec struct {
	Name        string    `json:"name" yaml:"name"`
	Kind        flow.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Alias       string    `json:"alias,omitempty" yaml:"alias,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
}

type ExampleSpec struct {
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (d Definition) isRef() bool {
	return d.Ref != ""
}

// hasBody reports whether any field besides Ref is set.
func (d Definition) hasBody() bool {
	return d.Name != "" || d.Description != "" || d.Version != "" || len(d.Args) > 0 ||
		d.Handler != "" || len(d.Subflows) > 0 || len(d.Examples) > 0 || d.Notes != "" ||
		len(d.Params) > 0
}

