// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdef

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/flow/lib/flow"
)

// ManifestError lists the structural issues [Validate] found.
type ManifestError struct {
	Issues []string
}

func (e *ManifestError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid manifest: " + e.Issues[0]
	}
	return "invalid manifest:\n  - " + strings.Join(e.Issues, "\n  - ")
}

// Build turns a manifest into a workflow tree. Every named workflow is
// built exactly once, so every reference to it resolves to the same
// *flow.Workflow; references become [flow.Lazy] children that look the
// workflow up when the parent's subflow table is first needed.
//
// Build fails on structural issues (as a [*ManifestError]), on handler
// names the registry does not know, on handler factories that reject
// their params, and on argument declarations the engine rejects.
func Build(manifest *Manifest, registry *Registry) (*flow.Workflow, error) {
	if issues := Validate(manifest); len(issues) > 0 {
		return nil, &ManifestError{Issues: issues}
	}

	b := &builder{
		registry: registry,
		named:    make(map[string]*flow.Workflow, len(manifest.Workflows)),
	}
	for _, definition := range manifest.Workflows {
		workflow, err := b.build(definition, definition.Name)
		if err != nil {
			return nil, err
		}
		b.named[definition.Name] = workflow
	}

	if manifest.isRef() {
		return b.named[manifest.Ref], nil
	}
	return b.build(manifest.Definition, manifest.Name)
}

type builder struct {
	registry *Registry

	// named is complete before Build returns and read-only afterwards,
	// which is when loaders run.
	named map[string]*flow.Workflow
}

func (b *builder) build(definition Definition, path string) (*flow.Workflow, error) {
	workflow := &flow.Workflow{
		Name:        definition.Name,
		Description: definition.Description,
		Version:     definition.Version,
		Notes:       definition.Notes,
	}

	for _, declared := range definition.Args {
		arg, err := convertArg(declared)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		workflow.Args = append(workflow.Args, arg)
	}

	for _, example := range definition.Examples {
		workflow.Examples = append(workflow.Examples, flow.Example{
			Command:     example.Command,
			Description: example.Description,
		})
	}

	if definition.Handler != "" {
		factory, ok := b.registry.lookup(definition.Handler)
		if !ok {
			return nil, fmt.Errorf("%s: unknown handler %q (registered: %s)",
				path, definition.Handler, strings.Join(b.registry.Names(), ", "))
		}
		handler, err := factory(definition.Params)
		if err != nil {
			return nil, fmt.Errorf("%s: handler %q: %w", path, definition.Handler, err)
		}
		workflow.Handler = handler
	} else if len(definition.Params) > 0 {
		return nil, fmt.Errorf("%s: params given without a handler", path)
	}

	for _, child := range definition.Subflows {
		if child.isRef() {
			workflow.Subflows = append(workflow.Subflows, flow.Lazy(b.loader(child.Ref)))
			continue
		}
		built, err := b.build(child, path+" "+child.Name)
		if err != nil {
			return nil, err
		}
		workflow.Subflows = append(workflow.Subflows, flow.Sub(built))
	}

	if err := workflow.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return workflow, nil
}

func (b *builder) loader(ref string) flow.Loader {
	return func() (*flow.Workflow, error) {
		workflow, ok := b.named[ref]
		if !ok {
			return nil, fmt.Errorf("unknown ref %q", ref)
		}
		return workflow, nil
	}
}

// convertArg maps an ArgSpec onto a descriptor. YAML reads unquoted
// scalars by their look, so a string argument whose default is 8080 or
// true receives the text of that scalar.
func convertArg(declared ArgSpec) (flow.Arg, error) {
	arg := flow.Arg{
		Name:        declared.Name,
		Kind:        declared.Kind,
		Alias:       declared.Alias,
		Description: declared.Description,
		Default:     declared.Default,
		Required:    declared.Required,
	}
	if declared.Kind == flow.String && declared.Default != nil {
		switch declared.Default.(type) {
		case string:
		case bool, int, int64, uint64, float64:
			arg.Default = fmt.Sprint(declared.Default)
		default:
			return flow.Arg{}, fmt.Errorf("argument %q: default must be a scalar, got %T", declared.Name, declared.Default)
		}
	}
	return arg, nil
}
