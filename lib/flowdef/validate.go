// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdef

import (
	"fmt"
	"strings"
)

// Validate checks a manifest for structural issues and returns them as
// human-readable descriptions. An empty list means the manifest can be
// built (given a registry that knows its handler names).
//
// Checks:
//   - the root is either a reference or a definition with a name
//   - every named workflow has a unique name and is not a reference
//   - every subflow entry is either {ref: name} alone or an inline
//     definition with a name
//   - every reference names a workflow in the workflows list
//   - subflow names are unique within one parent
//   - argument names are present and unique within one workflow
func Validate(manifest *Manifest) []string {
	var issues []string

	named := make(map[string]int, len(manifest.Workflows))
	for index, definition := range manifest.Workflows {
		prefix := fmt.Sprintf("workflows[%d]", index)
		switch {
		case definition.isRef():
			issues = append(issues, fmt.Sprintf("%s: named workflows cannot be references", prefix))
			continue
		case definition.Name == "":
			issues = append(issues, fmt.Sprintf("%s: name is required", prefix))
			continue
		}
		if first, exists := named[definition.Name]; exists {
			issues = append(issues, fmt.Sprintf("%s %q: duplicate workflow name (first used at workflows[%d])",
				prefix, definition.Name, first))
			continue
		}
		named[definition.Name] = index
	}

	v := validator{named: named}
	if manifest.isRef() {
		if manifest.Definition.hasBody() {
			issues = append(issues, "root: ref cannot be combined with other fields")
		}
		issues = append(issues, v.checkRef(manifest.Ref, "root")...)
	} else {
		issues = append(issues, v.definition(manifest.Definition, "root")...)
	}
	for index, definition := range manifest.Workflows {
		if definition.isRef() || definition.Name == "" {
			continue
		}
		issues = append(issues, v.definition(definition, fmt.Sprintf("workflows[%d] %q", index, definition.Name))...)
	}
	return issues
}

type validator struct {
	named map[string]int
}

func (v validator) checkRef(ref, prefix string) []string {
	if _, ok := v.named[ref]; !ok {
		return []string{fmt.Sprintf("%s: unknown ref %q", prefix, ref)}
	}
	return nil
}

func (v validator) definition(definition Definition, prefix string) []string {
	var issues []string
	if definition.Name == "" {
		issues = append(issues, fmt.Sprintf("%s: name is required", prefix))
	}

	argNames := make(map[string]bool, len(definition.Args))
	for index, arg := range definition.Args {
		switch {
		case strings.TrimSpace(arg.Name) == "":
			issues = append(issues, fmt.Sprintf("%s: args[%d]: name is required", prefix, index))
		case argNames[arg.Name]:
			issues = append(issues, fmt.Sprintf("%s: args[%d] %q: duplicate argument name", prefix, index, arg.Name))
		default:
			argNames[arg.Name] = true
		}
	}

	childNames := make(map[string]bool, len(definition.Subflows))
	for index, child := range definition.Subflows {
		childPrefix := fmt.Sprintf("%s: subflows[%d]", prefix, index)

		name := child.Name
		if child.isRef() {
			if child.hasBody() {
				issues = append(issues, fmt.Sprintf("%s: ref cannot be combined with other fields", childPrefix))
			}
			if refIssues := v.checkRef(child.Ref, childPrefix); refIssues != nil {
				issues = append(issues, refIssues...)
				continue
			}
			name = child.Ref
		} else {
			issues = append(issues, v.definition(child, fmt.Sprintf("%s %q", childPrefix, child.Name))...)
		}

		if name == "" {
			continue
		}
		if childNames[name] {
			issues = append(issues, fmt.Sprintf("%s: duplicate subflow name %q", childPrefix, name))
		}
		childNames[name] = true
	}
	return issues
}
