// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/flow/lib/flow"
	"github.com/bureau-foundation/flow/lib/flowdef"
)

type checkParams struct {
	globalParams
	Manifests []string `positional:"true"`
}

func checkWorkflow(a *app) *flow.Workflow {
	return &flow.Workflow{
		Name: "check",
		Description: "Build each manifest and load every workflow it references. " +
			"Prints one line per valid manifest and the issues of each invalid one.",
		Args:    flow.MustArgs(checkParams{}),
		Handler: flow.Typed(a.checkManifests),
		Examples: []flow.Example{
			{Command: "flow check ops.yaml tools/*.jsonc"},
		},
	}
}

func (a *app) checkManifests(ctx context.Context, params checkParams, ec *flow.Context) error {
	if len(params.Manifests) == 0 {
		return fmt.Errorf("usage: flow check <manifest>...")
	}

	failed := 0
	for _, path := range params.Manifests {
		node, err := a.describeManifest(ctx, path)
		if err != nil {
			failed++
			var manifestErr *flowdef.ManifestError
			if errors.As(err, &manifestErr) {
				for _, issue := range manifestErr.Issues {
					fmt.Fprintf(ec.Stderr, "  - %s\n", issue)
				}
				fmt.Fprintf(ec.Stderr, "%s: %d validation issue(s) found\n", path, len(manifestErr.Issues))
				continue
			}
			fmt.Fprintf(ec.Stderr, "%v\n", err)
			continue
		}
		fmt.Fprintf(ec.Stdout, "%s: valid (%d workflows)\n", path, node.Count())
	}

	if failed > 0 {
		return &flow.ExitError{Code: 1}
	}
	return nil
}
