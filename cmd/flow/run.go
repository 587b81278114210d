// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/flow/lib/flow"
)

type runParams struct {
	globalParams
	Args []string `positional:"true"`
}

func runWorkflow(a *app) *flow.Workflow {
	return &flow.Workflow{
		Name:        "run",
		Description: "Build a manifest and invoke its tree with the remaining arguments.",
		Args:        flow.MustArgs(runParams{}),
		Handler:     flow.Typed(a.runManifest),
		Examples: []flow.Example{
			{Command: "flow run ops.yaml deploy --target=prod"},
			{Command: "flow run ops.yaml -- deploy --help", Description: "Show the manifest's own help"},
		},
		Notes: `Everything after the manifest path is passed to the manifest's
tree, and its exit code becomes flow's. *--help* and *--version* are
answered by flow itself; put them after *--* to reach the manifest.`,
	}
}

func (a *app) runManifest(ctx context.Context, params runParams, ec *flow.Context) error {
	if len(params.Args) == 0 {
		return fmt.Errorf("usage: flow run <manifest> [args...]")
	}
	path := params.Args[0]

	root, err := a.buildManifest(path)
	if err != nil {
		return err
	}

	forwarded := flow.ParseRouting(ec.Raw).Tail(0)
	if len(forwarded) > 0 && forwarded[0] == "--" {
		forwarded = forwarded[1:]
	}
	ec.Logger.Debug("running manifest", "path", path, "args", forwarded)

	if code := root.Run(ctx, forwarded, a.manifestOptions(ec)...); code != 0 {
		return &flow.ExitError{Code: code}
	}
	return nil
}
