// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/flow/lib/flow"
	"github.com/bureau-foundation/flow/lib/version"
)

// rootWorkflow builds the flow command tree.
func rootWorkflow(a *app) *flow.Workflow {
	return flow.Define(&flow.Workflow{
		Name:    "flow",
		Version: version.Short(),
		Description: "Run, check and document workflow trees declared in YAML or " +
			"JSONC manifests.",
		Args: flow.MustArgs(globalParams{}),
		Subflows: []flow.Child{
			flow.Sub(runWorkflow(a)),
			flow.Sub(checkWorkflow(a)),
			flow.Sub(docWorkflow(a)),
			flow.Sub(inspectWorkflow(a)),
			flow.Sub(fingerprintWorkflow(a)),
			flow.Sub(versionWorkflow()),
		},
		Examples: []flow.Example{
			{Command: "flow run ops.yaml deploy --target=prod", Description: "Run a workflow from a manifest"},
			{Command: "flow check ops.yaml", Description: "Build a manifest and load every workflow"},
			{Command: "flow doc ops.yaml --format=cbor --compression=zstd -o ops.flwd", Description: "Write a compressed snapshot"},
		},
		Notes: `Manifests are YAML (*.yaml*, *.yml*) or JSONC (*.json*, *.jsonc*).
A manifest declares a root workflow plus named workflows under
` + "`workflows`" + `; any subflow entry may be ` + "`{ref: name}`" + `, and
references may be mutual or recursive.

Handlers are named by ` + "`handler`" + ` and come from the built-in registry:

- ` + "`echo`" + ` prints its positional arguments, or its ` + "`text`" + ` param
  with ` + "`${name}`" + ` replaced by argument values
- ` + "`json`" + ` prints the invocation path and bound arguments as JSON
- ` + "`env`" + ` prints environment variables`,
	})
}

type versionParams struct {
	globalParams
	JSON bool `flag:"json" desc:"print build information as JSON"`
}

func versionWorkflow() *flow.Workflow {
	return &flow.Workflow{
		Name:        "version",
		Description: "Print build information.",
		Args:        flow.MustArgs(versionParams{}),
		Handler: flow.Typed(func(_ context.Context, params versionParams, ec *flow.Context) error {
			if params.JSON {
				encoder := json.NewEncoder(ec.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(version.Current())
			}
			_, err := fmt.Fprintf(ec.Stdout, "flow %s\n", version.Full())
			return err
		}),
	}
}
