// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/flow/lib/flow"
	"github.com/bureau-foundation/flow/lib/flowdoc"
)

type fingerprintParams struct {
	globalParams
	Expect string   `flag:"expect" desc:"exit 1 unless the fingerprint equals this hex digest"`
	Args   []string `positional:"true"`
}

func fingerprintWorkflow(a *app) *flow.Workflow {
	return &flow.Workflow{
		Name: "fingerprint",
		Description: "Print the BLAKE3 fingerprint of a manifest's command surface: " +
			"names, arguments and structure, but not descriptions or notes.",
		Args:    flow.MustArgs(fingerprintParams{}),
		Handler: flow.Typed(a.fingerprintManifest),
		Examples: []flow.Example{
			{Command: "flow fingerprint ops.yaml"},
			{Command: "flow fingerprint ops.yaml --expect=$(cat ops.fingerprint)", Description: "Fail in CI when the command line changed"},
		},
	}
}

func (a *app) fingerprintManifest(ctx context.Context, params fingerprintParams, ec *flow.Context) error {
	path, err := manifestPath(params.Args, "flow fingerprint <manifest>")
	if err != nil {
		return err
	}

	var expected flowdoc.Hash
	if params.Expect != "" {
		if expected, err = flowdoc.ParseHash(params.Expect); err != nil {
			return fmt.Errorf("--expect: %w", err)
		}
	}

	node, err := a.describeManifest(ctx, path)
	if err != nil {
		return err
	}
	hash, err := flowdoc.Fingerprint(node)
	if err != nil {
		return err
	}

	if params.Expect != "" && hash != expected {
		fmt.Fprintf(ec.Stderr, "%s: fingerprint %s, expected %s\n", path, hash, expected)
		return &flow.ExitError{Code: 1}
	}
	_, err = fmt.Fprintln(ec.Stdout, hash)
	return err
}
