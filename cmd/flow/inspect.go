// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/flow/lib/codec"
	"github.com/bureau-foundation/flow/lib/flow"
	"github.com/bureau-foundation/flow/lib/flowdoc"
)

// diagFormat prints the CBOR diagnostic notation of a document.
const diagFormat = "diag"

type inspectParams struct {
	globalParams
	Format string   `flag:"format,f" desc:"output format: json, yaml, or diag for CBOR diagnostic notation" default:"json"`
	Args   []string `positional:"true"`
}

func inspectWorkflow(a *app) *flow.Workflow {
	return &flow.Workflow{
		Name: "inspect",
		Description: "Print a document written by flow doc as JSON, YAML or CBOR diagnostic notation. " +
			"Snapshots are recognized by their header; other documents by their .json, .yaml or .cbor extension.",
		Args:    flow.MustArgs(inspectParams{}),
		Handler: flow.Typed(a.inspectDocument),
		Examples: []flow.Example{
			{Command: "flow inspect ops.flwd --format=yaml"},
			{Command: "flow inspect ops.flwd --format=diag", Description: "Show the raw CBOR structure"},
			{Command: "flow inspect ops.json --format=yaml", Description: "Convert an exported document"},
		},
	}
}

func (a *app) inspectDocument(_ context.Context, params inspectParams, ec *flow.Context) error {
	path, err := manifestPath(params.Args, "flow inspect <document>")
	if err != nil {
		return err
	}
	diagnostic := params.Format == diagFormat
	var format flowdoc.Format
	if !diagnostic {
		format, err = flowdoc.ParseFormat(params.Format)
		if err != nil {
			return err
		}
		if format == flowdoc.FormatCBOR {
			return fmt.Errorf("inspect prints json, yaml or diag")
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if diagnostic {
		body, err := cborBody(path, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		notation, err := codec.Diagnose(body)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		_, err = fmt.Fprintln(ec.Stdout, notation)
		return err
	}

	node, err := readDocument(path, data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return flowdoc.Encode(ec.Stdout, node, format)
}

// readDocument decodes a snapshot, or a plain document in the format
// its extension names.
func readDocument(path string, data []byte) (*flowdoc.Node, error) {
	if flowdoc.IsSnapshot(data) {
		return flowdoc.ReadSnapshot(bytes.NewReader(data))
	}
	format, err := documentFormat(path)
	if err != nil {
		return nil, err
	}
	return flowdoc.Decode(bytes.NewReader(data), format)
}

// cborBody returns the CBOR of a snapshot or of a .cbor document.
func cborBody(path string, data []byte) ([]byte, error) {
	if flowdoc.IsSnapshot(data) {
		return flowdoc.ReadSnapshotBody(bytes.NewReader(data))
	}
	format, err := documentFormat(path)
	if err != nil {
		return nil, err
	}
	if format != flowdoc.FormatCBOR {
		return nil, fmt.Errorf("--format=diag needs a snapshot or a .cbor document")
	}
	return data, nil
}

func documentFormat(path string) (flowdoc.Format, error) {
	format, err := flowdoc.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return "", fmt.Errorf("not a snapshot, and the extension does not name a document format")
	}
	return format, nil
}
