// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"os"

	"github.com/bureau-foundation/flow/lib/flow"
	"github.com/bureau-foundation/flow/lib/flowdoc"
)

type docParams struct {
	globalParams
	Format      string   `flag:"format,f"    desc:"output format: json, yaml or cbor (default from config)"`
	Output      string   `flag:"output,o"    desc:"output file, - for stdout (default from config)"`
	Compression string   `flag:"compression" desc:"snapshot compression for cbor: none, lz4 or zstd"`
	Args        []string `positional:"true"`
}

func docWorkflow(a *app) *flow.Workflow {
	return &flow.Workflow{
		Name:        "doc",
		Description: "Export a manifest's tree as a structured document.",
		Args:        flow.MustArgs(docParams{}),
		Handler:     flow.Typed(a.exportDoc),
		Examples: []flow.Example{
			{Command: "flow doc ops.yaml", Description: "Print the tree as JSON"},
			{Command: "flow doc ops.yaml -f cbor --compression=lz4 -o ops.flwd", Description: "Write a snapshot"},
		},
		Notes: `The JSON and YAML documents list every workflow once; a workflow
reached again (through a mutual or recursive reference) appears as a
node whose *ref* names the path where it was first described.

The cbor format writes a snapshot: a small header recording the
compression, then the CBOR document. *flow inspect* reads it back.`,
	}
}

func (a *app) exportDoc(ctx context.Context, params docParams, ec *flow.Context) error {
	path, err := manifestPath(params.Args, "flow doc <manifest> [--format=json|yaml|cbor]")
	if err != nil {
		return err
	}

	format, err := flowdoc.ParseFormat(cmp.Or(params.Format, a.config.Doc.Format))
	if err != nil {
		return err
	}
	compression, err := flowdoc.ParseCompression(cmp.Or(params.Compression, a.config.Doc.Compression))
	if err != nil {
		return err
	}
	if params.Compression != "" && format != flowdoc.FormatCBOR {
		return fmt.Errorf("--compression applies only to --format=cbor")
	}

	node, err := a.describeManifest(ctx, path)
	if err != nil {
		return err
	}

	var buffer bytes.Buffer
	if format == flowdoc.FormatCBOR {
		used, err := flowdoc.WriteSnapshot(&buffer, node, compression)
		if err != nil {
			return err
		}
		if used != compression {
			ec.Logger.Debug("snapshot stored uncompressed", "requested", compression.String())
		}
	} else if err := flowdoc.Encode(&buffer, node, format); err != nil {
		return err
	}

	output := cmp.Or(params.Output, a.config.Doc.Output)
	if output == "" || output == "-" {
		if format == flowdoc.FormatCBOR && isTerminal(ec.Stdout) {
			return fmt.Errorf("refusing to write a binary snapshot to a terminal; use --output")
		}
		_, err := ec.Stdout.Write(buffer.Bytes())
		return err
	}

	if err := os.WriteFile(output, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	ec.Logger.Info("documentation written",
		"path", output,
		"format", string(format),
		"bytes", buffer.Len(),
		"workflows", node.Count(),
	)
	return nil
}
