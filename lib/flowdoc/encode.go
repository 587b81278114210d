// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdoc

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/flow/lib/codec"
	"github.com/bureau-foundation/flow/lib/flow"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ParseFormat parses "json", "yaml" (or "yml") and "cbor".
func ParseFormat(name string) (Format, error) {
	switch name {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("unknown document format %q (want json, yaml or cbor)", name)
	}
}

// Encode writes node to w. JSON is indented two spaces; CBOR uses the
// deterministic encoding from lib/codec.
func Encode(w io.Writer, node *Node, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(node)

	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(node); err != nil {
			return err
		}
		return encoder.Close()

	case FormatCBOR:
		return codec.NewEncoder(w).Encode(node)

	default:
		return fmt.Errorf("unknown document format %q", format)
	}
}

// Decode reads one document from r. Unknown JSON and YAML keys are
// errors, so a manifest is not mistaken for a document. Numbers in
// argument defaults come back as float64 for every format.
func Decode(r io.Reader, format Format) (*Node, error) {
	var node Node
	switch format {
	case FormatJSON:
		decoder := json.NewDecoder(r)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&node); err != nil {
			return nil, fmt.Errorf("decoding JSON document: %w", err)
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(&node); err != nil {
			return nil, fmt.Errorf("decoding YAML document: %w", err)
		}
	case FormatCBOR:
		if err := codec.NewDecoder(r).Decode(&node); err != nil {
			return nil, fmt.Errorf("decoding CBOR document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
	normalizeDefaults(&node)
	return &node, nil
}

// normalizeDefaults converts decoded numeric defaults to float64: YAML
// decodes whole numbers as int and CBOR as uint64 or int64.
func normalizeDefaults(node *Node) {
	for index := range node.Args {
		arg := &node.Args[index]
		if arg.Kind != flow.Number || arg.Default == nil {
			continue
		}
		switch typed := arg.Default.(type) {
		case int:
			arg.Default = float64(typed)
		case int64:
			arg.Default = float64(typed)
		case uint64:
			arg.Default = float64(typed)
		case float32:
			arg.Default = float64(typed)
		}
	}
	for _, child := range node.Subflows {
		normalizeDefaults(child)
	}
}
