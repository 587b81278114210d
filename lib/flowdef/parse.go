// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Syntax is the surface syntax of a manifest file.
type Syntax string

const (
	SyntaxYAML  Syntax = "yaml"
	SyntaxJSONC Syntax = "jsonc"
)

// SyntaxFromPath picks the syntax from a file extension: .yaml and .yml
// are YAML; .json and .jsonc are JSONC.
func SyntaxFromPath(path string) (Syntax, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SyntaxYAML, nil
	case ".json", ".jsonc":
		return SyntaxJSONC, nil
	default:
		return "", fmt.Errorf("%s: unknown manifest extension (want .yaml, .yml, .json or .jsonc)", path)
	}
}

// Parse decodes a manifest. Unknown keys are rejected so that a
// misspelled field ("subflow:", "require:") fails loudly instead of
// being ignored.
func Parse(data []byte, syntax Syntax) (*Manifest, error) {
	var manifest Manifest
	switch syntax {
	case SyntaxYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&manifest); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parsing manifest: empty document")
			}
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}

	case SyntaxJSONC:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&manifest); err != nil {
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}

	default:
		return nil, fmt.Errorf("unknown manifest syntax %q", syntax)
	}
	return &manifest, nil
}

// Load reads and parses a manifest file, choosing the syntax from its
// extension.
func Load(path string) (*Manifest, error) {
	syntax, err := SyntaxFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	manifest, err := Parse(data, syntax)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return manifest, nil
}
