// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdoc

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/flow/lib/codec"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// String returns the hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash parses a 64-character hex string.
func ParseHash(text string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return hash, fmt.Errorf("parsing fingerprint: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("fingerprint is %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// fingerprintKey is the BLAKE3 key for fingerprints: the ASCII
// domain name zero-padded to 32 bytes. Changing it changes every
// fingerprint.
var fingerprintKey = [32]byte{
	'f', 'l', 'o', 'w', '.', 's', 'u', 'r', 'f', 'a', 'c', 'e', '.', 'v', '1',
}

// surface is the part of a node that determines what command lines
// the tree accepts.
type surface struct {
	Name     string       `json:"name"`
	Ref      []string     `json:"ref,omitempty"`
	Runnable bool         `json:"runnable"`
	Args     []surfaceArg `json:"args,omitempty"`
	Subflows []surface    `json:"subflows,omitempty"`
}

type surfaceArg struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Alias    string `json:"alias,omitempty"`
	Default  any    `json:"default,omitempty"`
	Required bool   `json:"required"`
}

func surfaceOf(node *Node) surface {
	result := surface{Name: node.Name, Ref: node.Ref, Runnable: node.Runnable}
	for _, arg := range node.Args {
		result.Args = append(result.Args, surfaceArg{
			Name:     arg.Name,
			Kind:     arg.Kind.String(),
			Alias:    arg.Alias,
			Default:  arg.Default,
			Required: arg.Required,
		})
	}
	for _, child := range node.Subflows {
		result.Subflows = append(result.Subflows, surfaceOf(child))
	}
	return result
}

// Fingerprint hashes the command surface of the document: names,
// arguments (kind, alias, default, required), runnability and subflow
// structure. Descriptions, versions, examples and notes are excluded.
func Fingerprint(node *Node) (Hash, error) {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		// Only a wrong key length fails, and the key is fixed-size.
		panic("flowdoc: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	if err := codec.NewEncoder(hasher).Encode(surfaceOf(node)); err != nil {
		return Hash{}, fmt.Errorf("encoding command surface: %w", err)
	}
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash, nil
}
