// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by every package
// that writes workflow documents in binary form.
//
// Workflow trees are exported as JSON and YAML for people and as CBOR
// for tools: snapshots, caches keyed by tree fingerprint, and any
// process that ships a tree description over a pipe. Fingerprints are
// computed over the CBOR bytes, so the encoder must be deterministic.
// It uses Core Deterministic Encoding (RFC 8949 §4.2): map keys are
// sorted, integers and floats take their shortest form, and nothing is
// indefinite-length. Encoding the same tree twice yields the same
// bytes.
//
// Document types carry `json` and `yaml` tags and no `cbor` tags.
// fxamacker/cbor falls back to `json` tags when `cbor` tags are
// absent, so CBOR field names always match the JSON output.
//
//	data, err := codec.Marshal(document)
//	err = codec.Unmarshal(data, &document)
package codec
