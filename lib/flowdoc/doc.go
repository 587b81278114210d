// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package flowdoc exports a workflow tree as a document.
//
// [Describe] walks a tree from its root, running lazy loaders as it
// goes, and produces a [Node] per workflow. Trees may be cyclic (a
// workflow may list itself or an ancestor), so each workflow is
// described once: later occurrences become reference nodes whose Ref
// field holds the path of the full description.
//
// Documents are written as JSON, YAML or CBOR with [Encode], stored as
// compressed snapshots with [WriteSnapshot], and summarized by
// [Fingerprint], a keyed BLAKE3 hash of the tree's command surface
// that changes whenever a name, argument, kind, default, required flag
// or subflow changes, and not when descriptions or notes are edited.
package flowdoc
