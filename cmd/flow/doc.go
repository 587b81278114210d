// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Flow runs, checks and documents workflow trees declared in YAML or
// JSONC manifests.
//
// The binary is itself a workflow tree built with lib/flow:
//
//   - flow run <manifest> [args...] builds the manifest against the
//     built-in handler registry (echo, json, env) and invokes it
//   - flow check <manifest>... builds every manifest and loads every
//     referenced workflow
//   - flow doc <manifest> exports the tree as JSON, YAML or a CBOR
//     snapshot
//   - flow inspect <snapshot> prints a snapshot as JSON or YAML
//   - flow fingerprint <manifest> prints the BLAKE3 fingerprint of the
//     tree's command surface
//   - flow version prints build information
//
// Configuration comes from the file named by --config or FLOW_CONFIG
// (see lib/config). --config and --log-level are read before dispatch,
// so they may appear anywhere on the command line.
package main
