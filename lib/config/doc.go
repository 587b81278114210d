// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the flow
// tool.
//
// Configuration is loaded from a single file specified by either a
// --config flag or the FLOW_CONFIG environment variable (via
// [Resolve]). There is no ~/.config discovery and no automatic file
// search; with neither set, [Default] applies. Unknown keys in the
// file are errors, so a misspelled setting fails loudly instead of
// being ignored.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No environment
// variable overrides a config value.
//
// Key exports:
//
//   - [Config] -- master struct with Log, Help and Doc sections
//   - [Default] -- the configuration used without a file
//   - [Resolve], [Load] and [LoadFile] -- the entry points for loading
//
// This package depends on no other flow packages.
package config
