// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package flow is a nested command-tree execution engine.
//
// A program declares a tree of [Workflow] values. Each workflow has a
// name, a version, an ordered list of [Arg] descriptors, an optional
// [Handler], and an ordered list of children ("subflows"). Children are
// declared either directly with [Sub] or through a loader with [Lazy],
// which lets two packages expose each other as subcommands without an
// import cycle.
//
// [Workflow.Run] resolves a command line against the tree:
//
//  1. A routing pass ([ParseRouting]) splits argv into positional
//     tokens and an untyped key/value map. --version and --help are
//     answered here.
//  2. The path walker ([Walk]) consumes positional tokens greedily,
//     left to right, descending into the child each token names. The
//     first token that names no child ends the walk; it and every
//     later token become the leaf's positional arguments.
//  3. A typed pass ([ParseTyped]) re-parses the unconsumed tokens and
//     every routing key against the leaf's descriptors with a
//     [pflag.FlagSet], coercing booleans and numbers.
//  4. Required descriptors are checked, an execution [Context] bound to
//     the leaf's own children is built, and the leaf's handler runs.
//
// The greedy walk never backtracks: a workflow cannot receive, as data
// at a given position, a token that is also the name of one of its
// subflows.
//
// Help output ([RenderHelp]) is safe on trees that are not acyclic.
// --help=all recurses into every subflow and tracks visited workflows
// by identity, printing a "(see above)" stub for a workflow it has
// already rendered.
//
// [Workflow.Execute] calls a handler directly with pre-typed values,
// bypassing parsing and validation, for programmatic composition.
package flow
