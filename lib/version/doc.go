// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports what flow binary is running.
//
// Release builds inject [Version], [GitCommit], [GitDirty] and
// [BuildTime] with -ldflags -X. Builds without them (go install, a
// plain go build in a checkout) take the commit, dirty flag and commit
// time from the VCS stamps in runtime/debug build info instead, so a
// bug report from such a binary still names a revision.
//
// [Current] returns the whole [Build]; flow version prints it as text
// ([Full]) or as JSON. [Short] is the bare version behind
// flow --version.
package version
