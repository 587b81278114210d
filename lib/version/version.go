// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Release builds stamp the flow binary through -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/flow/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/flow

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags -X. Unset values fall back to the VCS stamps the
// Go toolchain embeds (go install, go build inside a checkout).
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty is "true" when the tree had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the release version of flow.
	Version = "0.1.0-dev"
)

// shortCommit is the length of a commit SHA taken from build info.
const shortCommit = 7

// Build describes the running flow binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildTime string `json:"build_time"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
}

// Current returns the build information of the running binary.
func Current() Build {
	return current(debug.ReadBuildInfo)
}

func current(readBuildInfo func() (*debug.BuildInfo, bool)) Build {
	build := Build{
		Version:   Version,
		Commit:    GitCommit,
		Dirty:     GitDirty == "true",
		BuildTime: BuildTime,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if GitCommit != "unknown" {
		return build
	}

	info, ok := readBuildInfo()
	if !ok {
		return build
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			build.Commit = setting.Value
			if len(build.Commit) > shortCommit {
				build.Commit = build.Commit[:shortCommit]
			}
		case "vcs.modified":
			build.Dirty = setting.Value == "true"
		case "vcs.time":
			if BuildTime == "unknown" {
				build.BuildTime = setting.Value
			}
		}
	}
	return build
}

// String formats b as "0.1.0 (abc1234-dirty, 2026-10-01T00:00:00Z)".
func (b Build) String() string {
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", b.Version, b.Commit, dirty, b.BuildTime)
}

// Info returns [Current] as a single line.
func Info() string {
	return Current().String()
}

// Full is what flow version prints: [Info] plus the Go toolchain and
// platform.
func Full() string {
	build := Current()
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s", build, build.Go, build.Platform)
}

// Short returns just the version. The flow root workflow reports it
// for --version.
func Short() string {
	return Version
}
