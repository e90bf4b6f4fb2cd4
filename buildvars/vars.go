// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

import "runtime/debug"

// Version is set at link time via
// `-ldflags -X github.com/toeirei/gitswitch/buildvars.Version=...`.
// It is empty for local builds.
var Version string

// VersionOrDefault returns Version if set, then the module version recorded
// by `go install`, and def otherwise.
func VersionOrDefault(def string) string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return def
}
