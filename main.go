// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// Command gitswitch switches the global git identity and the default SSH
// key between stored profiles.
//
// Usage:
//
//	gitswitch            # interactive menu
//	gitswitch <command>  # see --help
//
// The version is set at build time:
//
//	go build -ldflags "-X github.com/toeirei/gitswitch/buildvars.Version=1.2.3"
package main

import (
	"os"

	"github.com/toeirei/gitswitch/internal/logging"
	"github.com/toeirei/gitswitch/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}
