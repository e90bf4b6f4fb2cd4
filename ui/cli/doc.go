// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the gitswitch command line using Cobra. It resolves
// configuration, wires the profile store, key generator and credential mirror
// into a core.Switcher and keeps every command a thin wrapper around it.
package cli
