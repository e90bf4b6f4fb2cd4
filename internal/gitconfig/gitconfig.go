// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// Package gitconfig reads and writes the global git identity (user.name and
// user.email). The process-wide scope is the only one gitswitch touches.
package gitconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	KeyName  = "user.name"
	KeyEmail = "user.email"
)

// Identity is get/set/unset over single-valued global git config keys.
// Unset on an absent key is not an error.
type Identity interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Unset(ctx context.Context, key string) error
}

// Exit codes documented by git-config(1).
const (
	exitKeyMissing   = 1
	exitUnsetMissing = 5
)

// CLI drives `git config --global` through the git binary.
type CLI struct {
	// Binary defaults to "git" when empty.
	Binary string
	// Env, when non-nil, replaces the child environment.
	Env []string
}

// NewCLI returns a CLI using binary.
func NewCLI(binary string) *CLI {
	return &CLI{Binary: binary}
}

func (c *CLI) run(ctx context.Context, args ...string) (string, int, error) {
	bin := c.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, append([]string{"config", "--global"}, args...)...)
	if c.Env != nil {
		cmd.Env = c.Env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), exitErr.ExitCode(), fmt.Errorf("git config %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
		}
		return "", -1, fmt.Errorf("git config %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), 0, nil
}

// Get returns the value of key; ok is false when the key is not set.
func (c *CLI) Get(ctx context.Context, key string) (string, bool, error) {
	out, code, err := c.run(ctx, "--get", key)
	if err != nil {
		if code == exitKeyMissing {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimRight(out, "\r\n"), true, nil
}

// Set writes key globally.
func (c *CLI) Set(ctx context.Context, key, value string) error {
	_, _, err := c.run(ctx, key, value)
	return err
}

// Unset removes key globally; an absent key is a no-op.
func (c *CLI) Unset(ctx context.Context, key string) error {
	_, code, err := c.run(ctx, "--unset", key)
	if err != nil && code == exitUnsetMissing {
		return nil
	}
	return err
}
