// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keygen produces the SSH keypair for a new profile. Generators write
// the keypair to the fixed key paths and return the bytes read back from them.
package keygen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/afero"
	"github.com/toeirei/gitswitch/internal/logging"
	"github.com/toeirei/gitswitch/internal/model"
)

// ErrKeyGenFailed wraps every failure to produce or read back key material.
var ErrKeyGenFailed = errors.New("key generation failed")

// Generator creates a fresh, passphrase-less keypair bound to email.
type Generator interface {
	Generate(ctx context.Context, email string) (model.KeyPair, error)
}

// Modes accepted by New.
const (
	ModeAuto      = "auto"
	ModeSSHKeygen = "ssh-keygen"
	ModeNative    = "native"
)

// lookPath is swapped by tests.
var lookPath = exec.LookPath

// New returns the generator for mode. "auto" prefers ssh-keygen when it is on
// PATH and falls back to the native generator.
func New(mode string, fs afero.Fs, paths model.KeyPaths) (Generator, error) {
	switch mode {
	case ModeSSHKeygen:
		return &SSHKeygen{Fs: fs, Paths: paths}, nil
	case ModeNative:
		return &Native{Fs: fs, Paths: paths}, nil
	case ModeAuto, "":
		if _, err := lookPath("ssh-keygen"); err == nil {
			return &SSHKeygen{Fs: fs, Paths: paths}, nil
		}
		logging.Debugf("ssh-keygen not found, using native key generation")
		return &Native{Fs: fs, Paths: paths}, nil
	default:
		return nil, fmt.Errorf("unknown keygen mode %q", mode)
	}
}

// removeStale deletes whatever is at the key paths so a half-finished
// generation cannot leave the previous profile's material behind.
func removeStale(fs afero.Fs, paths model.KeyPaths) error {
	var errs []error
	for _, p := range []string{paths.Private, paths.Public} {
		if err := fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func readBack(fs afero.Fs, paths model.KeyPaths, email string) (model.KeyPair, error) {
	priv, err := afero.ReadFile(fs, paths.Private)
	if err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: read private key: %w", ErrKeyGenFailed, err)
	}
	pub, err := afero.ReadFile(fs, paths.Public)
	if err != nil {
		return model.KeyPair{}, fmt.Errorf("%w: read public key: %w", ErrKeyGenFailed, err)
	}
	kp := model.KeyPair{Email: email, PrivateKey: priv, PublicKey: pub}
	if kp.Empty() {
		return model.KeyPair{}, fmt.Errorf("%w: key files at %s are empty", ErrKeyGenFailed, paths.Private)
	}
	return kp, nil
}
