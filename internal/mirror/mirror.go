// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// Package mirror pushes a profile's identity and key material into the
// external stores (global git identity, resident SSH key files) and clears
// them again. It is the only code that writes to those stores.
//
// Neither store is transactional. Every sub-step is attempted even if an
// earlier one failed; failures are logged and returned joined under
// ErrMirrorWriteFailed so callers can report partial writes.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/toeirei/gitswitch/internal/gitconfig"
	"github.com/toeirei/gitswitch/internal/logging"
	"github.com/toeirei/gitswitch/internal/model"
)

// ErrMirrorWriteFailed marks a partial apply or clear.
var ErrMirrorWriteFailed = errors.New("mirror write failed")

// File modes for the resident keypair.
const (
	privateKeyMode = 0o600
	publicKeyMode  = 0o644
	sshDirMode     = 0o700
)

// Mirror owns the external state.
type Mirror struct {
	fs    afero.Fs
	paths model.KeyPaths
	git   gitconfig.Identity
}

// New returns a Mirror writing key files through fs at paths and the git
// identity through git.
func New(fs afero.Fs, paths model.KeyPaths, git gitconfig.Identity) *Mirror {
	return &Mirror{fs: fs, paths: paths, git: git}
}

// Paths returns the resident key file locations.
func (m *Mirror) Paths() model.KeyPaths { return m.paths }

// Apply makes the external stores reflect exactly the given identity and
// keypair, overwriting whatever was there. Applying the same input twice
// leaves the same state as applying it once.
func (m *Mirror) Apply(ctx context.Context, name, email string, kp model.KeyPair) error {
	var errs []error
	record := func(step string, err error) {
		if err != nil {
			logging.Warnf("mirror: %s failed: %v", step, err)
			errs = append(errs, fmt.Errorf("%s: %w", step, err))
		}
	}

	record("set "+gitconfig.KeyName, m.git.Set(ctx, gitconfig.KeyName, name))
	record("set "+gitconfig.KeyEmail, m.git.Set(ctx, gitconfig.KeyEmail, email))

	if err := m.fs.MkdirAll(m.paths.Dir(), sshDirMode); err != nil {
		record("create "+m.paths.Dir(), err)
	}
	record("remove "+m.paths.Private, m.removeIfPresent(m.paths.Private))
	record("remove "+m.paths.Public, m.removeIfPresent(m.paths.Public))
	record("write "+m.paths.Private, afero.WriteFile(m.fs, m.paths.Private, kp.PrivateKey, privateKeyMode))
	record("write "+m.paths.Public, afero.WriteFile(m.fs, m.paths.Public, kp.PublicKey, publicKeyMode))

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrMirrorWriteFailed, errors.Join(errs...))
	}
	logging.Debugf("mirror: applied %s <%s>", name, email)
	return nil
}

// Clear unsets the global git identity and deletes the resident key files.
// Absent fields and files are not errors.
func (m *Mirror) Clear(ctx context.Context) error {
	var errs []error
	record := func(step string, err error) {
		if err != nil {
			logging.Warnf("mirror: %s failed: %v", step, err)
			errs = append(errs, fmt.Errorf("%s: %w", step, err))
		}
	}

	record("unset "+gitconfig.KeyName, m.git.Unset(ctx, gitconfig.KeyName))
	record("unset "+gitconfig.KeyEmail, m.git.Unset(ctx, gitconfig.KeyEmail))
	record("remove "+m.paths.Private, m.removeIfPresent(m.paths.Private))
	record("remove "+m.paths.Public, m.removeIfPresent(m.paths.Public))

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrMirrorWriteFailed, errors.Join(errs...))
	}
	logging.Debugf("mirror: cleared")
	return nil
}

// Snapshot reads the current external state without changing it.
func (m *Mirror) Snapshot(ctx context.Context) (model.MirroredState, error) {
	var st model.MirroredState
	var err error

	if st.Name, st.NameSet, err = m.git.Get(ctx, gitconfig.KeyName); err != nil {
		return st, fmt.Errorf("read %s: %w", gitconfig.KeyName, err)
	}
	if st.Email, st.EmailSet, err = m.git.Get(ctx, gitconfig.KeyEmail); err != nil {
		return st, fmt.Errorf("read %s: %w", gitconfig.KeyEmail, err)
	}
	if st.PrivateKey, st.PrivatePresent, err = m.readIfPresent(m.paths.Private); err != nil {
		return st, err
	}
	if st.PublicKey, st.PublicPresent, err = m.readIfPresent(m.paths.Public); err != nil {
		return st, err
	}
	return st, nil
}

func (m *Mirror) removeIfPresent(path string) error {
	err := m.fs.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (m *Mirror) readIfPresent(path string) ([]byte, bool, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}
