// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/toeirei/gitswitch/internal/model"
)

// CurrentIdentity is the git identity currently configured, matched against
// the stored profiles.
type CurrentIdentity struct {
	Name     string
	Email    string
	EmailSet bool
	// Profile is the stored profile whose email matches the configured one.
	Profile   *model.Profile
	PublicKey []byte
}

// Current reads the configured git identity and looks up the profile it
// belongs to. A configured email that matches no profile is not an error;
// Profile is nil then.
func (s *Switcher) Current(ctx context.Context) (CurrentIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.mirror.Snapshot(ctx)
	if err != nil {
		return CurrentIdentity{}, err
	}
	cur := CurrentIdentity{Name: state.Name, Email: state.Email, EmailSet: state.EmailSet}
	if !state.EmailSet {
		return cur, nil
	}
	p, err := s.store.GetProfile(ctx, state.Email)
	if errors.Is(err, ErrNotFound) {
		return cur, nil
	}
	if err != nil {
		return cur, err
	}
	kp, err := s.store.GetKeyPair(ctx, p.Email)
	if err != nil {
		return cur, err
	}
	cur.Profile = &p
	cur.PublicKey = kp.PublicKey
	return cur, nil
}

// Status compares the active profile with what is resident in the external
// stores. Without an active profile the expectation is a cleared state.
func (s *Switcher) Status(ctx context.Context) (model.DriftReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.store.ActiveProfile(ctx)
	if err != nil {
		return model.DriftReport{}, err
	}
	state, err := s.mirror.Snapshot(ctx)
	if err != nil {
		return model.DriftReport{}, err
	}
	var kp model.KeyPair
	if active != nil {
		if kp, err = s.store.GetKeyPair(ctx, active.Email); err != nil {
			return model.DriftReport{}, err
		}
	}
	return compareMirror(active, kp, state), nil
}

func compareMirror(active *model.Profile, kp model.KeyPair, state model.MirroredState) model.DriftReport {
	r := model.DriftReport{Active: active, Mirrored: state, Classification: model.DriftNone}

	if active == nil {
		if state.NameSet {
			r.Diverged = append(r.Diverged, model.FieldName)
		}
		if state.EmailSet {
			r.Diverged = append(r.Diverged, model.FieldEmail)
		}
		if state.PrivatePresent {
			r.Diverged = append(r.Diverged, model.FieldPrivateKey)
		}
		if state.PublicPresent {
			r.Diverged = append(r.Diverged, model.FieldPublicKey)
		}
	} else {
		if !state.NameSet || state.Name != active.Name {
			r.Diverged = append(r.Diverged, model.FieldName)
		}
		if !state.EmailSet || state.Email != active.Email {
			r.Diverged = append(r.Diverged, model.FieldEmail)
		}
		if !state.PrivatePresent || !bytes.Equal(state.PrivateKey, kp.PrivateKey) {
			r.Diverged = append(r.Diverged, model.FieldPrivateKey)
		}
		if !state.PublicPresent || !bytes.Equal(state.PublicKey, kp.PublicKey) {
			r.Diverged = append(r.Diverged, model.FieldPublicKey)
		}
	}

	for _, f := range r.Diverged {
		switch f {
		case model.FieldPrivateKey, model.FieldPublicKey:
			r.Classification = model.DriftCritical
		default:
			if r.Classification == model.DriftNone {
				r.Classification = model.DriftWarning
			}
		}
	}
	return r
}

// Sync re-applies the active profile to the external stores, or clears them
// when no profile is active. Unlike the other operations a mirror failure is
// returned as the error, since repairing the mirror is the whole point.
func (s *Switcher) Sync(ctx context.Context) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.syncLocked(ctx)
	if err == nil {
		s.audit(ctx, ActionSync, fmt.Sprintf("active: %s", describe(p)))
	}
	return p, err
}

func (s *Switcher) syncLocked(ctx context.Context) (*model.Profile, error) {
	active, err := s.store.ActiveProfile(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, s.mirror.Clear(ctx)
	}
	kp, err := s.store.GetKeyPair(ctx, active.Email)
	if err != nil {
		return active, err
	}
	return active, s.mirror.Apply(ctx, active.Name, active.Email, kp)
}

// Backup dumps the whole store.
func (s *Switcher) Backup(ctx context.Context) (*model.BackupData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Export(ctx)
}

// RestoreResult describes the outcome of Restore.
type RestoreResult struct {
	Profiles int
	// Active is the restored active profile, nil when the backup had none.
	Active    *model.Profile
	MirrorErr error
}

// Restore replaces the store content with data and mirrors the restored
// active profile, or clears the mirror when the backup has none. An invalid
// backup is rejected before anything is replaced.
func (s *Switcher) Restore(ctx context.Context, data *model.BackupData) (RestoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Import(ctx, data); err != nil {
		return RestoreResult{}, fmt.Errorf("import backup: %w", err)
	}
	s.audit(ctx, ActionRestore, fmt.Sprintf("profiles: %d, active: %s", len(data.Profiles), data.Active))

	res := RestoreResult{Profiles: len(data.Profiles)}
	active, err := s.syncLocked(ctx)
	res.Active = active
	res.MirrorErr = err
	return res, nil
}

func describe(p *model.Profile) string {
	if p == nil {
		return "none"
	}
	return p.String()
}
