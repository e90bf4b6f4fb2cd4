// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/toeirei/gitswitch/internal/db"
	"github.com/toeirei/gitswitch/internal/logging"
	"github.com/toeirei/gitswitch/internal/model"
)

var (
	// ErrDuplicateEmail is returned by AddProfile when the email is taken.
	ErrDuplicateEmail = db.ErrDuplicate
	// ErrNotFound is returned when no profile matches the email.
	ErrNotFound = db.ErrNotFound
	// ErrInvalidInput is returned for unusable names or emails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConfirmed is returned by RemoveAll without confirmation.
	ErrNotConfirmed = errors.New("operation not confirmed")
)

// Audit actions.
const (
	ActionAddProfile    = "ADD_PROFILE"
	ActionSwitchProfile = "SWITCH_PROFILE"
	ActionRemoveProfile = "REMOVE_PROFILE"
	ActionRemoveAll     = "REMOVE_ALL"
	ActionSync          = "SYNC"
	ActionRestore       = "RESTORE"
)

// AddResult describes a newly created, now active profile.
type AddResult struct {
	Profile   model.Profile
	PublicKey []byte
	// MirrorErr is set when the profile was stored but the external state
	// could not be fully written.
	MirrorErr error
}

// SwitchResult describes the outcome of SwitchTo / SwitchRandom.
type SwitchResult struct {
	// Profile is the now active profile; nil when NoOtherAccounts is set.
	Profile *model.Profile
	// NoOtherAccounts reports there was no inactive profile to switch to.
	// It is informational, not a failure.
	NoOtherAccounts bool
	// AlreadyActive means the target was active already and was re-mirrored.
	AlreadyActive bool
	MirrorErr     error
}

// RemoveResult describes the outcome of RemoveProfile.
type RemoveResult struct {
	Removed model.Profile
	// Promoted is the replacement chosen after removing the active profile.
	Promoted *model.Profile
	// NoOtherAccounts is set when the removed profile was active and nothing
	// was left to promote; the external state is then cleared.
	NoOtherAccounts bool
	MirrorErr       error
}

// RemoveAllResult describes the outcome of RemoveAll.
type RemoveAllResult struct {
	Removed   int
	MirrorErr error
}

// Switcher is the switch coordination protocol. It keeps the profile table,
// the resident key files and the global git identity in agreement. The
// profile table is the source of truth: mirror failures are logged and
// reported on the result, never rolled back into the store.
//
// Operations are serialized; no two of them interleave their sub-steps.
type Switcher struct {
	mu     sync.Mutex
	store  Store
	mirror CredentialMirror
	keys   KeyGenerator
	intn   func(n int) int
}

// Option configures a Switcher.
type Option func(*Switcher)

// WithRandom replaces the source used by SwitchRandom; intn must return a
// value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(s *Switcher) { s.intn = intn }
}

// NewSwitcher wires a Switcher.
func NewSwitcher(store Store, mirror CredentialMirror, keys KeyGenerator, opts ...Option) *Switcher {
	s := &Switcher{store: store, mirror: mirror, keys: keys, intn: rand.Intn}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddProfile generates a keypair for email, stores the new profile as the
// sole active one and mirrors it.
//
// If key generation fails nothing is stored. Generation clears the resident
// key files first, so the previously active profile is re-mirrored.
func (s *Switcher) AddProfile(ctx context.Context, name, email string) (AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidateProfileInput(name, email); err != nil {
		return AddResult{}, err
	}

	if _, err := s.store.GetProfile(ctx, email); err == nil {
		return AddResult{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
	} else if !errors.Is(err, ErrNotFound) {
		return AddResult{}, err
	}

	previous, err := s.store.ActiveProfile(ctx)
	if err != nil {
		return AddResult{}, err
	}

	kp, err := s.keys.Generate(ctx, email)
	if err != nil {
		logging.Errorf("key generation for %s failed: %v", email, err)
		s.restoreMirror(ctx, previous)
		return AddResult{}, err
	}

	p, err := s.store.CreateProfile(ctx, name, email, kp)
	if err != nil {
		s.restoreMirror(ctx, previous)
		if errors.Is(err, ErrDuplicateEmail) {
			return AddResult{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
		}
		return AddResult{}, fmt.Errorf("store profile: %w", err)
	}

	res := AddResult{Profile: p, PublicKey: kp.PublicKey}
	res.MirrorErr = s.mirror.Apply(ctx, p.Name, p.Email, kp)
	s.audit(ctx, ActionAddProfile, fmt.Sprintf("profile: %s", p))
	return res, nil
}

// SwitchTo activates the profile stored under email and mirrors it. An
// unknown email returns ErrNotFound and changes nothing. Switching to the
// profile that is already active re-mirrors it, repairing any divergence.
func (s *Switcher) SwitchTo(ctx context.Context, email string) (SwitchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.store.GetProfile(ctx, email)
	if err != nil {
		return SwitchResult{}, err
	}
	if target.Active {
		kp, err := s.store.GetKeyPair(ctx, email)
		if err != nil {
			return SwitchResult{}, err
		}
		mirrorErr := s.mirror.Apply(ctx, target.Name, target.Email, kp)
		s.audit(ctx, ActionSwitchProfile, fmt.Sprintf("profile: %s, reapplied", target))
		return SwitchResult{Profile: &target, AlreadyActive: true, MirrorErr: mirrorErr}, nil
	}
	return s.activateLocked(ctx, target)
}

// SwitchRandom activates a uniformly chosen inactive profile. With no
// inactive profiles it reports NoOtherAccounts and changes nothing.
func (s *Switcher) SwitchRandom(ctx context.Context) (SwitchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchRandomLocked(ctx)
}

func (s *Switcher) switchRandomLocked(ctx context.Context) (SwitchResult, error) {
	candidates, err := s.store.ListInactive(ctx)
	if err != nil {
		return SwitchResult{}, err
	}
	if len(candidates) == 0 {
		return SwitchResult{NoOtherAccounts: true}, nil
	}
	return s.activateLocked(ctx, candidates[s.intn(len(candidates))])
}

func (s *Switcher) activateLocked(ctx context.Context, target model.Profile) (SwitchResult, error) {
	// Read the keys first so a missing keypair aborts before the pointer moves.
	kp, err := s.store.GetKeyPair(ctx, target.Email)
	if err != nil {
		return SwitchResult{}, fmt.Errorf("load keypair for %s: %w", target.Email, err)
	}
	p, err := s.store.ActivateProfile(ctx, target.Email)
	if err != nil {
		return SwitchResult{}, err
	}
	res := SwitchResult{Profile: &p}
	res.MirrorErr = s.mirror.Apply(ctx, p.Name, p.Email, kp)
	s.audit(ctx, ActionSwitchProfile, fmt.Sprintf("profile: %s", p))
	return res, nil
}

// RemoveProfile deletes the profile and its keypair. Removing the active
// profile clears the external state and then promotes a random remaining
// profile; with none left the store has no active profile.
func (s *Switcher) RemoveProfile(ctx context.Context, email string) (RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.DeleteProfile(ctx, email)
	if err != nil {
		return RemoveResult{}, err
	}
	s.audit(ctx, ActionRemoveProfile, fmt.Sprintf("profile: %s, was_active: %t", removed, removed.Active))

	res := RemoveResult{Removed: removed}
	if !removed.Active {
		return res, nil
	}

	clearErr := s.mirror.Clear(ctx)
	sw, err := s.switchRandomLocked(ctx)
	if err != nil {
		// The removal itself is committed; report the failed promotion.
		return res, fmt.Errorf("promote replacement: %w", err)
	}
	res.Promoted = sw.Profile
	res.NoOtherAccounts = sw.NoOtherAccounts
	res.MirrorErr = errors.Join(clearErr, sw.MirrorErr)
	return res, nil
}

// RemoveAll deletes every profile and clears the external state. The caller
// must pass confirmed = true; otherwise ErrNotConfirmed is returned and
// nothing changes.
func (s *Switcher) RemoveAll(ctx context.Context, confirmed bool) (RemoveAllResult, error) {
	if !confirmed {
		return RemoveAllResult{}, ErrNotConfirmed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.DeleteAllProfiles(ctx)
	if err != nil {
		return RemoveAllResult{}, err
	}
	res := RemoveAllResult{Removed: n}
	res.MirrorErr = s.mirror.Clear(ctx)
	s.audit(ctx, ActionRemoveAll, fmt.Sprintf("removed: %d", n))
	return res, nil
}

// Profiles lists every profile with its active flag, in insertion order.
func (s *Switcher) Profiles(ctx context.Context) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ListProfiles(ctx)
}

// InactiveProfiles lists the profiles a switch can target.
func (s *Switcher) InactiveProfiles(ctx context.Context) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ListInactive(ctx)
}

// PublicKey returns the stored public key of the profile under email.
func (s *Switcher) PublicKey(ctx context.Context, email string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kp, err := s.store.GetKeyPair(ctx, email)
	if err != nil {
		return nil, err
	}
	return kp.PublicKey, nil
}

// History returns up to limit audit entries, most recent first.
func (s *Switcher) History(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AuditLog(ctx, limit)
}

// restoreMirror re-applies previous after a failed add, or clears the
// mirror when there was no active profile. Failures are logged only.
func (s *Switcher) restoreMirror(ctx context.Context, previous *model.Profile) {
	if previous == nil {
		if err := s.mirror.Clear(ctx); err != nil {
			logging.Warnf("could not clear external state: %v", err)
		}
		return
	}
	kp, err := s.store.GetKeyPair(ctx, previous.Email)
	if err != nil {
		logging.Warnf("could not reload keys of %s: %v", previous.Email, err)
		return
	}
	if err := s.mirror.Apply(ctx, previous.Name, previous.Email, kp); err != nil {
		logging.Warnf("could not restore %s: %v", previous.Email, err)
	}
}

func (s *Switcher) audit(ctx context.Context, action, details string) {
	if err := s.store.LogAction(ctx, action, details); err != nil {
		logging.Warnf("audit %s failed: %v", action, err)
	}
}
