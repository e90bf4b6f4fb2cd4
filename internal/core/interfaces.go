// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core coordinates the profile store, the key generator and the
// credential mirror. The interfaces here describe the side-effect boundaries
// the Switcher depends on; production wiring uses db.BunStore, keygen and
// mirror.Mirror.
package core

import (
	"context"

	"github.com/toeirei/gitswitch/internal/model"
)

// ProfileStore is the durable profile table.
type ProfileStore interface {
	CreateProfile(ctx context.Context, name, email string, kp model.KeyPair) (model.Profile, error)
	DeleteProfile(ctx context.Context, email string) (model.Profile, error)
	DeleteAllProfiles(ctx context.Context) (int, error)
	ActivateProfile(ctx context.Context, email string) (model.Profile, error)
	GetProfile(ctx context.Context, email string) (model.Profile, error)
	ActiveProfile(ctx context.Context) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	ListInactive(ctx context.Context) ([]model.Profile, error)
	GetKeyPair(ctx context.Context, email string) (model.KeyPair, error)
}

// AuditWriter is the minimal contract for emitting audit events.
type AuditWriter interface {
	LogAction(ctx context.Context, action, details string) error
}

// Store is everything the Switcher needs from persistence.
type Store interface {
	ProfileStore
	AuditWriter
	AuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
	Export(ctx context.Context) (*model.BackupData, error)
	Import(ctx context.Context, backup *model.BackupData) error
}

// CredentialMirror is the single owner of the external git identity and the
// resident SSH key files.
type CredentialMirror interface {
	Apply(ctx context.Context, name, email string, kp model.KeyPair) error
	Clear(ctx context.Context) error
	Snapshot(ctx context.Context) (model.MirroredState, error)
}

// KeyGenerator creates key material for a new profile.
type KeyGenerator interface {
	Generate(ctx context.Context, email string) (model.KeyPair, error)
}
