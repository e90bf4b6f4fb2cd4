// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toeirei/gitswitch/internal/model"
	"github.com/uptrace/bun"
)

// BunStore is the durable profile table. Every mutating method runs in a
// single transaction, so a read issued after it returns sees the post-condition.
//
// The active profile is kept in active_profile rather than as a per-row flag;
// at most one profile can be active by construction.
type BunStore struct {
	db     *bun.DB
	dbType string
}

// Type returns the configured database engine name.
func (s *BunStore) Type() string { return s.dbType }

// Close releases the underlying connection pool.
func (s *BunStore) Close() error {
	return s.db.Close()
}

// CreateProfile inserts a profile and its keypair and makes it the sole active
// profile. It returns ErrDuplicate if the email is already stored.
func (s *BunStore) CreateProfile(ctx context.Context, name, email string, kp model.KeyPair) (model.Profile, error) {
	var created model.Profile
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*ProfileModel)(nil)).Where("email = ?", email).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicate
		}

		pm := &ProfileModel{Email: email, Name: name, CreatedAt: time.Now().UTC().Truncate(time.Second)}
		if _, err := tx.NewInsert().Model(pm).Exec(ctx); err != nil {
			return MapDBError(err)
		}
		if _, err := tx.NewInsert().Model(&KeyPairModel{Email: email, PrivateKey: kp.PrivateKey, PublicKey: kp.PublicKey}).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert keypair: %w", MapDBError(err))
		}
		if err := setActive(ctx, tx, email); err != nil {
			return err
		}
		created = profileModelToModel(*pm, email)
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}
	dbLogf("created profile %s", email)
	return created, nil
}

// DeleteProfile removes the profile and its keypair. The returned record
// carries Active as it was before deletion; if it was active the store is
// left without an active profile.
func (s *BunStore) DeleteProfile(ctx context.Context, email string) (model.Profile, error) {
	var deleted model.Profile
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		pm, err := getProfileModel(ctx, tx, email)
		if err != nil {
			return err
		}
		active, err := activeEmail(ctx, tx)
		if err != nil {
			return err
		}
		if active == email {
			if _, err := ExecRaw(ctx, tx, "DELETE FROM active_profile"); err != nil {
				return fmt.Errorf("failed to clear active profile: %w", err)
			}
		}
		if _, err := tx.NewDelete().Model((*KeyPairModel)(nil)).Where("email = ?", email).Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete keypair: %w", err)
		}
		if _, err := tx.NewDelete().Model((*ProfileModel)(nil)).Where("email = ?", email).Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		deleted = profileModelToModel(*pm, active)
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}
	dbLogf("deleted profile %s (was active: %t)", email, deleted.Active)
	return deleted, nil
}

// DeleteAllProfiles removes every profile and keypair and returns how many
// profiles were removed.
func (s *BunStore) DeleteAllProfiles(ctx context.Context) (int, error) {
	var n int
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		count, err := tx.NewSelect().Model((*ProfileModel)(nil)).Count(ctx)
		if err != nil {
			return err
		}
		for _, stmt := range []string{"DELETE FROM active_profile", "DELETE FROM keypairs", "DELETE FROM profiles"} {
			if _, err := ExecRaw(ctx, tx, stmt); err != nil {
				return fmt.Errorf("failed to wipe profiles: %w", err)
			}
		}
		n = count
		return nil
	})
	return n, err
}

// ActivateProfile makes email the sole active profile. It returns ErrNotFound
// without touching the active pointer when email is unknown.
func (s *BunStore) ActivateProfile(ctx context.Context, email string) (model.Profile, error) {
	var activated model.Profile
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		pm, err := getProfileModel(ctx, tx, email)
		if err != nil {
			return err
		}
		if err := setActive(ctx, tx, email); err != nil {
			return err
		}
		activated = profileModelToModel(*pm, email)
		return nil
	})
	return activated, err
}

// GetProfile returns the profile stored under email, or ErrNotFound.
func (s *BunStore) GetProfile(ctx context.Context, email string) (model.Profile, error) {
	pm, err := getProfileModel(ctx, s.db, email)
	if err != nil {
		return model.Profile{}, err
	}
	active, err := activeEmail(ctx, s.db)
	if err != nil {
		return model.Profile{}, err
	}
	return profileModelToModel(*pm, active), nil
}

// ActiveProfile returns the active profile, or nil when none is active.
func (s *BunStore) ActiveProfile(ctx context.Context) (*model.Profile, error) {
	active, err := activeEmail(ctx, s.db)
	if err != nil || active == "" {
		return nil, err
	}
	pm, err := getProfileModel(ctx, s.db, active)
	if err != nil {
		return nil, err
	}
	p := profileModelToModel(*pm, active)
	return &p, nil
}

// ListProfiles returns every profile in insertion order.
func (s *BunStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	return s.listProfiles(ctx, false)
}

// ListInactive returns every profile except the active one, in insertion order.
func (s *BunStore) ListInactive(ctx context.Context) ([]model.Profile, error) {
	return s.listProfiles(ctx, true)
}

func (s *BunStore) listProfiles(ctx context.Context, inactiveOnly bool) ([]model.Profile, error) {
	active, err := activeEmail(ctx, s.db)
	if err != nil {
		return nil, err
	}
	var pms []ProfileModel
	q := s.db.NewSelect().Model(&pms).Order("id")
	if inactiveOnly && active != "" {
		q = q.Where("email <> ?", active)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Profile, 0, len(pms))
	for _, pm := range pms {
		out = append(out, profileModelToModel(pm, active))
	}
	return out, nil
}

// GetKeyPair returns the stored keypair for email, or ErrNotFound.
func (s *BunStore) GetKeyPair(ctx context.Context, email string) (model.KeyPair, error) {
	var km KeyPairModel
	err := s.db.NewSelect().Model(&km).Where("email = ?", email).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.KeyPair{}, ErrNotFound
		}
		return model.KeyPair{}, err
	}
	return keyPairModelToModel(km), nil
}

// LogAction records an audit trail event.
func (s *BunStore) LogAction(ctx context.Context, action, details string) error {
	_, err := s.db.NewInsert().Model(&AuditLogModel{
		CreatedAt: time.Now().UTC(),
		Action:    action,
		Details:   details,
	}).Exec(ctx)
	return err
}

// AuditLog returns up to limit audit entries, most recent first. A limit <= 0
// returns every entry.
func (s *BunStore) AuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	var am []AuditLogModel
	q := s.db.NewSelect().Model(&am).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(am))
	for _, a := range am {
		out = append(out, auditLogModelToModel(a))
	}
	return out, nil
}

func getProfileModel(ctx context.Context, idb bun.IDB, email string) (*ProfileModel, error) {
	var pm ProfileModel
	err := idb.NewSelect().Model(&pm).Where("email = ?", email).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pm, nil
}

// activeEmail returns the email held by active_profile, or "" when empty.
func activeEmail(ctx context.Context, idb bun.IDB) (string, error) {
	var am ActiveProfileModel
	err := idb.NewSelect().Model(&am).Where("id = ?", activeRowID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return am.Email, nil
}

// setActive replaces the active pointer with email.
func setActive(ctx context.Context, idb bun.IDB, email string) error {
	if _, err := ExecRaw(ctx, idb, "DELETE FROM active_profile"); err != nil {
		return fmt.Errorf("failed to clear active profile: %w", err)
	}
	if _, err := idb.NewInsert().Model(&ActiveProfileModel{ID: activeRowID, Email: email}).Exec(ctx); err != nil {
		return fmt.Errorf("failed to set active profile: %w", err)
	}
	return nil
}
