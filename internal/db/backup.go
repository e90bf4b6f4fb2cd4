package db

import (
	"context"
	"fmt"

	"github.com/toeirei/gitswitch/internal/model"
	"github.com/uptrace/bun"
)

// BackupVersion is the format version written by Export.
const BackupVersion = 1

// Export reads every table into a BackupData snapshot inside one transaction.
func (s *BunStore) Export(ctx context.Context) (*model.BackupData, error) {
	data := &model.BackupData{Version: BackupVersion}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		active, err := activeEmail(ctx, tx)
		if err != nil {
			return err
		}
		data.Active = active

		var pms []ProfileModel
		if err := tx.NewSelect().Model(&pms).Order("id").Scan(ctx); err != nil {
			return fmt.Errorf("export profiles: %w", err)
		}
		for _, pm := range pms {
			data.Profiles = append(data.Profiles, profileModelToModel(pm, active))
		}

		var kms []KeyPairModel
		if err := tx.NewSelect().Model(&kms).Order("email").Scan(ctx); err != nil {
			return fmt.Errorf("export keypairs: %w", err)
		}
		for _, km := range kms {
			data.KeyPairs = append(data.KeyPairs, keyPairModelToModel(km))
		}

		var ams []AuditLogModel
		if err := tx.NewSelect().Model(&ams).Order("id").Scan(ctx); err != nil {
			return fmt.Errorf("export audit log: %w", err)
		}
		for _, am := range ams {
			data.AuditLog = append(data.AuditLog, auditLogModelToModel(am))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Import wipes the profile tables and replaces them with backup, all in one
// transaction. The backup is validated first: duplicate profiles or keypairs,
// a profile without keypair, a keypair without profile and an unknown active
// email are rejected before anything is touched. Audit entries from the backup are appended to the existing log.
func (s *BunStore) Import(ctx context.Context, backup *model.BackupData) error {
	if backup == nil {
		return fmt.Errorf("no backup data")
	}
	if backup.Version > BackupVersion {
		return fmt.Errorf("unsupported backup version %d", backup.Version)
	}
	known := make(map[string]bool, len(backup.Profiles))
	for _, p := range backup.Profiles {
		if known[p.Email] {
			return fmt.Errorf("backup contains %s twice: %w", p.Email, ErrDuplicate)
		}
		known[p.Email] = true
	}
	if backup.Active != "" && !known[backup.Active] {
		return fmt.Errorf("backup marks unknown profile %s as active: %w", backup.Active, ErrNotFound)
	}
	// Every profile needs exactly one keypair, and no keypair may be orphaned.
	keyed := make(map[string]bool, len(backup.KeyPairs))
	for _, kp := range backup.KeyPairs {
		if !known[kp.Email] {
			return fmt.Errorf("backup has a keypair for unknown profile %s: %w", kp.Email, ErrNotFound)
		}
		if keyed[kp.Email] {
			return fmt.Errorf("backup contains the keypair of %s twice: %w", kp.Email, ErrDuplicate)
		}
		keyed[kp.Email] = true
	}
	for _, p := range backup.Profiles {
		if !keyed[p.Email] {
			return fmt.Errorf("backup has no keypair for %s: %w", p.Email, ErrNotFound)
		}
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range []string{"DELETE FROM active_profile", "DELETE FROM keypairs", "DELETE FROM profiles"} {
			if _, err := ExecRaw(ctx, tx, stmt); err != nil {
				return fmt.Errorf("failed to wipe profiles: %w", err)
			}
		}
		for _, p := range backup.Profiles {
			pm := &ProfileModel{Email: p.Email, Name: p.Name, CreatedAt: p.CreatedAt}
			if _, err := tx.NewInsert().Model(pm).Exec(ctx); err != nil {
				return fmt.Errorf("import profile %s: %w", p.Email, MapDBError(err))
			}
		}
		for _, kp := range backup.KeyPairs {
			km := &KeyPairModel{Email: kp.Email, PrivateKey: kp.PrivateKey, PublicKey: kp.PublicKey}
			if _, err := tx.NewInsert().Model(km).Exec(ctx); err != nil {
				return fmt.Errorf("import keypair %s: %w", kp.Email, MapDBError(err))
			}
		}
		if backup.Active != "" {
			if err := setActive(ctx, tx, backup.Active); err != nil {
				return err
			}
		}
		for _, e := range backup.AuditLog {
			am := &AuditLogModel{CreatedAt: e.Timestamp, Action: e.Action, Details: e.Details}
			if _, err := tx.NewInsert().Model(am).Exec(ctx); err != nil {
				return fmt.Errorf("import audit log: %w", err)
			}
		}
		return nil
	})
}
