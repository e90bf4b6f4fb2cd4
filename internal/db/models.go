package db

import (
	"time"

	"github.com/toeirei/gitswitch/internal/model"
	"github.com/uptrace/bun"
)

// ProfileModel maps the profiles table. ID only provides a stable insertion order.
type ProfileModel struct {
	bun.BaseModel `bun:"table:profiles"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Email         string    `bun:"email,notnull"`
	Name          string    `bun:"name,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// KeyPairModel maps the keypairs table.
type KeyPairModel struct {
	bun.BaseModel `bun:"table:keypairs"`
	Email         string `bun:"email,pk"`
	PrivateKey    []byte `bun:"private_key"`
	PublicKey     []byte `bun:"public_key"`
}

// ActiveProfileModel maps the single-row active_profile table.
type ActiveProfileModel struct {
	bun.BaseModel `bun:"table:active_profile"`
	ID            int    `bun:"id,pk"`
	Email         string `bun:"email,notnull"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int       `bun:"id,pk,autoincrement"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	Action        string    `bun:"action,notnull"`
	Details       string    `bun:"details,notnull"`
}

// activeRowID is the only primary key active_profile accepts.
const activeRowID = 1

func profileModelToModel(p ProfileModel, activeEmail string) model.Profile {
	return model.Profile{
		Email:     p.Email,
		Name:      p.Name,
		Active:    p.Email == activeEmail,
		CreatedAt: p.CreatedAt,
	}
}

func keyPairModelToModel(k KeyPairModel) model.KeyPair {
	return model.KeyPair{Email: k.Email, PrivateKey: k.PrivateKey, PublicKey: k.PublicKey}
}

func auditLogModelToModel(a AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{ID: a.ID, Timestamp: a.CreatedAt, Action: a.Action, Details: a.Details}
}
