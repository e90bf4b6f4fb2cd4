// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures used throughout gitswitch.
package model // import "github.com/toeirei/gitswitch/internal/model"

import (
	"fmt"
	"path/filepath"
	"time"
)

// Profile is one stored git identity. Email is the unique identity key.
// Active is derived from the store's active pointer when the profile is read.
type Profile struct {
	Email     string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// String returns the "Name <email>" representation used in prompts and logs.
func (p Profile) String() string {
	return fmt.Sprintf("%s <%s>", p.Name, p.Email)
}

// KeyPair holds the SSH key material stored for a profile.
// Both halves are kept verbatim as they were read from disk.
type KeyPair struct {
	Email      string
	PrivateKey []byte
	PublicKey  []byte
}

// Empty reports whether neither half of the keypair carries any bytes.
func (k KeyPair) Empty() bool {
	return len(k.PrivateKey) == 0 && len(k.PublicKey) == 0
}

// KeyPaths are the two fixed files holding the resident SSH keypair.
// They are shared by every profile; only one keypair can be resident at a time.
type KeyPaths struct {
	Private string
	Public  string
}

// NewKeyPaths returns the paths for key name inside dir; the public half is
// the private path plus ".pub", as ssh-keygen writes it.
func NewKeyPaths(dir, name string) KeyPaths {
	priv := filepath.Join(dir, name)
	return KeyPaths{Private: priv, Public: priv + ".pub"}
}

// Dir returns the directory holding the key files.
func (k KeyPaths) Dir() string {
	return filepath.Dir(k.Private)
}

// MirroredState is a read-only snapshot of the external stores: the global git
// identity and the two SSH key files.
type MirroredState struct {
	Name     string
	NameSet  bool
	Email    string
	EmailSet bool

	PrivateKey     []byte
	PrivatePresent bool
	PublicKey      []byte
	PublicPresent  bool
}

// Cleared reports whether nothing of any profile is resident in the external stores.
func (m MirroredState) Cleared() bool {
	return !m.NameSet && !m.EmailSet && !m.PrivatePresent && !m.PublicPresent
}

// AuditLogEntry represents a single event in the audit trail.
type AuditLogEntry struct {
	ID        int
	Timestamp time.Time
	Action    string
	Details   string
}

// BackupData is the portable dump of the whole profile database.
type BackupData struct {
	Version  int             `json:"version"`
	Profiles []Profile       `json:"profiles"`
	KeyPairs []KeyPair       `json:"keypairs"`
	Active   string          `json:"active,omitempty"`
	AuditLog []AuditLogEntry `json:"audit_log,omitempty"`
}
