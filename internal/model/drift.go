// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// DriftClassification represents the severity level of detected divergence
// between the active profile and the mirrored external state.
type DriftClassification string

const (
	// DriftNone means the mirrored state matches the expectation exactly.
	DriftNone DriftClassification = "none"

	// DriftCritical means key material on disk belongs to something other than
	// the active profile, or is missing.
	DriftCritical DriftClassification = "critical"

	// DriftWarning means only the git identity diverged.
	DriftWarning DriftClassification = "warning"
)

// DriftField names one mirrored field.
type DriftField string

const (
	FieldName       DriftField = "user.name"
	FieldEmail      DriftField = "user.email"
	FieldPrivateKey DriftField = "private_key"
	FieldPublicKey  DriftField = "public_key"
)

// DriftReport compares the active profile against the mirrored state.
type DriftReport struct {
	// Active is nil when no profile is active; in that case the expectation
	// is a fully cleared external state.
	Active         *Profile
	Mirrored       MirroredState
	Diverged       []DriftField
	Classification DriftClassification
}

// HasDrift reports whether any field diverged.
func (r DriftReport) HasDrift() bool {
	return len(r.Diverged) > 0
}
