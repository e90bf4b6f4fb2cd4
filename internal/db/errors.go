// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicate is returned when a profile with the same email already exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned when no profile matches the requested email.
	ErrNotFound = errors.New("record not found")
)

// MapDBError inspects low-level driver errors and maps unique constraint
// violations to ErrDuplicate. The mapping is string based so this file does not
// need to import the individual SQL driver packages.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	le := strings.ToLower(err.Error())
	// MySQL duplicate entry (1062), Postgres unique violation (23505), SQLite unique constraint
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return ErrDuplicate
	}
	return err
}
