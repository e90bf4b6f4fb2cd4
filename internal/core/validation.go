// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateProfileInput checks name and email before anything is generated or
// stored. Both end up as command-line arguments and git config values, so
// control characters are rejected, and the email may not contain whitespace.
func ValidateProfileInput(name, email string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: name and email cannot be empty", ErrInvalidInput)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: name contains control characters", ErrInvalidInput)
	}
	if strings.IndexFunc(email, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("%w: email cannot contain whitespace", ErrInvalidInput)
	}
	if strings.HasPrefix(email, "-") {
		return fmt.Errorf("%w: email cannot start with '-'", ErrInvalidInput)
	}
	return nil
}
