// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/toeirei/gitswitch/internal/logging"

var debugEnabled bool

// SetDebug enables or disables DB debug logging. Disabled by default.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

func dbLogf(format string, v ...any) {
	if debugEnabled {
		logging.Debugf("[DB] "+format, v...)
	}
}
