// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ui holds the localized result messages shared by the command line
// and the interactive menu, so both report the same outcome in the same words.
package ui

import (
	"strings"

	"github.com/toeirei/gitswitch/internal/core"
	"github.com/toeirei/gitswitch/internal/i18n"
	"github.com/toeirei/gitswitch/internal/model"
)

// DescribeAdd reports a newly added profile.
func DescribeAdd(res core.AddResult) string {
	return i18n.T("add.success", res.Profile.Name, res.Profile.Email)
}

// DescribeSwitch reports the outcome of a switch.
func DescribeSwitch(res core.SwitchResult) string {
	switch {
	case res.NoOtherAccounts:
		return i18n.T("switch.no_other_accounts")
	case res.AlreadyActive:
		return i18n.T("switch.already_active", res.Profile.String())
	default:
		return i18n.T("switch.success", res.Profile.String())
	}
}

// DescribeRemove reports a removal and, if the active profile was removed,
// what took its place.
func DescribeRemove(res core.RemoveResult) string {
	text := i18n.T("remove.success", res.Removed.String())
	switch {
	case res.Promoted != nil:
		text += " " + i18n.T("remove.promoted", res.Promoted.String())
	case res.NoOtherAccounts:
		text += " " + i18n.T("remove.none_left")
	}
	return text
}

// DescribeRemoveAll reports how many profiles were wiped.
func DescribeRemoveAll(res core.RemoveAllResult) string {
	return i18n.T("remove_all.success", res.Removed)
}

// MirrorWarning returns the warning for a partial mirror failure, or "" for nil.
func MirrorWarning(err error) string {
	if err == nil {
		return ""
	}
	return i18n.T("warn.mirror", err)
}

// DriftFields joins the diverged field names for display.
func DriftFields(r model.DriftReport) string {
	fields := make([]string, 0, len(r.Diverged))
	for _, f := range r.Diverged {
		fields = append(fields, string(f))
	}
	return strings.Join(fields, ", ")
}
