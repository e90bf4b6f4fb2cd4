package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/toeirei/gitswitch/internal/core"
	"github.com/toeirei/gitswitch/internal/i18n"
	"github.com/toeirei/gitswitch/internal/model"
)

func TestDescribeSwitch(t *testing.T) {
	i18n.Init("en")
	p := &model.Profile{Name: "A", Email: "a@x"}
	if got := DescribeSwitch(core.SwitchResult{NoOtherAccounts: true}); got != i18n.T("switch.no_other_accounts") {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := DescribeSwitch(core.SwitchResult{Profile: p}); !strings.Contains(got, "A <a@x>") {
		t.Fatalf("switch message misses the profile: %q", got)
	}
	if a, b := DescribeSwitch(core.SwitchResult{Profile: p, AlreadyActive: true}), DescribeSwitch(core.SwitchResult{Profile: p}); a == b {
		t.Fatal("already-active switch should read differently")
	}
}

func TestDescribeRemove(t *testing.T) {
	i18n.Init("en")
	removed := model.Profile{Name: "A", Email: "a@x", Active: true}
	got := DescribeRemove(core.RemoveResult{Removed: removed, Promoted: &model.Profile{Name: "B", Email: "b@x"}})
	if !strings.Contains(got, "A <a@x>") || !strings.Contains(got, "B <b@x>") {
		t.Fatalf("unexpected message: %q", got)
	}
	got = DescribeRemove(core.RemoveResult{Removed: removed, NoOtherAccounts: true})
	if !strings.Contains(got, i18n.T("remove.none_left")) {
		t.Fatalf("expected none-left note: %q", got)
	}
}

func TestMirrorWarning(t *testing.T) {
	i18n.Init("en")
	if MirrorWarning(nil) != "" {
		t.Fatal("nil error must not warn")
	}
	if got := MirrorWarning(errors.New("disk full")); !strings.Contains(got, "disk full") {
		t.Fatalf("warning misses cause: %q", got)
	}
}

func TestDriftFields(t *testing.T) {
	r := model.DriftReport{Diverged: []model.DriftField{model.FieldName, model.FieldPublicKey}}
	if got := DriftFields(r); got != "user.name, public_key" {
		t.Fatalf("DriftFields = %q", got)
	}
}
