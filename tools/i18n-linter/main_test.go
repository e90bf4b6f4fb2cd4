package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadKeys_FlatAndNested(t *testing.T) {
	p := filepath.Join(t.TempDir(), "en.yaml")
	writeFile(t, p, "\"menu.quit\": \"Quit\"\nstatus:\n  title: \"Status\"\n")
	keys, err := loadKeys(p)
	if err != nil {
		t.Fatalf("loadKeys: %v", err)
	}
	for _, k := range []string{"menu.quit", "status.title"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("expected key %q", k)
		}
	}
}

func TestLint_ReportsUndefinedMissingAndOrphaned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "a.go"), `package app
func f() {
	_ = i18n.T("menu.quit")
	_ = i18n.T("menu.new")
	_ = "menu.switch"
	_ = "user.email"
}`)
	// Keys used only in tests do not count.
	writeFile(t, filepath.Join(root, "app", "a_test.go"), `package app
var _ = i18n.T("test.only")`)
	locales := filepath.Join(root, "locales")
	writeFile(t, filepath.Join(locales, "en.yaml"), "\"menu.quit\": \"Quit\"\n\"menu.switch\": \"Switch\"\n\"menu.old\": \"Old\"\n")
	writeFile(t, filepath.Join(locales, "de.yaml"), "\"menu.quit\": \"Beenden\"\n\"menu.old\": \"Alt\"\n")

	r, err := lint(root, locales)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if !reflect.DeepEqual(r.Undefined, []string{"menu.new"}) {
		t.Errorf("Undefined = %v", r.Undefined)
	}
	if !reflect.DeepEqual(r.Missing["de.yaml"], []string{"menu.switch"}) {
		t.Errorf("Missing = %v", r.Missing)
	}
	if !reflect.DeepEqual(r.Orphaned, []string{"menu.old"}) {
		t.Errorf("Orphaned = %v", r.Orphaned)
	}
	if !r.failed() {
		t.Error("expected the report to fail")
	}
}

func TestLint_CleanTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), `package a
var _ = i18n.T("menu.quit")`)
	locales := filepath.Join(root, "locales")
	writeFile(t, filepath.Join(locales, "en.yaml"), "\"menu.quit\": \"Quit\"\n")
	writeFile(t, filepath.Join(locales, "de.yaml"), "\"menu.quit\": \"Beenden\"\n")

	r, err := lint(root, locales)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if r.failed() || len(r.Orphaned) != 0 {
		t.Fatalf("unexpected findings: %+v", r)
	}
}
