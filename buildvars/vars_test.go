package buildvars

import "testing"

func TestVersionOrDefault(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.3"
	if got := VersionOrDefault("dev"); got != "1.2.3" {
		t.Fatalf("VersionOrDefault = %q, want linked version", got)
	}
	Version = ""
	// Test binaries carry no module version.
	if got := VersionOrDefault("dev"); got != "dev" {
		t.Fatalf("VersionOrDefault = %q, want dev", got)
	}
}
