// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the translation files against the Go sources.
// It reports keys used in code but missing from the primary locale, keys
// missing from secondary locales, and orphaned keys nobody uses.
//
// Usage:
//
//	go run ./tools/i18n-linter
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
	projectRoot   = "."
)

// keyLiteral matches i18n.T("key") calls and bare "area.key" literals, which
// the TUI menu uses to build its labels.
var keyLiteral = regexp.MustCompile(`i18n\.T\("([^"]+)"|"([a-z_]+\.[a-z_.]+)"`)

// report is the outcome of one lint run.
type report struct {
	Undefined []string            // used in code, absent from the primary locale
	Missing   map[string][]string // locale file -> keys it lacks
	Orphaned  []string            // defined in the primary locale, never used
}

func (r report) failed() bool {
	return len(r.Undefined) > 0 || len(r.Missing) > 0
}

func main() {
	r, err := lint(projectRoot, localesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(1)
	}
	printReport(r)
	if r.failed() {
		os.Exit(1)
	}
}

func lint(root, locales string) (report, error) {
	r := report{Missing: map[string][]string{}}

	used, err := findUsedKeys(root)
	if err != nil {
		return r, fmt.Errorf("scan sources: %w", err)
	}
	primary, err := loadKeys(filepath.Join(locales, primaryLocale))
	if err != nil {
		return r, fmt.Errorf("load %s: %w", primaryLocale, err)
	}

	for key := range used {
		if _, ok := primary[key]; !ok {
			r.Undefined = append(r.Undefined, key)
		}
	}
	for key := range primary {
		if _, ok := used[key]; !ok {
			r.Orphaned = append(r.Orphaned, key)
		}
	}
	sort.Strings(r.Undefined)
	sort.Strings(r.Orphaned)

	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return r, err
	}
	for _, file := range files {
		name := filepath.Base(file)
		if name == primaryLocale {
			continue
		}
		keys, err := loadKeys(file)
		if err != nil {
			return r, fmt.Errorf("load %s: %w", name, err)
		}
		var missing []string
		for key := range primary {
			if _, ok := keys[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			r.Missing[name] = missing
		}
	}
	return r, nil
}

func printReport(r report) {
	section := func(title string, keys []string) {
		fmt.Printf("--- %s ---\n", title)
		if len(keys) == 0 {
			fmt.Println("  none")
		}
		for _, k := range keys {
			fmt.Printf("  - %s\n", k)
		}
	}
	section("Used in code but not translated", r.Undefined)
	names := make([]string, 0, len(r.Missing))
	for name := range r.Missing {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		section("Missing in "+name, r.Missing[name])
	}
	section("Orphaned (never used)", r.Orphaned)
}

// findUsedKeys scans non-test .go files below root, skipping tools/ and
// underscore directories.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (d.Name() == "tools" || strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range keyLiteral.FindAllStringSubmatch(string(content), -1) {
			switch {
			case m[1] != "":
				keys[m[1]] = struct{}{}
			case m[2] != "" && !isLikelyNotKey(m[2]):
				keys[m[2]] = struct{}{}
			}
		}
		return nil
	})
	return keys, err
}

// isLikelyNotKey filters literals that look like keys but are config names,
// git settings or file names.
func isLikelyNotKey(s string) bool {
	switch {
	case strings.HasPrefix(s, "user."),
		strings.HasPrefix(s, "database."),
		strings.HasPrefix(s, "ssh."),
		strings.HasPrefix(s, "keygen."),
		strings.HasPrefix(s, "git."),
		strings.HasSuffix(s, ".yaml"),
		strings.HasSuffix(s, ".sql"),
		strings.HasSuffix(s, ".pub"):
		return true
	}
	return false
}

// loadKeys reads a locale file. Nested maps are flattened with dots, so
// both flat and nested layouts work.
func loadKeys(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flatten("", data, keys)
	return keys, nil
}

func flatten(prefix string, node any, keys map[string]struct{}) {
	m, ok := node.(map[string]any)
	if !ok {
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
		return
	}
	for k, v := range m {
		if prefix != "" {
			k = prefix + "." + k
		}
		flatten(k, v, keys)
	}
}
