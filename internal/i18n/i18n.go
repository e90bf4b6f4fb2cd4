// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// package i18n provides localized user-facing strings for gitswitch.
// Translation files are YAML maps of message ID to text, embedded into the
// binary and loaded through go-i18n.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
)

// Init loads every embedded locale and selects lang, falling back to English.
func Init(lang string) {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			continue
		}
		_, _ = bundle.ParseMessageFileBytes(data, f.Name())
	}

	localizer = i18n.NewLocalizer(bundle, lang, "en")
}

// T translates messageID. When args are given the translation is used as a
// fmt format string. Unknown IDs are returned as-is.
func T(messageID string, args ...any) string {
	if localizer == nil {
		Init("en")
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		msg = messageID
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// SetLang changes the active language.
func SetLang(lang string) {
	Init(lang)
}
