// Package i18n translates transync's own user-facing strings.
//
// It wraps the gotext library to provide simple T() and N() functions.
// Translations are embedded in the binary via //go:embed and loaded at
// startup via Init().
//
// Usage:
//
//	i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	ui.Info(i18n.T("Fetching translations from %s"), url)
//	fmt.Println(i18n.N("%d file", "%d files", count))
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// locales embeds the translation catalogs.
// Directory structure: locales/{lang}/LC_MESSAGES/transync.po
//
//go:embed all:locales
var locales embed.FS

const domain = "transync"

// supported lists the embedded catalogs; English is the source language.
var supported = []language.Tag{
	language.English,
	language.Russian,
	language.German,
}

var matcher = language.NewMatcher(supported)

var (
	po      *gotext.Locale
	current string
)

// Init initializes the i18n system. If lang is empty, it auto-detects
// from the environment variables LANGUAGE, LC_ALL, LC_MESSAGES, LANG
// (in that order, matching GNU gettext behavior).
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	current = match(lang)
	po = gotext.NewLocaleFSWithPath(current, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Current returns the catalog language in use, or "" before Init.
func Current() string {
	return current
}

// T translates a string. If no translation is available, returns the
// original string unchanged.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// match picks the closest embedded catalog for a locale name such as
// "ru_RU" or "de-AT".
func match(lang string) string {
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return "en"
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "en"
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// detectLanguage follows GNU gettext priority: LANGUAGE > LC_ALL >
// LC_MESSAGES > LANG.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// "ru_RU.UTF-8" -> "ru_RU"
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
