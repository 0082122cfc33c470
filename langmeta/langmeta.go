// Package langmeta provides language display metadata (native names and
// emoji flags) and validation of language directory names.
package langmeta

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the language code as given.
	Code string
	// Tag is the canonical BCP 47 form, empty when Code does not parse.
	Tag string
	// Name is the language's own name for itself, or Code when unknown.
	Name string
	// English is the English name, or Code when unknown.
	English string
	Flag    string
}

// Label returns "Flag Name (code)" trimmed for missing parts.
func (m Meta) Label() string {
	label := m.Name
	if m.Flag != "" {
		label = m.Flag + " " + label
	}
	if m.Name != m.Code {
		label += " (" + m.Code + ")"
	}
	return label
}

// canonicalize accepts the underscore form used by PHP frameworks
// ("pt_BR") as well as BCP 47 ("pt-BR").
func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Parse validates lang as a language code.
func Parse(lang string) (language.Tag, error) {
	canon := canonicalize(lang)
	if canon == "" {
		return language.Und, fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(canon)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language code %q: %w", lang, err)
	}
	return tag, nil
}

// Valid reports whether lang parses as a language code.
func Valid(lang string) bool {
	_, err := Parse(lang)
	return err == nil
}

// Resolve returns best-effort metadata for lang. Unknown codes come back
// with the code as the name and no flag.
func Resolve(lang string) Meta {
	m := Meta{Code: lang, Name: lang, English: lang}
	tag, err := Parse(lang)
	if err != nil {
		return m
	}
	m.Tag = tag.String()

	if name := display.Self.Name(tag); name != "" {
		m.Name = cases.Title(tag).String(name)
	}
	if name := display.English.Tags().Name(tag); name != "" {
		m.English = name
	}
	if region, conf := tag.Region(); conf != language.No {
		m.Flag = Flag(region.String())
	}
	return m
}

// Flag builds the emoji flag for a two-letter region code, or "" for
// anything else.
func Flag(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(region) {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}
