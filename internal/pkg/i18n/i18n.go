// Package i18n resolves user-facing strings for the two supported languages.
// Arabic is the default; a key missing in the requested language falls back
// to English, then to the key itself.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

type Lang string

const (
	Arabic  Lang = "ar"
	English Lang = "en"

	Default = Arabic
)

// Key identifies a catalog entry.
type Key string

// Text holds one entry in every language it is translated to.
type Text map[Lang]string

var matcher = language.NewMatcher([]language.Tag{language.Arabic, language.English})

// ParseLang accepts "ar" or "en" in any case.
func ParseLang(s string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case Arabic:
		return Arabic, true
	case English:
		return English, true
	}
	return "", false
}

// Negotiate picks the language for a request: an explicit choice wins, then
// the Accept-Language header, then Default.
func Negotiate(explicit, acceptLanguage string) Lang {
	if l, ok := ParseLang(explicit); ok {
		return l
	}
	if acceptLanguage == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return English
	}
	return Arabic
}

// Pick returns t in lang, falling back to English and then "".
func (t Text) Pick(lang Lang) string {
	if s, ok := t[lang]; ok && s != "" {
		return s
	}
	return t[English]
}

// T looks key up in the catalog.
func T(lang Lang, key Key) string {
	text, ok := catalog[key]
	if !ok {
		return string(key)
	}
	if s := text.Pick(lang); s != "" {
		return s
	}
	return string(key)
}

// Dir reports the writing direction for lang.
func Dir(lang Lang) string {
	if lang == Arabic {
		return "rtl"
	}
	return "ltr"
}
