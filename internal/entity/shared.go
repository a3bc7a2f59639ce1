package entity

import "strings"

// Language represents supported language codes using ISO-style abbreviations.
type Language string

const (
	LanguageUnspecified Language = ""
	LanguageEnglish     Language = "en"
	LanguageChinese     Language = "zh"
	LanguageSpanish     Language = "es"
	LanguageFrench      Language = "fr"
	LanguageGerman      Language = "de"
	LanguageItalian     Language = "it"
	LanguagePortuguese  Language = "pt"
	LanguageJapanese    Language = "ja"
	LanguageKorean      Language = "ko"
)

var languageNames = map[Language]string{
	LanguageEnglish:    "English",
	LanguageChinese:    "Chinese",
	LanguageSpanish:    "Spanish",
	LanguageFrench:     "French",
	LanguageGerman:     "German",
	LanguageItalian:    "Italian",
	LanguagePortuguese: "Portuguese",
	LanguageJapanese:   "Japanese",
	LanguageKorean:     "Korean",
}

// Code returns the lowercase language code (without defaulting).
func (l Language) Code() string {
	return strings.TrimSpace(string(l))
}

// Name returns the English display name used in AI prompts.
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return l.Code()
}

// Supported reports whether the language is one of the known codes.
func (l Language) Supported() bool {
	_, ok := languageNames[l]
	return ok
}

// NormalizeLanguage ensures the language falls back to a supported value (defaults to English).
func NormalizeLanguage(lang Language) Language {
	if lang.Supported() {
		return lang
	}
	return LanguageEnglish
}

// ParseLanguage converts an arbitrary string into a supported Language value.
// Unknown codes yield LanguageUnspecified.
func ParseLanguage(code string) Language {
	lang := Language(strings.ToLower(strings.TrimSpace(code)))
	if lang.Supported() {
		return lang
	}
	return LanguageUnspecified
}

// NormalizeWordToken lowercases and trims a word so it can be compared case-insensitively.
func NormalizeWordToken(word string) string {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}
