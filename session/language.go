// session/language.go
package session

import "strings"

// Language is a supported conversation language code.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageTamil     Language = "ta"
	LanguageMalayalam Language = "ml"
)

// DefaultLanguage is used when detection fails or reports a language
// outside the supported set.
const DefaultLanguage = LanguageEnglish

// languageNames maps spelled-out names, as returned by speech
// transcription, to codes.
var languageNames = map[string]Language{
	"english":   LanguageEnglish,
	"tamil":     LanguageTamil,
	"malayalam": LanguageMalayalam,
}

// Valid reports whether l is one of the supported codes.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageTamil, LanguageMalayalam:
		return true
	}
	return false
}

// NormalizeLanguage maps a code, BCP 47 tag or spelled-out name to a
// supported language, falling back to the default when it cannot.
func NormalizeLanguage(raw string) Language {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return DefaultLanguage
	}
	if lang, ok := languageNames[s]; ok {
		return lang
	}
	// Strip a region subtag such as en-US or ta_IN.
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	if lang := Language(s); lang.Valid() {
		return lang
	}
	return DefaultLanguage
}
