package voice

import "strings"

// Language is a supported conversation language code.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Punjabi Language = "pa"
)

var supportedLanguages = []Language{English, Hindi, Punjabi}

// SupportedLanguages returns the language codes accepted by every stage.
func SupportedLanguages() []Language {
	return append([]Language(nil), supportedLanguages...)
}

// Supported reports whether l is one of the accepted codes. Matching is exact.
func (l Language) Supported() bool {
	for _, s := range supportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// ValidateLanguage returns an InvalidLanguage error for unsupported codes.
func ValidateLanguage(op string, l Language) error {
	if l.Supported() {
		return nil
	}
	return &Error{
		Kind:    KindInvalidLanguage,
		Op:      op,
		Message: "unsupported language " + quote(string(l)),
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
