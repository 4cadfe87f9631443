package translation

import (
	"sort"
	"strings"
)

// English is the language the dialogue engine works in
const English = "en"

// Languages maps display names to the ISO 639 codes the service accepts
var Languages = map[string]string{
	"English":     "en",
	"Swahili":     "sw",
	"Fon":         "fon",
	"Igbo":        "ig",
	"Kinyarwanda": "rw",
	"Xhosa":       "xh",
	"Yoruba":      "yo",
	"French":      "fr",
}

// NormalizeLanguage resolves a display name or code to a supported code.
// Empty input means English.
func NormalizeLanguage(lang string) (string, bool) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return English, true
	}
	for name, code := range Languages {
		if strings.EqualFold(lang, name) || strings.EqualFold(lang, code) {
			return code, true
		}
	}
	return "", false
}

// LanguageName returns the display name for a code, or the code itself
func LanguageName(code string) string {
	for name, c := range Languages {
		if c == code {
			return name
		}
	}
	return code
}

// SupportedCodes lists the accepted language codes in sorted order
func SupportedCodes() []string {
	codes := make([]string, 0, len(Languages))
	for _, code := range Languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
