package site

import "strings"

const (
	LegislationGDPR = "gdpr"
	LegislationLGPD = "lgpd"
	LegislationCCPA = "ccpa"
)

var languages = map[string]bool{"en": true, "es": true, "pt": true}

// NormalizeLegislation lowercases and validates a legislation code.
func NormalizeLegislation(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case LegislationGDPR, LegislationLGPD, LegislationCCPA:
		return s, true
	}
	return "", false
}

// NormalizeLanguage defaults to English when empty.
func NormalizeLanguage(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "en", true
	}
	return s, languages[s]
}
