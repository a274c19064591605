package platform

import (
	"github.com/jeandeaual/go-locale"
)

// Matcher maps a locale string to a supported language code.
type Matcher interface {
	Match(code string) string
}

// DetectLanguage returns the first supported system language, or fallback
// when the system reports none.
func DetectLanguage(matcher Matcher, fallback string) string {
	locales, err := locale.GetLocales()
	if err != nil || len(locales) == 0 {
		return fallback
	}
	return matchFirst(matcher, locales, fallback)
}

func matchFirst(matcher Matcher, locales []string, fallback string) string {
	for _, code := range locales {
		if code == "" {
			continue
		}
		return matcher.Match(code)
	}
	return fallback
}
