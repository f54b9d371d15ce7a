package classification

import (
	"regexp"
	"strings"

	"draft_worker/core/domain"
)

// inferenceRules are checked in order; the first match wins.
var inferenceRules = []struct {
	pattern *regexp.Regexp
	typ     string
}{
	{regexp.MustCompile(`\b(book|read|author|kindle|goodreads)\b`), domain.TypeInferBook},
	{regexp.MustCompile(`\b(restaurant|cafe|bar|menu|dinner|brunch)\b`), domain.TypeRestaurant},
}

// InferType guesses a content type from keywords in the subject, body and link.
func InferType(subject, body, url string) string {
	text := strings.ToLower(subject + "\n" + body + "\n" + url)

	for _, rule := range inferenceRules {
		if rule.pattern.MatchString(text) {
			return rule.typ
		}
	}
	return domain.TypeThing
}

// ResolveEffectiveType applies the type precedence: a body override always wins,
// then subject flags (POLITICAL over BOOK), then the inferred type.
func ResolveEffectiveType(inferred, overrideType string, flags domain.Flags) string {
	if overrideType != "" {
		return overrideType
	}
	switch {
	case flags.IsPolitical:
		return domain.TypePolitical
	case flags.IsBook:
		return domain.TypeBook
	}
	return inferred
}
