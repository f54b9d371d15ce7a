// Package classification derives a content type and behaviour flags from a
// message's subject and body.
package classification

import (
	"regexp"
	"strings"

	"draft_worker/core/domain"
)

// =============================================================================
// Subject Tags
// =============================================================================

// tagPattern matches one innermost bracket tag such as "[BOOK]" or "[ story only ]".
var tagPattern = regexp.MustCompile(`\[[^\[\]]*\]`)

// tagNormalizer removes separators so "DRAFT ONLY", "draft-only" and "Draft_Only"
// compare equal.
var tagNormalizer = strings.NewReplacer(" ", "", "\t", "", "-", "", "_", "")

type flagSetter func(*domain.Flags)

var knownTags = map[string]flagSetter{
	"BOOK":      func(f *domain.Flags) { f.IsBook = true },
	"BOOKS":     func(f *domain.Flags) { f.IsBook = true },
	"POLITICAL": func(f *domain.Flags) { f.IsPolitical = true },
	"POLITICS":  func(f *domain.Flags) { f.IsPolitical = true },
	"POL":       func(f *domain.Flags) { f.IsPolitical = true },
	"DRAFT":     func(f *domain.Flags) { f.IsDraftOnly = true },
	"DRAFTONLY": func(f *domain.Flags) { f.IsDraftOnly = true },
	"STORY":     func(f *domain.Flags) { f.IsStoryOnly = true },
	"STORYONLY": func(f *domain.Flags) { f.IsStoryOnly = true },
	"TEST":      func(f *domain.Flags) { f.IsTest = true },
	"FAST":      func(f *domain.Flags) { f.IsFast = true },
}

// ExtractTags returns the inner text of every bracket tag, trimmed, skipping empty tags.
func ExtractTags(subject string) []string {
	matches := tagPattern.FindAllString(subject, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.TrimSpace(m[1 : len(m)-1])
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ParseFlags reads behaviour flags from the bracket tags of a raw subject.
// Matching is case-insensitive; unknown tags are ignored. Flags are independent,
// so a subject may set both IsBook and IsPolitical.
func ParseFlags(subject string) domain.Flags {
	var flags domain.Flags
	for _, tag := range ExtractTags(subject) {
		key := strings.ToUpper(tagNormalizer.Replace(tag))
		if set, ok := knownTags[key]; ok {
			set(&flags)
		}
	}
	return flags
}

// StripTags removes every bracket tag and collapses whitespace. Only for display;
// flags must be parsed from the original subject.
func StripTags(subject string) string {
	// Removing an inner tag can expose an outer one ("[[x]]"), so repeat until stable.
	for tagPattern.MatchString(subject) {
		subject = tagPattern.ReplaceAllString(subject, " ")
	}
	return strings.Join(strings.Fields(subject), " ")
}
