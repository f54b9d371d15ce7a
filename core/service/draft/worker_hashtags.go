package draft

import (
	"strings"

	"draft_worker/core/domain"
)

// NormalizeHashtags trims entries, drops empty and duplicate (case-sensitive) ones
// keeping first-seen order, and caps the list at domain.MaxHashtags.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, min(len(tags), domain.MaxHashtags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == domain.MaxHashtags {
			break
		}
	}
	return out
}

// ApplyStoryOnly reduces a draft to its first two caption lines and no hashtags.
func ApplyStoryOnly(d domain.DraftContent) domain.DraftContent {
	lines := strings.Split(d.Caption, "\n")
	if len(lines) > 2 {
		lines = lines[:2]
	}
	return domain.DraftContent{
		Caption:  strings.TrimSpace(strings.Join(lines, "\n")),
		Hashtags: []string{},
	}
}
