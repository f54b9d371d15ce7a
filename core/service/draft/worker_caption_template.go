// Package draft writes Instagram captions from a classified message.
package draft

import (
	"strings"

	"draft_worker/core/domain"
)

const (
	linkSuffix          = "\n\n🔗 Link saved."
	politicalNotesNudge = "(Add a one-liner on why this matters locally)"
)

var (
	bookHashtags      = []string{"#bookstagram", "#readinglist", "#toread", "#books", "#bookrecommendations"}
	politicalHashtags = []string{"#perth", "#westernaustralia", "#community", "#costofliving", "#housing", "#workersrights"}
	genericHashtags   = []string{"#savethelink", "#ideas", "#inspo"}
)

// Category is the template family chosen for a content type.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryBook
	CategoryPolitical
)

// CategoryOf maps a free-text content type to its template family.
func CategoryOf(typ string) Category {
	t := strings.ToLower(typ)
	if t == "" {
		t = strings.ToLower(domain.TypeThing)
	}
	switch {
	case strings.Contains(t, "book"):
		return CategoryBook
	case strings.Contains(t, "polit"):
		return CategoryPolitical
	default:
		return CategoryGeneric
	}
}

// BuildCaption drafts a caption from the deterministic per-category templates.
func BuildCaption(in domain.DraftInput) domain.DraftContent {
	var lines []string
	var hashtags []string

	switch CategoryOf(in.Type) {
	case CategoryBook:
		heading := "📚 " + in.Title
		if in.Author != "" {
			heading += " — " + in.Author
		}
		lines = []string{heading, "", "Saved for later.", notesLine(in.Notes)}
		hashtags = bookHashtags

	case CategoryPolitical:
		bullet := "\n• " + politicalNotesNudge
		if in.Notes != "" {
			bullet = "\n• " + in.Notes
		}
		lines = []string{
			"🟥 " + in.Title,
			"",
			"A quick local take:",
			bullet,
			"",
			"If this affects you, I’d like to hear your experience.",
		}
		hashtags = politicalHashtags

	default:
		lines = []string{"✨ " + in.Title, "", "Saved for later.", notesLine(in.Notes)}
		hashtags = genericHashtags
	}

	caption := strings.TrimSpace(strings.Join(lines, "\n"))
	if in.Link != "" {
		caption += linkSuffix
	}

	return domain.DraftContent{
		Caption:  caption,
		Hashtags: NormalizeHashtags(hashtags),
	}
}

func notesLine(notes string) string {
	if notes == "" {
		return ""
	}
	return "\nNotes: " + notes
}
