package classification

import (
	"regexp"
	"strings"

	"draft_worker/core/domain"
)

var overridePattern = regexp.MustCompile(`(?i)^\s*(type|title|author|notes):\s*(.+)$`)

// ParseOverrides scans body line by line for "Type:", "Title:", "Author:" and
// "Notes:" lines. Each line is matched on its own and a repeated label replaces the
// earlier value, even when the repeat holds only whitespace. A bare label with
// nothing after the colon is not an override.
func ParseOverrides(body string) domain.ParsedOverrides {
	var out domain.ParsedOverrides

	for _, line := range strings.Split(body, "\n") {
		m := overridePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "type":
			out.Type = value
		case "title":
			out.Title = value
		case "author":
			out.Author = value
		case "notes":
			out.Notes = value
		}
	}

	return out
}
