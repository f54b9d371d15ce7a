package classification

import (
	"regexp"
	"strings"
)

const maxExtractedURLs = 10

var (
	signatureSeparator = regexp.MustCompile(`\n--\s*\n`)
	urlPattern         = regexp.MustCompile(`(?i)\bhttps?://[^\s<>()"]+`)
	frontMatterLine    = regexp.MustCompile(`(?im)^\s*(type|title|author|notes):.*$`)

	junkURLMarkers = []string{
		"proton.me",
		"accounts.google.com",
		"unsubscribe",
		"privacy",
		"terms",
	}
)

// BodyCore returns the body above the first "--" signature separator, trimmed.
func BodyCore(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.TrimSpace(signatureSeparator.Split(body, 2)[0])
}

// ExtractURLs returns up to 10 unique http(s) URLs in order of appearance, with
// trailing ")", "," and "." removed.
func ExtractURLs(text string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, raw := range urlPattern.FindAllString(text, -1) {
		u := strings.TrimRight(raw, "),.")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
		if len(urls) == maxExtractedURLs {
			break
		}
	}
	return urls
}

// IsJunkURL reports whether url points at mail-provider, account or legal boilerplate.
func IsJunkURL(url string) bool {
	u := strings.ToLower(url)
	for _, marker := range junkURLMarkers {
		if strings.Contains(u, marker) {
			return true
		}
	}
	return false
}

// PrimaryURL returns the first non-junk URL in text, or "".
func PrimaryURL(text string) string {
	for _, u := range ExtractURLs(text) {
		if !IsJunkURL(u) {
			return u
		}
	}
	return ""
}

// ExtractNotes returns the body with URLs and override lines removed.
func ExtractNotes(body string) string {
	notes := urlPattern.ReplaceAllString(body, "")
	notes = frontMatterLine.ReplaceAllString(notes, "")
	return strings.TrimSpace(notes)
}
