// Package dedupe fingerprints messages and remembers which were already drafted.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	leadingLinkWrap  = `<([{"'`
	trailingLinkWrap = `>)]}"'.,;:!?`
)

// NormalizeLink trims whitespace and wrapping punctuation from a link so that
// "<https://x.io/a>." and "https://x.io/a" fingerprint alike.
func NormalizeLink(link string) string {
	s := strings.TrimSpace(link)
	for {
		trimmed := strings.TrimSpace(strings.TrimRight(strings.TrimLeft(s, leadingLinkWrap), trailingLinkWrap))
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// Fingerprint returns the SHA-256 hex digest of the normalised link, or of
// subject + "\n" + body when there is no link.
func Fingerprint(link, subject, body string) string {
	if l := NormalizeLink(link); l != "" {
		return digest(l)
	}
	return digest(subject + "\n" + body)
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
