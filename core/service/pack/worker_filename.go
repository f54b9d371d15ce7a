// Package pack assembles the Drive folder of artifacts for one drafted item.
package pack

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxSafeNameLen   = 60
	maxSourceNameLen = 180
)

var (
	unsafeNameChars = regexp.MustCompile(`[^\w\s-]`)
	nameSpaces      = regexp.MustCompile(`\s+`)
)

// SafeFilename reduces s to word characters, whitespace and dashes, turns
// whitespace runs into "_" and caps the result at 60 bytes. Empty results become "item".
func SafeFilename(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "")
	s = nameSpaces.ReplaceAllString(strings.TrimSpace(s), "_")
	if len(s) > maxSafeNameLen {
		s = s[:maxSafeNameLen]
	}
	if s == "" {
		return "item"
	}
	return s
}

// SourceImageName names the index-th (1-based) source image of a pack.
func SourceImageName(safeTitle string, index int, contentType string) string {
	name := fmt.Sprintf("SOURCE_%s_%02d.%s", safeTitle, index, imageExtension(contentType))
	if len(name) > maxSourceNameLen {
		name = name[:maxSourceNameLen]
	}
	return name
}

func imageExtension(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	_, sub, ok := strings.Cut(ct, "/")
	if !ok || sub == "" {
		return "png"
	}
	return sub
}

// SlidesName is the name of the copied slide deck.
func SlidesName(safeTitle string) string { return safeTitle + " - Slides" }

// NotesName is the name of the copied notes document.
func NotesName(safeTitle string) string { return safeTitle + " - Notes" }

// ManifestName is the name of the pack's JSON manifest.
func ManifestName(safeTitle string) string { return safeTitle + "_pack.json" }
