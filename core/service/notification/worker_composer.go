// Package notification tells the operator about drafted packs.
package notification

import (
	"bytes"
	"fmt"
	"strings"

	"draft_worker/core/domain"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Item is a drafted item to announce.
type Item struct {
	Type      string
	Title     string
	Link      string
	Notes     string
	Draft     domain.DraftContent
	PackURL   string
	CoverFile *domain.Attachment
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Subject returns the notification subject line.
func Subject(typ, title string) string {
	return fmt.Sprintf("MEM Draft (%s): %s", typ, title)
}

// Compose builds the notification for it.
func Compose(it Item) (*domain.Notification, error) {
	hashtags := orNone(it.Draft.HashtagLine())
	link := orNone(it.Link)
	notes := orNone(it.Notes)

	text := strings.Join([]string{
		"Caption (copy/paste):\n",
		it.Draft.Caption,
		"\n\nHashtags:\n" + hashtags,
		"\n\nLink:\n" + link,
		"\n\nNotes:\n" + notes,
		"\n\nPack Folder:\n" + it.PackURL,
	}, "\n")

	md := strings.Join([]string{
		"**Caption (copy/paste):**",
		it.Draft.Caption,
		"**Hashtags:**",
		escapeHashtags(hashtags),
		"**Link:**",
		link,
		"**Notes:**",
		notes,
		"**Pack Folder:**",
		it.PackURL,
	}, "\n\n")

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return nil, fmt.Errorf("render notification: %w", err)
	}

	return &domain.Notification{
		Subject:  Subject(it.Type, it.Title),
		Text:     text,
		Markdown: md,
		HTML:     buf.String(),
		Image:    it.CoverFile,
	}, nil
}

// escapeHashtags keeps a leading "#" from being read as a heading.
func escapeHashtags(s string) string {
	if strings.HasPrefix(s, "#") {
		return `\` + s
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
