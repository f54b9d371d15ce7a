package classification

import (
	"fmt"
	"strings"
	"testing"
)

func TestBodyCore(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no signature", "  hello\nworld  ", "hello\nworld"},
		{"signature", "hello\n--\nJane", "hello"},
		{"signature with trailing space", "hello\r\n-- \r\nJane\r\n", "hello"},
		{"dashes inside a line", "a -- b\nc", "a -- b\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BodyCore(tt.body); got != tt.want {
				t.Errorf("BodyCore() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	text := `See https://example.com/a), also (https://example.com/b.
Dup https://example.com/a and "http://x.io/q?y=1", then https://example.com/a.`

	got := ExtractURLs(text)
	want := []string{"https://example.com/a", "https://example.com/b", "http://x.io/q?y=1"}
	if len(got) != len(want) {
		t.Fatalf("ExtractURLs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("url[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractURLs_Cap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "https://example.com/%d\n", i)
	}
	if got := ExtractURLs(b.String()); len(got) != maxExtractedURLs {
		t.Errorf("len = %d, want %d", len(got), maxExtractedURLs)
	}
}

func TestPrimaryURL(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"none", "no links", ""},
		{"skips junk", "https://mail.proton.me/x https://accounts.google.com/y https://example.com/z", "https://example.com/z"},
		{"skips unsubscribe", "https://news.site/unsubscribe?id=1 https://news.site/story", "https://news.site/story"},
		{"only junk", "https://example.com/privacy", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrimaryURL(tt.text); got != tt.want {
				t.Errorf("PrimaryURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractNotes(t *testing.T) {
	body := "Title: Dune\nA classic worth rereading https://example.com/dune\nnotes: skip me"
	if got := ExtractNotes(body); got != "A classic worth rereading" {
		t.Errorf("ExtractNotes() = %q", got)
	}
}
