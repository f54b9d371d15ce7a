package classification

import (
	"strings"
	"testing"
	"unicode"

	"draft_worker/core/domain"
	"pgregory.net/rapid"
)

var subjectFragments = []string{
	"[BOOK]", "[book]", "[ Political ]", "[POLITICS]", "[DRAFT]", "[STORY]", "[TEST]",
	"[MEM]", "[]", "[", "]", " ", "  ", "\t", "Dune", "rent", "menu", "read", "x",
}

func drawSubject(rt *rapid.T, label string) string {
	parts := rapid.SliceOfN(rapid.SampledFrom(subjectFragments), 0, 12).Draw(rt, label)
	return strings.Join(parts, "")
}

// TestProperty_BookAndPoliticalResolveToPolitical checks that a subject carrying
// both category tags always resolves to POLITICAL.
func TestProperty_BookAndPoliticalResolveToPolitical(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		prefix := drawSubject(rt, "prefix")
		middle := drawSubject(rt, "middle")
		suffix := drawSubject(rt, "suffix")
		bookTag := rapid.SampledFrom([]string{"[BOOK]", "[book]", "[ Books ]"}).Draw(rt, "book")
		polTag := rapid.SampledFrom([]string{"[POLITICAL]", "[politics]", "[ pol ]"}).Draw(rt, "pol")

		subject := prefix + bookTag + middle + polTag + suffix
		if rapid.Bool().Draw(rt, "swap") {
			subject = prefix + polTag + middle + bookTag + suffix
		}

		flags := ParseFlags(subject)
		if !flags.IsPolitical {
			rt.Fatalf("ParseFlags(%q).IsPolitical = false", subject)
		}
		inferred := InferType(StripTags(subject), "", "")
		if got := ResolveEffectiveType(inferred, "", flags); got != domain.TypePolitical {
			rt.Fatalf("resolved type for %q = %q, want POLITICAL", subject, got)
		}
	})
}

// TestProperty_StripTagsLeavesNoTagsOrDoubleSpaces checks StripTags output on
// arbitrary input.
func TestProperty_StripTagsLeavesNoTagsOrDoubleSpaces(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		subject := rapid.OneOf(
			rapid.String(),
			rapid.Custom(func(rt *rapid.T) string { return drawSubject(rt, "subject") }),
		).Draw(rt, "subject")

		got := StripTags(subject)

		if tagPattern.MatchString(got) {
			rt.Fatalf("StripTags(%q) = %q still contains a tag", subject, got)
		}
		if got != strings.TrimSpace(got) {
			rt.Fatalf("StripTags(%q) = %q is not trimmed", subject, got)
		}
		prevSpace := false
		for _, r := range got {
			isSpace := unicode.IsSpace(r)
			if isSpace && prevSpace {
				rt.Fatalf("StripTags(%q) = %q has doubled whitespace", subject, got)
			}
			prevSpace = isSpace
		}
	})
}

// TestProperty_ParseOverridesNeverPanicsAndTrims checks values are always trimmed.
func TestProperty_ParseOverridesNeverPanicsAndTrims(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		body := rapid.String().Draw(rt, "body")
		o := ParseOverrides(body)
		for _, v := range []string{o.Type, o.Title, o.Author, o.Notes} {
			if v != strings.TrimSpace(v) {
				rt.Fatalf("override value %q is not trimmed", v)
			}
		}
	})
}

// TestProperty_InferTypeBookWins checks rule order: book tokens beat restaurant tokens.
func TestProperty_InferTypeBookWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		book := rapid.SampledFrom([]string{"book", "read", "author", "kindle", "goodreads"}).Draw(rt, "book")
		food := rapid.SampledFrom([]string{"restaurant", "cafe", "bar", "menu", "dinner", "brunch"}).Draw(rt, "food")
		filler := rapid.StringMatching(`[a-z ]{0,20}`).Draw(rt, "filler")

		body := filler + " " + food + " " + book + " " + filler
		if got := InferType("", body, ""); got != domain.TypeInferBook {
			rt.Fatalf("InferType(%q) = %q, want Book", body, got)
		}
		if InferType("", body, "") != InferType("", body, "") {
			rt.Fatalf("InferType is not deterministic")
		}
	})
}
