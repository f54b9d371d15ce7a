package dedupe

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestProperty_FingerprintIgnoresWrapping checks wrapping punctuation and
// whitespace never change a link fingerprint.
func TestProperty_FingerprintIgnoresWrapping(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		link := rapid.StringMatching(`https?://[a-z]{1,10}\.(com|org|io)(/[a-z0-9_-]{1,8}){0,3}`).Draw(rt, "link")
		lead := rapid.StringMatching(`[ <(\[{"']{0,3}`).Draw(rt, "lead")
		trail := rapid.StringMatching(`[ >)\]}"'.,;:!?]{0,3}`).Draw(rt, "trail")

		wrapped := lead + link + trail
		if Fingerprint(wrapped, "a", "b") != Fingerprint(link, "c", "d") {
			rt.Fatalf("Fingerprint(%q) differs from Fingerprint(%q)", wrapped, link)
		}
	})
}

// TestProperty_SeenWithinRetention checks mark, persist and reload against the
// retention boundary.
func TestProperty_SeenWithinRetention(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		props := newMemProps()
		fps := rapid.SliceOfNDistinct(rapid.StringMatching(`[0-9a-f]{8}`), 1, 10, rapid.ID[string]).Draw(rt, "fps")
		ageHours := rapid.IntRange(0, 60*24).Draw(rt, "age_hours")

		session, err := newTestStore(props, testNow).Open(ctx)
		if err != nil {
			rt.Fatalf("Open() error = %v", err)
		}
		for _, fp := range fps {
			if err := session.RecordProcessed(ctx, fp); err != nil {
				rt.Fatalf("RecordProcessed() error = %v", err)
			}
			if !session.IsDuplicate(fp) {
				rt.Fatalf("IsDuplicate(%q) = false before reload", fp)
			}
		}

		age := time.Duration(ageHours) * time.Hour
		reloaded, err := newTestStore(props, testNow.Add(age)).Load(ctx)
		if err != nil {
			rt.Fatalf("Load() error = %v", err)
		}
		want := age <= DefaultRetention
		for _, fp := range fps {
			if reloaded.IsSeen(fp) != want {
				rt.Fatalf("after %v IsSeen(%q) = %v, want %v", age, fp, !want, want)
			}
		}
	})
}
