package mongodb

import (
	"strings"
	"testing"
	"time"

	"draft_worker/core/domain"
)

func sampleReport(items int) *domain.RunReport {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := &domain.RunReport{
		ID:         "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Query:      `label:"MEM" newer_than:48h`,
		Found:      items,
	}
	for i := 0; i < items; i++ {
		r.Add(domain.ItemOutcome{
			ThreadID:    "t" + strings.Repeat("x", i),
			Subject:     "Subject about something worth saving",
			Fingerprint: strings.Repeat("a", 64),
			Status:      domain.ItemDrafted,
		})
	}
	return r
}

func TestDocumentRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		items      int
		compressed bool
	}{
		{"empty", 0, false},
		{"small", 1, false},
		{"large", 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleReport(tt.items)
			doc, err := toDocument(in, 0)
			if err != nil {
				t.Fatalf("toDocument() error = %v", err)
			}
			if doc.IsCompressed != tt.compressed {
				t.Errorf("IsCompressed = %v, want %v", doc.IsCompressed, tt.compressed)
			}
			if doc.ExpiresAt != nil {
				t.Error("ExpiresAt set without retention")
			}

			got, err := toReport(doc)
			if err != nil {
				t.Fatalf("toReport() error = %v", err)
			}
			if got.ID != in.ID || got.Drafted != in.Drafted || len(got.Items) != tt.items {
				t.Errorf("round trip = %+v", got)
			}
			if !got.StartedAt.Equal(in.StartedAt) {
				t.Errorf("StartedAt = %v, want %v", got.StartedAt, in.StartedAt)
			}
		})
	}
}

func TestToDocument_Retention(t *testing.T) {
	in := sampleReport(0)
	doc, err := toDocument(in, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ExpiresAt == nil || !doc.ExpiresAt.Equal(in.StartedAt.Add(24*time.Hour)) {
		t.Errorf("ExpiresAt = %v", doc.ExpiresAt)
	}
}
