package triage

import (
	"context"
	"fmt"
	"strings"

	"draft_worker/core/domain"
)

// StatusDrafted is the IGStatus of every appended row.
const StatusDrafted = "DRAFTED"

// SheetHeaders are the tracking sheet columns, in order.
var SheetHeaders = []string{
	"AddedAt",
	"Type",
	"Title",
	"AuthorOrBrand",
	"Link",
	"Notes",
	"IGCaption",
	"IGHashtags",
	"IGStatus",
	"IGDraftedAt",
	"SourceEmailSubject",
	"PackFolder",
}

// MergeHeaders decides what to write into the header row. An empty row gets every
// header from column 0; otherwise headers missing from existing are placed after
// the last non-empty cell.
func MergeHeaders(existing, want []string) (column int, missing []string) {
	present := make(map[string]bool, len(existing))
	last := -1
	for i, h := range existing {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		present[h] = true
		last = i
	}
	if last < 0 {
		return 0, want
	}
	for _, h := range want {
		if !present[h] {
			missing = append(missing, h)
		}
	}
	return last + 1, missing
}

// HyperlinkFormula returns a sheet formula linking url with label, or "" without a url.
func HyperlinkFormula(url, label string) string {
	if url == "" {
		return ""
	}
	if label == "" {
		label = "Link"
	}
	return fmt.Sprintf(`=HYPERLINK("%s","%s")`, url, label)
}

// SheetRow renders the tracking row of a drafted pack, matching SheetHeaders.
func SheetRow(meta domain.PackMeta, draft domain.DraftContent) []any {
	return []any{
		meta.CreatedAt,
		meta.Type,
		meta.Title,
		meta.AuthorOrBrand,
		meta.Link,
		meta.Notes,
		draft.Caption,
		draft.HashtagLine(),
		StatusDrafted,
		meta.CreatedAt,
		meta.EmailSubject,
		HyperlinkFormula(meta.PackFolderURL, "Pack Folder"),
	}
}

// EnsureHeaders adds any missing tracking headers to the sheet.
func (s *Service) EnsureHeaders(ctx context.Context) error {
	existing, err := s.Sheet.HeaderRow(ctx)
	if err != nil {
		return fmt.Errorf("read sheet headers: %w", err)
	}
	column, missing := MergeHeaders(existing, SheetHeaders)
	if len(missing) == 0 {
		return nil
	}
	if err := s.Sheet.WriteHeaders(ctx, column, missing); err != nil {
		return fmt.Errorf("write sheet headers: %w", err)
	}
	s.log.Info("[Triage.EnsureHeaders] added %d headers at column %d", len(missing), column)
	return nil
}
