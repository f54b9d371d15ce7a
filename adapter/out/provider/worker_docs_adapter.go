package provider

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf16"

	"draft_worker/core/port/out"
	"draft_worker/pkg/resilience"

	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// DocsAdapter implements out.Documents for Google Docs.
type DocsAdapter struct {
	svc *docs.Service
	cb  *resilience.Breaker
}

var _ out.Documents = (*DocsAdapter)(nil)

// NewDocsAdapter creates a Docs adapter authenticated with ts.
func NewDocsAdapter(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*DocsAdapter, error) {
	svc, err := docs.NewService(ctx, ClientOptions(ts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &DocsAdapter{svc: svc, cb: resilience.NewBreaker("docs-api")}, nil
}

// Rewrite replaces the body of docID with paragraphs followed by labelled images.
func (a *DocsAdapter) Rewrite(ctx context.Context, docID string, paragraphs []out.DocParagraph, images []out.DocImage) error {
	var doc *docs.Document
	err := a.cb.Execute("GetDocument", func() error {
		var apiErr error
		doc, apiErr = a.svc.Documents.Get(docID).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return wrapError("docs", err, "failed to get document")
	}

	requests := buildDocRequests(bodyEnd(doc), paragraphs, images)
	err = a.cb.Execute("BatchUpdate", func() error {
		_, apiErr := a.svc.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
			Requests: requests,
		}).Context(ctx).Do()
		return apiErr
	})
	return wrapError("docs", err, "failed to rewrite document")
}

func bodyEnd(doc *docs.Document) int64 {
	if doc.Body == nil || len(doc.Body.Content) == 0 {
		return 1
	}
	return doc.Body.Content[len(doc.Body.Content)-1].EndIndex
}

// buildDocRequests clears a body ending at end and inserts the content at index 1.
// Indexes are UTF-16 code units; an inline image occupies one.
func buildDocRequests(end int64, paragraphs []out.DocParagraph, images []out.DocImage) []*docs.Request {
	var requests []*docs.Request
	if end > 2 {
		requests = append(requests, &docs.Request{
			DeleteContentRange: &docs.DeleteContentRangeRequest{
				Range: &docs.Range{StartIndex: 1, EndIndex: end - 1},
			},
		})
	}

	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text
	}
	body := strings.Join(texts, "\n")
	pos := int64(1)
	if body != "" {
		requests = append(requests, insertText(pos, body))
		pos += utf16Len(body)
	}

	for _, img := range images {
		label := "\n" + img.Label + "\n"
		requests = append(requests, insertText(pos, label))
		pos += utf16Len(label)

		insert := &docs.InsertInlineImageRequest{
			Location: &docs.Location{Index: pos},
			Uri:      img.URI,
		}
		if img.Width > 0 && img.Height > 0 {
			insert.ObjectSize = &docs.Size{
				Width:  &docs.Dimension{Magnitude: img.Width, Unit: "PT"},
				Height: &docs.Dimension{Magnitude: img.Height, Unit: "PT"},
			}
		}
		requests = append(requests, &docs.Request{InsertInlineImage: insert})
		pos++
	}

	if pos == 1 {
		return requests
	}
	requests = append(requests, textStyle(1, pos, false))

	offset := int64(1)
	for _, p := range paragraphs {
		n := utf16Len(p.Text)
		if p.Bold && n > 0 {
			requests = append(requests, textStyle(offset, offset+n, true))
		}
		offset += n + 1
	}
	return requests
}

func insertText(index int64, text string) *docs.Request {
	return &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: index},
			Text:     text,
		},
	}
}

func textStyle(start, end int64, bold bool) *docs.Request {
	return &docs.Request{
		UpdateTextStyle: &docs.UpdateTextStyleRequest{
			Range:     &docs.Range{StartIndex: start, EndIndex: end},
			TextStyle: &docs.TextStyle{Bold: bold, ForceSendFields: []string{"Bold"}},
			Fields:    "bold",
		},
	}
}

func utf16Len(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}
