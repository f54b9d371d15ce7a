package out

import (
	"context"

	"draft_worker/core/domain"
)

// FileStore is the cloud drive holding pack folders (Google Drive).
type FileStore interface {
	// EnsureFolder returns the child folder called name under parentID, creating it
	// when absent.
	EnsureFolder(ctx context.Context, parentID, name string) (domain.StoredFile, error)

	// Upload creates a file with the given content in folderID.
	Upload(ctx context.Context, folderID, name, mimeType string, data []byte) (domain.StoredFile, error)

	// Copy copies fileID into folderID under a new name.
	Copy(ctx context.Context, fileID, folderID, name string) (domain.StoredFile, error)

	// Stat returns a not-found ProviderError until fileID is visible.
	Stat(ctx context.Context, fileID string) error

	// ShareWithLink grants anyone-with-link read access and returns a URI that
	// other Google APIs can fetch the content from.
	ShareWithLink(ctx context.Context, fileID string) (string, error)

	// Unshare revokes the access granted by ShareWithLink.
	Unshare(ctx context.Context, fileID string) error
}

// Spreadsheet is the tracking sheet (Google Sheets).
type Spreadsheet interface {
	// HeaderRow returns the first row of the tab, trimmed; empty when the tab is empty.
	HeaderRow(ctx context.Context) ([]string, error)

	// WriteHeaders writes headers into the first row starting at zero-based column.
	WriteHeaders(ctx context.Context, column int, headers []string) error

	// AppendRow appends one row after the last non-empty row.
	AppendRow(ctx context.Context, row []any) error
}

// DocParagraph is one paragraph written into a notes document.
type DocParagraph struct {
	Text string
	Bold bool
}

// DocImage is an inline image appended after the paragraphs.
type DocImage struct {
	Label  string // paragraph written before the image
	URI    string
	Width  float64 // points; 0 keeps the intrinsic size
	Height float64
}

// Documents edits notes documents (Google Docs).
type Documents interface {
	// Rewrite clears the document body and writes paragraphs followed by images.
	Rewrite(ctx context.Context, docID string, paragraphs []DocParagraph, images []DocImage) error
}

// Rect is a placement on a slide in points.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Presentations edits slide decks (Google Slides).
type Presentations interface {
	// PageSize returns the deck's page width and height in points.
	PageSize(ctx context.Context, presentationID string) (width, height float64, err error)

	// ReplaceFirstSlide removes every element of the first slide and places the
	// image at imageURI inside box.
	ReplaceFirstSlide(ctx context.Context, presentationID, imageURI string, box Rect) error
}
