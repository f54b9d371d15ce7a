package mongodb

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// =============================================================================
// MongoDB Report Adapter
// =============================================================================

const (
	collectionRuns = "triage_runs"

	// Item lists larger than this are stored gzipped.
	itemsCompressionThreshold = 512
)

// ReportAdapter implements out.ReportRepository using MongoDB.
type ReportAdapter struct {
	collection *mongo.Collection
	retention  time.Duration
}

var _ out.ReportRepository = (*ReportAdapter)(nil)

// NewReportAdapter creates a report adapter. Reports expire after retention; zero
// keeps them forever.
func NewReportAdapter(db *mongo.Database, retention time.Duration) *ReportAdapter {
	return &ReportAdapter{
		collection: db.Collection(collectionRuns),
		retention:  retention,
	}
}

// EnsureIndexes creates the collection indexes.
func (a *ReportAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "started_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

type runDocument struct {
	ID         string    `bson:"id"`
	StartedAt  time.Time `bson:"started_at"`
	FinishedAt time.Time `bson:"finished_at"`
	Query      string    `bson:"query"`
	Found      int       `bson:"found"`
	Drafted    int       `bson:"drafted"`
	Skipped    int       `bson:"skipped"`
	Failed     int       `bson:"failed"`
	Error      string    `bson:"error,omitempty"`

	// Items as JSON, gzipped above the threshold
	Items        []byte `bson:"items"`
	IsCompressed bool   `bson:"is_compressed"`
	OriginalSize int64  `bson:"original_size"`

	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// =============================================================================
// Operations
// =============================================================================

// Save upserts a report by ID.
func (a *ReportAdapter) Save(ctx context.Context, report *domain.RunReport) error {
	doc, err := toDocument(report, a.retention)
	if err != nil {
		return fmt.Errorf("failed to convert report to document: %w", err)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := a.collection.ReplaceOne(ctx, bson.M{"id": report.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Recent returns up to limit reports, newest first.
func (a *ReportAdapter) Recent(ctx context.Context, limit int) ([]*domain.RunReport, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := a.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := []*domain.RunReport{}
	for cursor.Next(ctx) {
		var doc runDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		report, err := toReport(&doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, cursor.Err()
}

// =============================================================================
// Conversion Helpers
// =============================================================================

func toDocument(r *domain.RunReport, retention time.Duration) (*runDocument, error) {
	items := r.Items
	if items == nil {
		items = []domain.ItemOutcome{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}

	doc := &runDocument{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Query:        r.Query,
		Found:        r.Found,
		Drafted:      r.Drafted,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
		Error:        r.Error,
		Items:        data,
		OriginalSize: int64(len(data)),
	}
	if len(data) > itemsCompressionThreshold {
		compressed, err := compress(data)
		if err != nil {
			return nil, fmt.Errorf("failed to compress items: %w", err)
		}
		doc.Items = compressed
		doc.IsCompressed = true
	}
	if retention > 0 {
		expires := r.StartedAt.Add(retention)
		doc.ExpiresAt = &expires
	}
	return doc, nil
}

func toReport(doc *runDocument) (*domain.RunReport, error) {
	data := doc.Items
	if doc.IsCompressed {
		var err error
		if data, err = decompress(data); err != nil {
			return nil, fmt.Errorf("failed to decompress items: %w", err)
		}
	}

	r := &domain.RunReport{
		ID:         doc.ID,
		StartedAt:  doc.StartedAt,
		FinishedAt: doc.FinishedAt,
		Query:      doc.Query,
		Found:      doc.Found,
		Drafted:    doc.Drafted,
		Skipped:    doc.Skipped,
		Failed:     doc.Failed,
		Error:      doc.Error,
		Items:      []domain.ItemOutcome{},
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
	}
	return r, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
