package persistence

import (
	"context"
	"fmt"
	"time"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const DefaultReportTable = "triage_runs"

// ReportAdapter implements out.ReportRepository on a SQL table.
type ReportAdapter struct {
	db    *sqlx.DB
	table string
}

var _ out.ReportRepository = (*ReportAdapter)(nil)

// NewReportAdapter creates an adapter over table (DefaultReportTable when empty).
func NewReportAdapter(db *sqlx.DB, table string) *ReportAdapter {
	if table == "" {
		table = DefaultReportTable
	}
	return &ReportAdapter{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the table if it does not exist.
func (a *ReportAdapter) EnsureSchema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id          TEXT PRIMARY KEY,
		started_at  BIGINT NOT NULL,
		finished_at BIGINT NOT NULL,
		query       TEXT NOT NULL,
		found       INTEGER NOT NULL,
		drafted     INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		failed      INTEGER NOT NULL,
		error       TEXT NOT NULL,
		items       TEXT NOT NULL
	)`, a.table))
	return err
}

// reportRow represents the database row. Times are Unix milliseconds.
type reportRow struct {
	ID         string `db:"id"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
	Query      string `db:"query"`
	Found      int    `db:"found"`
	Drafted    int    `db:"drafted"`
	Skipped    int    `db:"skipped"`
	Failed     int    `db:"failed"`
	Error      string `db:"error"`
	Items      string `db:"items"`
}

func (r *reportRow) toEntity() (*domain.RunReport, error) {
	report := &domain.RunReport{
		ID:         r.ID,
		StartedAt:  time.UnixMilli(r.StartedAt).UTC(),
		FinishedAt: time.UnixMilli(r.FinishedAt).UTC(),
		Query:      r.Query,
		Found:      r.Found,
		Drafted:    r.Drafted,
		Skipped:    r.Skipped,
		Failed:     r.Failed,
		Error:      r.Error,
		Items:      []domain.ItemOutcome{},
	}
	if r.Items != "" {
		if err := json.Unmarshal([]byte(r.Items), &report.Items); err != nil {
			return nil, fmt.Errorf("decode items of run %s: %w", r.ID, err)
		}
	}
	return report, nil
}

// Save upserts a report by ID.
func (a *ReportAdapter) Save(ctx context.Context, report *domain.RunReport) error {
	if report == nil || report.ID == "" {
		return ErrInvalidInput
	}
	items := report.Items
	if items == nil {
		items = []domain.ItemOutcome{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	row := reportRow{
		ID:         report.ID,
		StartedAt:  report.StartedAt.UnixMilli(),
		FinishedAt: report.FinishedAt.UnixMilli(),
		Query:      report.Query,
		Found:      report.Found,
		Drafted:    report.Drafted,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Error:      report.Error,
		Items:      string(data),
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, started_at, finished_at, query, found, drafted, skipped, failed, error, items)
		VALUES (:id, :started_at, :finished_at, :query, :found, :drafted, :skipped, :failed, :error, :items)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = excluded.finished_at,
			found = excluded.found,
			drafted = excluded.drafted,
			skipped = excluded.skipped,
			failed = excluded.failed,
			error = excluded.error,
			items = excluded.items`, a.table)
	if _, err := a.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("save run %s: %w", report.ID, err)
	}
	return nil
}

// Recent returns up to limit reports, newest first.
func (a *ReportAdapter) Recent(ctx context.Context, limit int) ([]*domain.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []reportRow
	query := a.db.Rebind(fmt.Sprintf(`SELECT id, started_at, finished_at, query, found, drafted, skipped, failed, error, items
		FROM %s ORDER BY started_at DESC LIMIT ?`, a.table))
	if err := a.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	reports := make([]*domain.RunReport, 0, len(rows))
	for i := range rows {
		report, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
