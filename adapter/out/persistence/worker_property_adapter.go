// Package persistence provides SQL and Redis adapters for run state and reports.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"draft_worker/core/port/out"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const DefaultPropertyTable = "script_properties"

// PropertyAdapter implements out.PropertyStore on a SQL table. The statements are
// valid for both PostgreSQL and SQLite.
type PropertyAdapter struct {
	db    *sqlx.DB
	table string
	now   func() time.Time
}

var _ out.PropertyStore = (*PropertyAdapter)(nil)

// NewPropertyAdapter creates an adapter over table (DefaultPropertyTable when empty).
func NewPropertyAdapter(db *sqlx.DB, table string) *PropertyAdapter {
	if table == "" {
		table = DefaultPropertyTable
	}
	return &PropertyAdapter{db: db, table: pq.QuoteIdentifier(table), now: time.Now}
}

// EnsureSchema creates the table if it does not exist.
func (a *PropertyAdapter) EnsureSchema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		prop_key   TEXT PRIMARY KEY,
		prop_value TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`, a.table))
	return err
}

// propertyRow represents the database row.
type propertyRow struct {
	Key       string `db:"prop_key"`
	Value     string `db:"prop_value"`
	UpdatedAt int64  `db:"updated_at"`
}

// Get returns the value stored under key.
func (a *PropertyAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidInput
	}

	var row propertyRow
	query := a.db.Rebind(fmt.Sprintf(`SELECT prop_key, prop_value, updated_at FROM %s WHERE prop_key = ?`, a.table))
	err := a.db.GetContext(ctx, &row, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get property %s: %w", key, err)
	}
	return row.Value, true, nil
}

// Set upserts the value for key.
func (a *PropertyAdapter) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidInput
	}

	query := a.db.Rebind(fmt.Sprintf(`INSERT INTO %s (prop_key, prop_value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (prop_key) DO UPDATE SET prop_value = excluded.prop_value, updated_at = excluded.updated_at`, a.table))
	if _, err := a.db.ExecContext(ctx, query, key, value, a.now().UnixMilli()); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

// Ping checks the database connection.
func (a *PropertyAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}
