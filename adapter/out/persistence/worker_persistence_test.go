package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"draft_worker/core/domain"
	"draft_worker/infra/database"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQL(context.Background(), database.DriverSQLite, filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPropertyAdapter(t *testing.T) {
	ctx := context.Background()
	a := NewPropertyAdapter(openSQLite(t), "")
	if err := a.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := a.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() second call error = %v", err)
	}

	if _, ok, err := a.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := a.Set(ctx, "DRAFTS_SEEN_URL_HASHES_V1", `{"a":1}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := a.Set(ctx, "DRAFTS_SEEN_URL_HASHES_V1", `{"a":1,"b":2}`); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, ok, err := a.Get(ctx, "DRAFTS_SEEN_URL_HASHES_V1")
	if err != nil || !ok || got != `{"a":1,"b":2}` {
		t.Errorf("Get() = %q, %v, %v", got, ok, err)
	}

	if err := a.Set(ctx, "", "x"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Set(empty key) error = %v", err)
	}
	if err := a.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestReportAdapter(t *testing.T) {
	ctx := context.Background()
	a := NewReportAdapter(openSQLite(t), "")
	if err := a.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		r := &domain.RunReport{
			ID:         id,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Second),
			Query:      "q",
		}
		r.Add(domain.ItemOutcome{ThreadID: "t-" + id, Status: domain.ItemDrafted})
		if err := a.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	// upsert keeps one row
	again := &domain.RunReport{ID: "r1", StartedAt: base, FinishedAt: base.Add(time.Minute), Error: "boom"}
	if err := a.Save(ctx, again); err != nil {
		t.Fatalf("Save(upsert) error = %v", err)
	}

	recent, err := a.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "r3" || recent[1].ID != "r2" {
		t.Fatalf("Recent(2) ids = %v", ids(recent))
	}
	if recent[0].Drafted != 1 || len(recent[0].Items) != 1 || recent[0].Items[0].ThreadID != "t-r3" {
		t.Errorf("Recent()[0] = %+v", recent[0])
	}
	if !recent[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("StartedAt = %v", recent[0].StartedAt)
	}

	all, err := a.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[2].Error != "boom" || len(all[2].Items) != 0 {
		t.Errorf("Recent(0) = %v, oldest %+v", ids(all), all[len(all)-1])
	}

	if err := a.Save(ctx, &domain.RunReport{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Save(no id) error = %v", err)
	}
}

func ids(reports []*domain.RunReport) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}

func TestRedisPropertyAdapter_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	a := NewRedisPropertyAdapter(client, "")
	if _, _, err := a.Get(context.Background(), "k"); err == nil {
		t.Error("Get() on unreachable redis returned nil error")
	}
	if err := a.Ping(context.Background()); err == nil {
		t.Error("Ping() on unreachable redis returned nil error")
	}
}
