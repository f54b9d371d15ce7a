package dedupe

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"draft_worker/pkg/apperr"

	"github.com/rs/zerolog"
)

type memProps struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	sets   int
}

func newMemProps() *memProps {
	return &memProps{values: map[string]string{}}
}

func (m *memProps) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memProps) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sets++
	m.values[key] = value
	return nil
}

func (m *memProps) Ping(context.Context) error { return m.err }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(props *memProps, now time.Time) *Store {
	return NewStore(props, StoreConfig{Now: func() time.Time { return now }}, zerolog.Nop())
}

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://x.io/a", "https://x.io/a"},
		{"  https://x.io/a  ", "https://x.io/a"},
		{"<https://x.io/a>", "https://x.io/a"},
		{"(https://x.io/a).", "https://x.io/a"},
		{`"https://x.io/a?b=1",`, "https://x.io/a?b=1"},
		{"https://x.io/a!?", "https://x.io/a"},
		{"[ https://x.io/a ]", "https://x.io/a"},
		{"", ""},
		{"...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeLink(tt.in); got != tt.want {
				t.Errorf("NormalizeLink(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("https://x.io/a", "one", "body one")
	if a != Fingerprint("https://x.io/a.", "two", "body two") {
		t.Errorf("same link should give the same fingerprint regardless of subject and body")
	}
	if len(a) != 64 || strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("fingerprint %q is not lowercase SHA-256 hex", a)
	}
	if a == Fingerprint("https://x.io/b", "one", "body one") {
		t.Errorf("different links collide")
	}

	noLink := Fingerprint("", "subject", "body")
	if noLink != Fingerprint("  ", "subject", "body") {
		t.Errorf("blank link should fall back to subject and body")
	}
	if noLink == Fingerprint("", "subject", "other body") {
		t.Errorf("different bodies collide")
	}
	if noLink != digest("subject\nbody") {
		t.Errorf("fallback digest should cover subject + newline + body")
	}
}

func TestStore_Load(t *testing.T) {
	fresh := testNow.Add(-24 * time.Hour).UnixMilli()
	old := testNow.Add(-31 * 24 * time.Hour).UnixMilli()

	tests := []struct {
		name    string
		stored  *string
		wantLen int
	}{
		{"missing key", nil, 0},
		{"empty value", ptr(""), 0},
		{"corrupt json", ptr("{not json"), 0},
		{"array", ptr("[1,2]"), 0},
		{"null", ptr("null"), 0},
		{"mixed", ptr(`{"a":` + itoa(fresh) + `,"b":` + itoa(old) + `,"c":"x","d":1.5}`), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := newMemProps()
			if tt.stored != nil {
				props.values[DefaultStateKey] = *tt.stored
			}
			seen, err := newTestStore(props, testNow).Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if seen == nil {
				t.Fatalf("Load() returned a nil set")
			}
			if len(seen) != tt.wantLen {
				t.Errorf("len = %d, want %d (%v)", len(seen), tt.wantLen, seen)
			}
			if props.sets != 0 {
				t.Errorf("Load() should not write back the purge")
			}
		})
	}
}

func TestStore_LoadBackendError(t *testing.T) {
	props := newMemProps()
	props.err = errors.New("connection refused")

	_, err := newTestStore(props, testNow).Load(context.Background())
	if !apperr.HasCode(err, apperr.CodeStateError) {
		t.Fatalf("Load() error = %v, want STATE_ERROR", err)
	}
}

func TestSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	props := newMemProps()
	store := newTestStore(props, testNow)

	session, err := store.Open(ctx)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	fp := Fingerprint("https://x.io/a", "", "")
	if session.IsDuplicate(fp) {
		t.Fatalf("fresh session reports a duplicate")
	}
	if err := session.RecordProcessed(ctx, fp); err != nil {
		t.Fatalf("RecordProcessed() error = %v", err)
	}
	if !session.IsDuplicate(fp) {
		t.Errorf("IsDuplicate() = false right after RecordProcessed")
	}
	if props.sets != 1 {
		t.Errorf("sets = %d, want 1", props.sets)
	}

	later, err := newTestStore(props, testNow.Add(29*24*time.Hour)).Open(ctx)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !later.IsDuplicate(fp) {
		t.Errorf("fingerprint lost after persist and reload")
	}

	expired, err := newTestStore(props, testNow.Add(31*24*time.Hour)).Open(ctx)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if expired.IsDuplicate(fp) {
		t.Errorf("fingerprint should expire after the retention window")
	}
}

func TestStore_PersistReplaces(t *testing.T) {
	ctx := context.Background()
	props := newMemProps()
	props.values[DefaultStateKey] = `{"old":1}`
	store := newTestStore(props, testNow)

	if err := store.Persist(ctx, SeenSet{"new": 2}); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if got := props.values[DefaultStateKey]; got != `{"new":2}` {
		t.Errorf("stored = %s, want {\"new\":2}", got)
	}

	if err := store.Persist(ctx, nil); err != nil {
		t.Fatalf("Persist(nil) error = %v", err)
	}
	if got := props.values[DefaultStateKey]; got != `{}` {
		t.Errorf("stored = %s, want {}", got)
	}
}

func TestStore_CustomKeyAndRetention(t *testing.T) {
	ctx := context.Background()
	props := newMemProps()
	props.values["custom"] = `{"a":` + itoa(testNow.Add(-2*time.Hour).UnixMilli()) + `}`

	store := NewStore(props, StoreConfig{
		Key:       "custom",
		Retention: time.Hour,
		Now:       func() time.Time { return testNow },
	}, zerolog.Nop())

	seen, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if seen.IsSeen("a") {
		t.Errorf("entry older than a one-hour retention should be purged")
	}
}

func ptr(s string) *string { return &s }

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
