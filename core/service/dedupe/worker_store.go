package dedupe

import (
	"context"
	"strconv"
	"strings"
	"time"

	"draft_worker/core/port/out"
	"draft_worker/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	// DefaultStateKey is the property holding the persisted seen set.
	DefaultStateKey = "DRAFTS_SEEN_URL_HASHES_V1"
	// DefaultRetention is how long a fingerprint stays seen.
	DefaultRetention = 30 * 24 * time.Hour
)

// SeenSet maps fingerprints to the epoch milliseconds they were processed at.
type SeenSet map[string]int64

// IsSeen reports whether fp is in the set.
func (s SeenSet) IsSeen(fp string) bool {
	_, ok := s[fp]
	return ok
}

// MarkSeen records fp at now, overwriting any earlier timestamp.
func (s SeenSet) MarkSeen(fp string, now time.Time) {
	s[fp] = now.UnixMilli()
}

// StoreConfig configures a Store. Zero values take the defaults.
type StoreConfig struct {
	Key       string
	Retention time.Duration
	Now       func() time.Time
}

// Store loads and persists the seen set as one JSON object under a single property.
// It assumes a single writer.
type Store struct {
	props     out.PropertyStore
	key       string
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewStore creates a Store over props.
func NewStore(props out.PropertyStore, cfg StoreConfig, log zerolog.Logger) *Store {
	if cfg.Key == "" {
		cfg.Key = DefaultStateKey
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		props:     props,
		key:       cfg.Key,
		retention: cfg.Retention,
		now:       cfg.Now,
		log:       log,
	}
}

// Load reads the seen set and drops entries older than the retention window. The
// purge is not written back. Corrupt state yields an empty set; only backend
// errors are returned.
func (s *Store) Load(ctx context.Context) (SeenSet, error) {
	raw, ok, err := s.props.Get(ctx, s.key)
	if err != nil {
		return nil, apperr.StateError("load seen set", err)
	}
	seen := SeenSet{}
	if !ok || raw == "" {
		return seen, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("seen set is corrupt, starting empty")
		return seen, nil
	}

	cutoff := s.now().Add(-s.retention).UnixMilli()
	dropped := 0
	for fp, v := range entries {
		ts, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil || ts < cutoff {
			dropped++
			continue
		}
		seen[fp] = ts
	}
	if dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Int("kept", len(seen)).Msg("purged seen set")
	}
	return seen, nil
}

// Persist replaces the stored value with the whole set.
func (s *Store) Persist(ctx context.Context, seen SeenSet) error {
	if seen == nil {
		seen = SeenSet{}
	}
	data, err := json.Marshal(seen)
	if err != nil {
		return apperr.StateError("encode seen set", err)
	}
	if err := s.props.Set(ctx, s.key, string(data)); err != nil {
		return apperr.StateError("persist seen set", err)
	}
	return nil
}

// Open loads the seen set into a Session for one run.
func (s *Store) Open(ctx context.Context) (*Session, error) {
	seen, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{store: s, seen: seen}, nil
}

// Session is the load-once, persist-per-item view of the seen set used by one run.
type Session struct {
	store *Store
	seen  SeenSet
}

// IsDuplicate reports whether fp was processed within the retention window.
func (s *Session) IsDuplicate(fp string) bool {
	return s.seen.IsSeen(fp)
}

// RecordProcessed marks fp as processed now and persists the set.
func (s *Session) RecordProcessed(ctx context.Context, fp string) error {
	s.seen.MarkSeen(fp, s.store.now())
	return s.store.Persist(ctx, s.seen)
}

// Len returns the number of fingerprints in the session.
func (s *Session) Len() int {
	return len(s.seen)
}
