package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"draft_worker/core/port/out"

	"github.com/rs/zerolog"
)

// DefaultTitleTTL is how long a fetched title is reused.
const DefaultTitleTTL = 7 * 24 * time.Hour

// StringCache is the cache a CachedTitleFetcher reads through.
type StringCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedTitleFetcher remembers page titles so re-sent links are not fetched again.
// Empty titles are not cached. Cache failures fall through to the fetcher.
type CachedTitleFetcher struct {
	next  out.TitleFetcher
	cache StringCache
	ttl   time.Duration
	log   zerolog.Logger
}

var _ out.TitleFetcher = (*CachedTitleFetcher)(nil)

func NewCachedTitleFetcher(next out.TitleFetcher, cache StringCache, ttl time.Duration, log zerolog.Logger) *CachedTitleFetcher {
	if ttl <= 0 {
		ttl = DefaultTitleTTL
	}
	return &CachedTitleFetcher{next: next, cache: cache, ttl: ttl, log: log}
}

func (f *CachedTitleFetcher) FetchTitle(ctx context.Context, url string) (string, error) {
	key := titleKey(url)
	if title, ok, err := f.cache.Get(ctx, key); err != nil {
		f.log.Debug().Err(err).Msg("title cache read failed")
	} else if ok {
		return title, nil
	}

	title, err := f.next.FetchTitle(ctx, url)
	if err != nil || title == "" {
		return title, err
	}
	if err := f.cache.Set(ctx, key, title, f.ttl); err != nil {
		f.log.Debug().Err(err).Msg("title cache write failed")
	}
	return title, nil
}

func titleKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:16])
}
