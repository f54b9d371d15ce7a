// Package web reads titles from the pages linked in intake messages.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"strings"

	"draft_worker/core/port/out"
	"draft_worker/pkg/httputil"

	readability "github.com/go-shiori/go-readability"
)

const (
	maxPageBytes     = 2 << 20
	defaultUserAgent = "Mozilla/5.0 (compatible; draft-worker/1.0)"
)

// TitleFetcher fetches a page and extracts its title with readability.
type TitleFetcher struct {
	client    *http.Client
	userAgent string
}

var _ out.TitleFetcher = (*TitleFetcher)(nil)

// NewTitleFetcher creates a fetcher. A nil client uses the pooled web client.
func NewTitleFetcher(client *http.Client, userAgent string) *TitleFetcher {
	if client == nil {
		client = httputil.NewClient(httputil.WebClientConfig())
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &TitleFetcher{client: client, userAgent: userAgent}
}

// FetchTitle returns the title of the page at url. Pages that do not answer 200 have
// no title and are not an error.
func (f *TitleFetcher) FetchTitle(ctx context.Context, url string) (string, error) {
	pageURL, err := nurl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("extracting title from %s: %w", url, err)
	}
	return strings.Join(strings.Fields(article.Title), " "), nil
}
