package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>
  Dune   Messiah
</title></head>
<body>
<article>
<h1>Dune Messiah</h1>
<p>The second novel in the series picks up twelve years after the first. It follows the emperor as he grapples with the consequences of his rise to power.</p>
<p>Readers often overlook it, but it reframes everything that came before and sets up the rest of the saga in a way the first book could not.</p>
</article>
</body>
</html>`

func TestTitleFetcher_FetchTitle(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	f := NewTitleFetcher(srv.Client(), "test-agent")

	title, err := f.FetchTitle(context.Background(), srv.URL+"/book")
	if err != nil {
		t.Fatalf("FetchTitle() error = %v", err)
	}
	if title != "Dune Messiah" {
		t.Errorf("FetchTitle() = %q, want %q", title, "Dune Messiah")
	}
	if agent != "test-agent" {
		t.Errorf("User-Agent = %q", agent)
	}

	title, err = f.FetchTitle(context.Background(), srv.URL+"/missing")
	if err != nil || title != "" {
		t.Errorf("FetchTitle(404) = %q, %v; want empty, nil", title, err)
	}
}

func TestTitleFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewTitleFetcher(nil, "").FetchTitle(context.Background(), url); err == nil {
		t.Error("FetchTitle() on a closed server returned nil error")
	}
}
