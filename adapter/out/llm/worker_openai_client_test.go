package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"draft_worker/core/port/out"

	"github.com/goccy/go-json"
)

func TestClient_CompleteJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"caption\":\"hi\"}"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL + "/v1/"})
	reply, err := c.CompleteJSON(context.Background(), "write a caption")
	if err != nil {
		t.Fatalf("CompleteJSON() error = %v", err)
	}
	if reply != `{"caption":"hi"}` {
		t.Errorf("reply = %q", reply)
	}
	if got["model"] != DefaultModel {
		t.Errorf("model = %v, want %s", got["model"], DefaultModel)
	}
	format, _ := got["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("response_format = %v", got["response_format"])
	}
}

func TestClient_CompleteJSON_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   out.ProviderErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, out.ProviderErrAuth},
		{"rate limited", http.StatusTooManyRequests, out.ProviderErrRateLimit},
		{"server", http.StatusInternalServerError, out.ProviderErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":{"message":"nope","type":"x"}}`)
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
			_, err := c.CompleteJSON(context.Background(), "p")
			pe, ok := err.(*out.ProviderError)
			if !ok {
				t.Fatalf("error = %T %v, want *out.ProviderError", err, err)
			}
			if pe.Code != tt.code {
				t.Errorf("code = %s, want %s", pe.Code, tt.code)
			}
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(ClientConfig{APIKey: "k"})
	if c.Model() != DefaultModel || c.maxTokens != 1024 || c.temperature != 0.7 {
		t.Errorf("defaults = %s %d %v", c.Model(), c.maxTokens, c.temperature)
	}
	if NewClient(ClientConfig{Model: "gpt-4o"}).Model() != "gpt-4o" {
		t.Error("model override ignored")
	}
}
