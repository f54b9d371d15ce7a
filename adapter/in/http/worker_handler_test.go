package http

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"draft_worker/core/domain"
	"draft_worker/infra/middleware"
	"draft_worker/pkg/apperr"
	"draft_worker/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

type fakeTriage struct {
	running  atomic.Bool
	runErr   error
	partial  *domain.RunReport
	runs     atomic.Int32
	reports  []*domain.RunReport
	listErr  error
	gotLimit int
}

func (f *fakeTriage) Run(ctx context.Context) (*domain.RunReport, error) {
	f.runs.Add(1)
	if f.runErr != nil {
		return f.partial, f.runErr
	}
	return &domain.RunReport{ID: "run-1", Found: 2, Drafted: 1, Skipped: 1}, nil
}

func (f *fakeTriage) Preview(subject, body string) *domain.Preview {
	return &domain.Preview{
		Classification: domain.Classification{Type: domain.TypeBook, Subject: subject},
		Title:          "Dune",
	}
}

func (f *fakeTriage) Running() bool { return f.running.Load() }

func (f *fakeTriage) RecentRuns(ctx context.Context, limit int) ([]*domain.RunReport, error) {
	f.gotLimit = limit
	return f.reports, f.listErr
}

func newTestApp(svc *fakeTriage) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	NewHealthHandler(map[string]HealthChecker{"state": pingFunc(nil)}).Register(app)
	NewTriageHandler(svc, time.Second).Register(app.Group("/api/v1"))
	return app
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestStartRun(t *testing.T) {
	tests := []struct {
		name    string
		running bool
		runErr  error
		status  int
		code    string
	}{
		{"ok", false, nil, 200, ""},
		{"busy", true, nil, 409, apperr.CodeConflict},
		{"lost race", false, apperr.ErrRunInProgress, 409, apperr.CodeConflict},
		{"search failed", false, apperr.ExternalError("gmail", errors.New("down")), 502, apperr.CodeExternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTriage{runErr: tt.runErr}
			svc.running.Store(tt.running)

			status, body := do(t, newTestApp(svc), "POST", "/api/v1/runs", "")
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, body)
			}
			if tt.code != "" {
				errBody, _ := body["error"].(map[string]any)
				if errBody["code"] != tt.code {
					t.Errorf("code = %v, want %s", errBody["code"], tt.code)
				}
				return
			}
			data, _ := body["data"].(map[string]any)
			if data["id"] != "run-1" || data["drafted"] != float64(1) {
				t.Errorf("data = %v", data)
			}
		})
	}
}

func TestStartRun_AbortedRunCarriesRunID(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", apperr.ExternalError("sheets", errors.New("quota")), 502, apperr.CodeExternalError},
		{"plain error", context.DeadlineExceeded, 500, apperr.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTriage{runErr: tt.err, partial: &domain.RunReport{ID: "run-7"}}
			status, body := do(t, newTestApp(svc), "POST", "/api/v1/runs", "")
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, body)
			}
			errBody, _ := body["error"].(map[string]any)
			if errBody["code"] != tt.code {
				t.Errorf("code = %v, want %s", errBody["code"], tt.code)
			}
			details, _ := errBody["details"].(map[string]any)
			if details["run_id"] != "run-7" {
				t.Errorf("details = %v, want run_id run-7", details)
			}
		})
	}
}

func TestStartRun_Async(t *testing.T) {
	svc := &fakeTriage{}
	status, body := do(t, newTestApp(svc), "POST", "/api/v1/runs?async=true", "")
	if status != 202 || body["success"] != true {
		t.Fatalf("status = %d body = %v", status, body)
	}
	deadline := time.Now().Add(time.Second)
	for svc.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.runs.Load() != 1 {
		t.Errorf("background runs = %d, want 1", svc.runs.Load())
	}
}

func TestListRuns(t *testing.T) {
	svc := &fakeTriage{reports: []*domain.RunReport{{ID: "b"}, {ID: "a"}}}
	app := newTestApp(svc)

	status, body := do(t, app, "GET", "/api/v1/runs?limit=500", "")
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if svc.gotLimit != 100 {
		t.Errorf("limit = %d, want clamp to 100", svc.gotLimit)
	}
	meta, _ := body["meta"].(map[string]any)
	if meta["total"] != float64(2) {
		t.Errorf("meta = %v", meta)
	}

	do(t, app, "GET", "/api/v1/runs", "")
	if svc.gotLimit != 10 {
		t.Errorf("default limit = %d, want 10", svc.gotLimit)
	}

	svc.listErr = errors.New("mongo down")
	if status, _ := do(t, app, "GET", "/api/v1/runs", ""); status != 502 {
		t.Errorf("status on repository error = %d, want 502", status)
	}
}

func TestClassify(t *testing.T) {
	app := newTestApp(&fakeTriage{})

	status, body := do(t, app, "POST", "/api/v1/classify", `{"subject":"[BOOK] Dune","body":"read it"}`)
	if status != 200 {
		t.Fatalf("status = %d body = %v", status, body)
	}
	data, _ := body["data"].(map[string]any)
	cls, _ := data["classification"].(map[string]any)
	if cls["type"] != domain.TypeBook || data["title"] != "Dune" {
		t.Errorf("data = %v", data)
	}

	if status, _ := do(t, app, "POST", "/api/v1/classify", `{"subject":"  "}`); status != 400 {
		t.Errorf("empty message status = %d, want 400", status)
	}
	if status, _ := do(t, app, "POST", "/api/v1/classify", `{not json`); status != 400 {
		t.Errorf("bad json status = %d, want 400", status)
	}
}

func TestReady(t *testing.T) {
	app := fiber.New()
	NewHealthHandler(map[string]HealthChecker{
		"state":   pingFunc(nil),
		"reports": nil,
	}).Register(app)

	status, body := do(t, app, "GET", "/ready", "")
	if status != 200 || body["status"] != "ready" {
		t.Fatalf("status = %d body = %v", status, body)
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["reports"] != "not configured" || checks["state"] != "healthy" {
		t.Errorf("checks = %v", checks)
	}

	app = fiber.New()
	NewHealthHandler(map[string]HealthChecker{
		"state": pingFunc(func(context.Context) error { return errors.New("refused") }),
	}).Register(app)
	if status, _ := do(t, app, "GET", "/ready", ""); status != 503 {
		t.Errorf("unhealthy status = %d, want 503", status)
	}

	if status, body := do(t, app, "GET", "/health", ""); status != 200 || body["status"] != "ok" {
		t.Errorf("health = %d %v", status, body)
	}
}

func TestStats(t *testing.T) {
	registry := metrics.NewRegistry(10)
	registry.Record(metrics.StagePack, 40*time.Millisecond)

	app := fiber.New(fiber.Config{JSONEncoder: json.Marshal, JSONDecoder: json.Unmarshal})
	NewStatsHandler(registry).Register(app)

	status, body := do(t, app, "GET", "/stats", "")
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	data, _ := body["data"].(map[string]any)
	stages, _ := data["stages"].(map[string]any)
	pack, _ := stages[metrics.StagePack].(map[string]any)
	if pack["max_ms"] != float64(40) {
		t.Errorf("pack stats = %v", pack)
	}
}
