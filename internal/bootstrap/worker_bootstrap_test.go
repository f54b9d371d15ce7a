package bootstrap

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"draft_worker/adapter/in/http"
	"draft_worker/config"
	"draft_worker/core/domain"
	"draft_worker/infra/middleware"
	"draft_worker/pkg/apperr"

	"github.com/rs/zerolog"
)

type stubTriage struct {
	runs    atomic.Int32
	running bool
	err     error
}

func (s *stubTriage) Run(ctx context.Context) (*domain.RunReport, error) {
	s.runs.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.RunReport{ID: "run-1", Items: []domain.ItemOutcome{}}, nil
}

func (s *stubTriage) Preview(subject, body string) *domain.Preview {
	return &domain.Preview{Title: subject}
}

func (s *stubTriage) Running() bool { return s.running }

func (s *stubTriage) RecentRuns(ctx context.Context, limit int) ([]*domain.RunReport, error) {
	return []*domain.RunReport{}, nil
}

func TestNewWorker_InvalidSchedule(t *testing.T) {
	_, err := NewWorker("every now and then", &stubTriage{}, time.Minute, zerolog.Nop())
	if !apperr.HasCode(err, apperr.CodeConfigError) {
		t.Fatalf("NewWorker() error = %v, want CONFIG_ERROR", err)
	}
}

func TestWorker_Tick(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"run in progress", apperr.ErrRunInProgress},
		{"failure", apperr.ExternalError("gmail", context.DeadlineExceeded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubTriage{err: tt.err}
			w, err := NewWorker("@every 1h", svc, time.Second, zerolog.Nop())
			if err != nil {
				t.Fatal(err)
			}
			w.tick()
			if got := svc.runs.Load(); got != 1 {
				t.Errorf("runs = %d, want 1", got)
			}
			w.Start()
			w.Stop()
		})
	}
}

func TestNewAPI_Auth(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDev, JWTSecret: "secret", RunTimeout: time.Minute}
	app := NewAPI(cfg, &stubTriage{}, map[string]http.HealthChecker{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("/health status = %d, want 200", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/runs", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	token, err := middleware.IssueToken("secret", "tester", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("GET", "/api/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}
}

func TestNewAPI_NoSecret(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDev, RunTimeout: time.Minute}
	app := NewAPI(cfg, &stubTriage{}, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/runs", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
