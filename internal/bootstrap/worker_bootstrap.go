package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"draft_worker/core/port/in"
	"draft_worker/pkg/apperr"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Worker triggers triage runs on a cron schedule.
type Worker struct {
	cron    *cron.Cron
	svc     in.TriageService
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	zlog    zerolog.Logger
}

// NewWorker schedules svc.Run at spec, a cron expression or descriptor such as
// "@every 15m". Each run is bounded by timeout when it is positive.
func NewWorker(spec string, svc in.TriageService, timeout time.Duration, zlog zerolog.Logger) (*Worker, error) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		svc:     svc,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		zlog:    zlog,
	}
	if _, err := w.cron.AddFunc(spec, w.tick); err != nil {
		cancel()
		return nil, apperr.ConfigError(fmt.Sprintf("SCHEDULE %q: %v", spec, err))
	}
	return w, nil
}

// Start begins scheduling. It does not block.
func (w *Worker) Start() {
	w.cron.Start()
	entries := w.cron.Entries()
	if len(entries) > 0 {
		w.zlog.Info().Time("next_run", entries[0].Next).Msg("scheduler started")
	}
}

// Stop halts scheduling, cancels an in-flight run and waits for it to return.
func (w *Worker) Stop() {
	stopped := w.cron.Stop()
	w.cancel()
	<-stopped.Done()
	w.wg.Wait()
	w.zlog.Info().Msg("scheduler stopped")
}

func (w *Worker) tick() {
	w.wg.Add(1)
	defer w.wg.Done()

	ctx := w.ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	report, err := w.svc.Run(ctx)
	switch {
	case apperr.HasCode(err, apperr.CodeConflict):
		w.zlog.Info().Msg("scheduled run skipped: a run is already in progress")
	case err != nil:
		w.zlog.Error().Err(err).Msg("scheduled run failed")
	default:
		w.zlog.Info().
			Str("run_id", report.ID).
			Int("drafted", report.Drafted).
			Int("failed", report.Failed).
			Msg("scheduled run finished")
	}
}
