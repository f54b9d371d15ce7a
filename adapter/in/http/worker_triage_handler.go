package http

import (
	"context"
	"strings"
	"time"

	"draft_worker/core/port/in"
	"draft_worker/pkg/apperr"
	"draft_worker/pkg/logger"
	"draft_worker/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TriageHandler triggers runs and previews classifications.
type TriageHandler struct {
	svc        in.TriageService
	runTimeout time.Duration
}

// NewTriageHandler creates a handler. Background runs are cancelled after runTimeout.
func NewTriageHandler(svc in.TriageService, runTimeout time.Duration) *TriageHandler {
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &TriageHandler{svc: svc, runTimeout: runTimeout}
}

func (h *TriageHandler) Register(router fiber.Router) {
	router.Post("/runs", h.StartRun)
	router.Get("/runs", h.ListRuns)
	router.Post("/classify", h.Classify)
}

// StartRun runs the triage synchronously, or in the background with ?async=true.
func (h *TriageHandler) StartRun(c *fiber.Ctx) error {
	if h.svc.Running() {
		return apperr.ErrRunInProgress
	}

	if c.QueryBool("async", false) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
			defer cancel()
			if _, err := h.svc.Run(ctx); err != nil {
				logger.WithError(err).Error("[TriageHandler.StartRun] background run failed")
			}
		}()
		return response.Accepted(c, fiber.Map{"status": "started"})
	}

	report, err := h.svc.Run(c.UserContext())
	if err != nil {
		if report == nil {
			return err
		}
		// aborted runs still have a stored report
		return apperr.AsAppError(err).WithDetail("run_id", report.ID)
	}
	return response.OK(c, report)
}

// ListRuns returns the latest run reports.
func (h *TriageHandler) ListRuns(c *fiber.Ctx) error {
	limit := response.Limit(c, 10, 100)
	reports, err := h.svc.RecentRuns(c.UserContext(), limit)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeExternalError, "failed to load run reports", fiber.StatusBadGateway)
	}
	return response.OKWithMeta(c, reports, &response.Meta{Total: len(reports), Limit: limit})
}

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Classify previews how a message would be drafted.
func (h *TriageHandler) Classify(c *fiber.Ctx) error {
	var req ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid JSON body")
	}
	if strings.TrimSpace(req.Subject) == "" && strings.TrimSpace(req.Body) == "" {
		return apperr.MissingField("subject")
	}
	return response.OK(c, h.svc.Preview(req.Subject, req.Body))
}
