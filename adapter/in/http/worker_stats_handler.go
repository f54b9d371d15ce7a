package http

import (
	"draft_worker/pkg/metrics"
	"draft_worker/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler reports per-stage pipeline latencies.
type StatsHandler struct {
	registry *metrics.Registry
}

func NewStatsHandler(registry *metrics.Registry) *StatsHandler {
	return &StatsHandler{registry: registry}
}

func (h *StatsHandler) Register(router fiber.Router) {
	router.Get("/stats", h.Stats)
}

func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{"stages": h.registry.All()})
}
