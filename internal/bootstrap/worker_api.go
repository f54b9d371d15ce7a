package bootstrap

import (
	"draft_worker/adapter/in/http"
	"draft_worker/config"
	"draft_worker/core/port/in"
	"draft_worker/infra/middleware"
	"draft_worker/pkg/logger"
	"draft_worker/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

// NewAPI builds the admin API over svc. checks are probed by /ready; latency may be nil.
func NewAPI(cfg *config.Config, svc in.TriageService, checks map[string]http.HealthChecker, latency *metrics.Registry) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json: faster drop-in for encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:          1 * 1024 * 1024,
		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())         // 1. Panic recovery
	app.Use(middleware.RequestID())       // 2. Request ID
	app.Use(middleware.SecurityHeaders()) // 3. Security headers
	app.Use(middleware.RequestLogger())   // 4. Request logging

	// Health check (no auth required)
	http.NewHealthHandler(checks).Register(app)

	api := app.Group("/api/v1")
	if cfg.JWTSecret != "" {
		api.Use(middleware.JWTAuth(cfg.JWTSecret))
	} else {
		logger.Warn("API_JWT_SECRET is not set; /api/v1 is unauthenticated")
	}
	http.NewTriageHandler(svc, cfg.RunTimeout).Register(api)
	http.NewStatsHandler(latency).Register(api)

	return app
}
