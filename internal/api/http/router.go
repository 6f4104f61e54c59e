package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/data-collector/internal/api/http/handlers"
	"github.com/spec-kit/data-collector/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Page    *handlers.PageHandler
	Search  *handlers.SearchHandler
	History *handlers.HistoryHandler
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Get("/", cfg.Page.Index)

	api := app.Group("/api")
	api.Get("/offers/search", cfg.Search.Search)
	if cfg.History != nil {
		api.Get("/searches/recent", cfg.History.Recent)
	}
}
