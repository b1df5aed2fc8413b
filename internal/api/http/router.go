package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mileage-skill/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Skill  *handlers.SkillHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/", cfg.Skill.Root)
	app.Post("/kakao", cfg.Skill.Authenticate)
	app.Post("/points", cfg.Skill.Points)
}
