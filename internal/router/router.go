package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/config"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/handler"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/middleware"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubjectHandler   *handler.SubjectHandler
	RoadmapHandler   *handler.RoadmapHandler
	DashboardHandler *handler.DashboardHandler
	ParentHandler    *handler.ParentHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get(observability.MetricsPath, observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Student surface: subjects, goals, feedback, sessions, roadmaps,
	// dashboard.
	if deps.SubjectHandler != nil {
		student := api.Group("/student", jwtMiddleware, middleware.RequireRole(models.RoleStudent))
		deps.SubjectHandler.Register(student)

		if deps.RoadmapHandler != nil {
			// AI generation is throttled: each call costs a model invocation.
			deps.RoadmapHandler.Register(student, middleware.RateLimit("roadmap_generate", 3, time.Minute))
		}
		if deps.DashboardHandler != nil {
			deps.DashboardHandler.Register(student)
		}
	}

	// Parent surface: dashboard, alert history, preferences.
	if deps.ParentHandler != nil {
		parent := api.Group("/parent", jwtMiddleware, middleware.RequireRole(models.RoleParent))
		deps.ParentHandler.Register(parent)
	}
}
