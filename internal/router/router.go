package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/learning-gap-api/internal/config"
	"github.com/noah-isme/learning-gap-api/internal/handler"
	"github.com/noah-isme/learning-gap-api/internal/middleware"
	"github.com/noah-isme/learning-gap-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	CatalogHandler    *handler.CatalogHandler
	ContentHandler    *handler.ContentHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	ProgressHandler   *handler.ProgressHandler
	SearchHandler     *handler.SearchHandler
	RiskHandler       *handler.RiskHandler
	RosterHandler     *handler.RosterHandler
	HealthProbes      map[string]handler.HealthProbe
	// JWTMiddleware and OptionalJWTMiddleware default to the bearer token
	// middlewares built from cfg.JWTSecret.
	JWTMiddleware         fiber.Handler
	OptionalJWTMiddleware fiber.Handler
	// AuthRateLimit caps register and login attempts per client.
	AuthRateLimit int
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	optionalJWT := deps.OptionalJWTMiddleware
	if optionalJWT == nil {
		optionalJWT = middleware.JWTOptional(cfg.JWTSecret)
	}

	if deps.AuthHandler != nil {
		limit := deps.AuthRateLimit
		if limit <= 0 {
			limit = 20
		}
		deps.AuthHandler.Register(api.Group("/auth"), middleware.RateLimit("auth", limit, time.Minute), jwtMiddleware)
	}

	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(api.Group("/catalog", optionalJWT))
	}

	if deps.ContentHandler != nil {
		deps.ContentHandler.Register(api.Group("/content", optionalJWT))
		deps.ContentHandler.RegisterDownloads(api.Group("/download", optionalJWT))
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.RegisterAssignmentRoutes(assignments)
		}
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submissions", jwtMiddleware))
	}

	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("/progress", jwtMiddleware))
	}

	if deps.SearchHandler != nil {
		deps.SearchHandler.Register(api.Group("/searches", optionalJWT))
	}

	if deps.RiskHandler != nil {
		deps.RiskHandler.Register(api.Group("/risk-predictions", jwtMiddleware))
	}

	if deps.RosterHandler != nil {
		deps.RosterHandler.Register(api.Group("/roster", jwtMiddleware))
	}
}
