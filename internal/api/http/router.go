package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-auth-service/internal/api/http/handlers"
	"github.com/spec-kit/portal-auth-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Diagnostic     *handlers.DiagnosticHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/login", cfg.Auth.Login)
	app.Post("/refresh", cfg.Auth.Refresh)
	app.Post("/exchange", cfg.Diagnostic.Exchange)
	app.Get("/diagnostic-info", cfg.Diagnostic.Info)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Get("/me", cfg.Auth.Me)

	staffOnly := protected.Group("", auth.RequireStaff())
	staffOnly.Get("/users", cfg.Users.List)
	staffOnly.Post("/diagnostic-login", cfg.Diagnostic.Login)
}
