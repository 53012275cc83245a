package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ankita19Rathore/QUEUEASE/internal/api/http/handlers"
	"github.com/Ankita19Rathore/QUEUEASE/internal/auth"
	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tokens         *handlers.TokensHandler
	Doctor         *handlers.DoctorHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	tokens := api.Group("/tokens")
	tokens.Get("/status", cfg.Tokens.QueueStatus)
	tokens.Post("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RolePatient), cfg.Tokens.Generate)
	tokens.Get("/mine", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RolePatient), cfg.Tokens.MyToken)

	doctor := api.Group("/doctor", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleDoctor))
	doctor.Get("/dashboard", cfg.Doctor.Dashboard)
	doctor.Post("/complete", cfg.Doctor.Complete)
	doctor.Post("/pause", cfg.Doctor.TogglePause)
	doctor.Put("/config", cfg.Doctor.UpdateConfig)
}
