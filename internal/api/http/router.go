package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exeat-service/internal/api/http/handlers"
	"github.com/spec-kit/exeat-service/internal/auth"
	"github.com/spec-kit/exeat-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Houses         *handlers.HousesHandler
	Requests       *handlers.RequestsHandler
	Students       *handlers.StudentsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group("/api")

	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	api.Post("/auth/login", cfg.Auth.Login)
	api.Get("/houses", cfg.Houses.List)

	approvers := auth.RequireRole(domain.RoleHousemaster, domain.RoleHeadmaster)
	headmasterOnly := auth.RequireRole(domain.RoleHeadmaster)
	studentOnly := auth.RequireRole(domain.RoleStudent)

	requests := api.Group("/requests", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	// Static paths before :id so "export" and "batch" are not captured.
	requests.Get("/export", cfg.Requests.Export)
	requests.Get("/stats/overview", cfg.Requests.StatsOverview)
	requests.Get("/stats/houses", headmasterOnly, cfg.Requests.StatsHouses)
	requests.Post("/batch/approve", approvers, cfg.Requests.BatchApprove)
	requests.Get("/", cfg.Requests.List)
	requests.Post("/", studentOnly, cfg.Requests.Create)
	requests.Get("/:id/pass", cfg.Requests.Pass)
	requests.Post("/:id/cancel", studentOnly, cfg.Requests.Cancel)
	requests.Post("/:id/approve", approvers, cfg.Requests.Approve)
	requests.Post("/:id/reject", approvers, cfg.Requests.Reject)
	requests.Post("/:id/notes", approvers, cfg.Requests.AddNote)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Put("/:id", studentOnly, cfg.Requests.Update)

	students := api.Group("/users/students", cfg.AuthMiddleware.Handle, approvers)
	students.Get("/", cfg.Students.List)
	students.Post("/", cfg.Students.Create)
	students.Put("/:id/reactivate", headmasterOnly, cfg.Students.Reactivate)
	students.Post("/:id/reset-password", cfg.Students.ResetPassword)
	students.Put("/:id", cfg.Students.Update)
	students.Delete("/:id", cfg.Students.Remove)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, headmasterOnly)
	admin.Get("/audit-logs", cfg.Admin.AuditLogs)
	admin.Get("/audit-logs/stats", cfg.Admin.AuditStats)
	admin.Get("/settings", cfg.Admin.Settings)
	admin.Put("/settings/:key", cfg.Admin.UpdateSetting)
	admin.Get("/users", cfg.Admin.Users)
	admin.Put("/users/:id/toggle-active", cfg.Admin.ToggleUserActive)
	admin.Get("/analytics/comprehensive", cfg.Admin.Analytics)
	admin.Post("/2fa/setup", cfg.Auth.TwoFactorSetup)
	admin.Post("/2fa/verify", cfg.Auth.TwoFactorVerify)
	admin.Post("/2fa/disable", cfg.Auth.TwoFactorDisable)
}
