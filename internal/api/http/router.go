package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/http/handlers"
	"github.com/spec-kit/membership-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Membership     *handlers.MembershipHandler
	Presence       *handlers.PresenceHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	memberships := protected.Group("/memberships")
	memberships.Post("/apply", cfg.Membership.Apply)
	memberships.Get("/me", cfg.Membership.Me)
	memberships.Get("/me/history", cfg.Membership.MyHistory)

	protected.Get("/authorization/me", cfg.Membership.Authorization)

	presenceGroup := protected.Group("/presence")
	presenceGroup.Post("/heartbeat", cfg.Presence.Heartbeat)
	presenceGroup.Post("/signoff", cfg.Presence.SignOff)

	admin := protected.Group("/admin", auth.RequireAdminTier())
	admin.Get("/memberships", cfg.Admin.List)
	admin.Post("/memberships/:id/approve", cfg.Admin.Approve)
	admin.Post("/memberships/:id/reject", cfg.Admin.Reject)
	admin.Post("/memberships/:id/inactive", cfg.Admin.SetInactive)
	admin.Post("/memberships/:id/remove", cfg.Admin.Remove)
	admin.Post("/memberships/:id/restore", cfg.Admin.Restore)
	admin.Post("/memberships/:id/reset-cooldown", cfg.Admin.ResetCooldown)
	admin.Get("/memberships/person/:personId/history", cfg.Admin.PersonHistory)
	admin.Get("/persons", cfg.Admin.ListPersons)
	admin.Delete("/persons/:id", cfg.Admin.DeletePerson)
	admin.Post("/persons/:id/restore", cfg.Admin.RestorePerson)
	admin.Get("/presence/counts", cfg.Presence.Counts)
}
