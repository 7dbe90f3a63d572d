package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/api/http/handlers"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Bookings       *handlers.BookingsHandler
	Slots          *handlers.SlotsHandler
	Payments       *handlers.PaymentsHandler
	Fines          *handlers.FinesHandler
	Notifications  *handlers.NotificationsHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	users := protected.Group("/users")
	users.Get("/me", cfg.Users.GetProfile)
	users.Put("/me", cfg.Users.UpdateProfile)
	users.Get("/me/stats", cfg.Stats.Mine)

	slots := protected.Group("/slots")
	slots.Get("/", cfg.Slots.List)
	slots.Get("/status", cfg.Slots.ListWithStatus)
	slots.Get("/available", cfg.Slots.ListAvailable)
	slots.Get("/:id", cfg.Slots.Get)
	slots.Get("/:id/current-booking", cfg.Slots.CurrentBooking)

	bookings := protected.Group("/bookings")
	bookings.Post("/check-availability", cfg.Bookings.CheckAvailability)
	bookings.Post("/", cfg.Bookings.Create)
	bookings.Get("/", cfg.Bookings.List)
	bookings.Get("/:id", cfg.Bookings.Get)
	bookings.Get("/:id/check-extension", cfg.Bookings.CheckExtension)
	bookings.Post("/:id/extend", cfg.Bookings.Extend)
	bookings.Post("/:id/cancel", cfg.Bookings.Cancel)
	bookings.Get("/:id/payments", cfg.Payments.ListForBooking)

	protected.Post("/payments", cfg.Payments.Process)

	notifications := protected.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	fines := protected.Group("/fines")
	fines.Get("/", cfg.Fines.ListMine)
	fines.Post("/:id/pay", cfg.Fines.Pay)
	fines.Post("/:id/dispute", cfg.Fines.Dispute)

	staff := protected.Group("/staff", auth.RequireStaff())
	staff.Post("/fines", cfg.Fines.Issue)
	staff.Get("/fines", cfg.Fines.ListAll)
	staff.Get("/fines/:id", cfg.Fines.Get)
	staff.Post("/fines/:id/cancel", cfg.Fines.Cancel)
	staff.Get("/payments/:id", cfg.Payments.Get)
	staff.Post("/payments/:id/confirm", cfg.Payments.Confirm)

	admin := protected.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Post("/slots", cfg.Slots.Create)
	admin.Put("/slots/:id", cfg.Slots.Update)
	admin.Delete("/slots/:id", cfg.Slots.Delete)
	admin.Get("/bookings", cfg.Bookings.ListAll)
	admin.Get("/bookings/expiring", cfg.Bookings.ListExpiring)
	admin.Post("/bookings/:id/complete", cfg.Bookings.Complete)
	admin.Post("/payments/:id/refund", cfg.Payments.Refund)
	admin.Get("/stats/dashboard", cfg.Stats.Dashboard)
	admin.Get("/stats/revenue", cfg.Stats.Revenue)
}
