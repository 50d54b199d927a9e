package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-portal/internal/identity"
	"github.com/spec-kit/helpdesk-portal/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Users     *handlers.UsersHandler
	Tickets   *handlers.TicketsHandler
	Directory *handlers.DirectoryHandler
	Resolver  *identity.Resolver
	Hub       *realtime.Hub
}

// RegisterRoutes wires HTTP routes. Identity is resolved once per request;
// routes that require authentication add the Required gate on top.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Use(identity.Middleware(cfg.Resolver))

	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)
	app.Get("/me", identity.Required(), cfg.Users.Me)
	app.Get("/users", identity.Required(), cfg.Users.List)

	app.Get("/directory/users", cfg.Directory.Search)

	app.Post("/tickets", cfg.Tickets.Create)
	app.Get("/tickets", cfg.Tickets.List)
	app.Get("/tickets/:id", cfg.Tickets.Get)
	app.Put("/tickets/:id", identity.Required(), cfg.Tickets.Update)
	app.Get("/tickets/:id/events", identity.Required(), cfg.Tickets.ListEvents)
	app.Post("/tickets/:id/events", identity.Required(), cfg.Tickets.AddEvent)

	// The identity middleware above has already run by upgrade time, so the
	// socket inherits the resolved principal through Locals.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(cfg.Hub.HandleSocket))
}
