package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-gate/internal/api/http/handlers"
	"github.com/spec-kit/ticket-gate/internal/auth"
	apperrors "github.com/spec-kit/ticket-gate/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Tickets   *handlers.TicketsHandler
	Challenge *handlers.ChallengeHandler
	Queue     *handlers.QueueHandler
	Visitor   *auth.VisitorMiddleware
}

// RegisterRoutes wires HTTP routes. Only the routes that touch a
// challenge session resolve the visitor cookie.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Get(handlers.PathIndex, cfg.Tickets.Index)
	app.Get(handlers.PathNewTicket, cfg.Tickets.NewTicketForm)
	app.Post(handlers.PathTickets, cfg.Visitor.Handle, cfg.Tickets.Submit)
	app.Get(handlers.PathTickets+"/:id", cfg.Tickets.Show)

	app.Get(handlers.PathChallenge, cfg.Visitor.Handle, cfg.Challenge.Show)
	app.Post(handlers.PathChallenge, cfg.Visitor.Handle, cfg.Challenge.Attempt)

	app.Get(handlers.PathQueue, cfg.Queue.Queue)
	app.Get(handlers.PathStats, cfg.Queue.Stats)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("route", map[string]any{"path": c.Path()})
	})
}
