package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-gate/internal/api/dto"
	"github.com/spec-kit/ticket-gate/internal/api/http/view"
	"github.com/spec-kit/ticket-gate/internal/service"
)

// QueueHandler serves the read-side projections.
type QueueHandler struct {
	service  *service.TicketService
	renderer view.Renderer
}

// NewQueueHandler constructs handler.
func NewQueueHandler(ticketService *service.TicketService, renderer view.Renderer) *QueueHandler {
	return &QueueHandler{service: ticketService, renderer: renderer}
}

// Queue GET /queue.
func (h *QueueHandler) Queue(c *fiber.Ctx) error {
	q := h.service.Queue(c.UserContext())
	return h.renderer.Render(c, http.StatusOK, "queue", dto.QueueResponse{
		UrgentTickets:   ticketResponses(q.Urgent),
		StandardTickets: ticketResponses(q.Standard),
	})
}

// Stats GET /stats.
func (h *QueueHandler) Stats(c *fiber.Ctx) error {
	s := h.service.Stats(c.UserContext())
	return h.renderer.Render(c, http.StatusOK, "stats", fiber.Map{"stats": dto.StatsResponse{
		Total:           s.Total,
		UrgentValidated: s.UrgentValidated,
		Downgraded:      s.Downgraded,
		Standard:        s.Standard,
		UrgentRate:      s.UrgentRate,
		SuccessRate:     s.SuccessRate,
	}})
}
