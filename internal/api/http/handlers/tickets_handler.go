package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-gate/internal/api/dto"
	"github.com/spec-kit/ticket-gate/internal/api/http/view"
	"github.com/spec-kit/ticket-gate/internal/auth"
	"github.com/spec-kit/ticket-gate/internal/domain"
	"github.com/spec-kit/ticket-gate/internal/service"
)

// Entry points used for redirects.
const (
	PathIndex     = "/"
	PathNewTicket = "/tickets/new"
	PathTickets   = "/tickets"
	PathChallenge = "/challenge"
	PathQueue     = "/queue"
	PathStats     = "/stats"
)

// TicketsHandler manages ticket submission and confirmation endpoints.
type TicketsHandler struct {
	service  *service.TicketService
	renderer view.Renderer
	name     string
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, renderer view.Renderer, serviceName string) *TicketsHandler {
	return &TicketsHandler{service: ticketService, renderer: renderer, name: serviceName}
}

// Index GET /.
func (h *TicketsHandler) Index(c *fiber.Ctx) error {
	return h.renderer.Render(c, http.StatusOK, "index", dto.IndexResponse{
		Service: h.name,
		Links: map[string]string{
			"new_ticket": PathNewTicket,
			"queue":      PathQueue,
			"stats":      PathStats,
		},
	})
}

// NewTicketForm GET /tickets/new.
func (h *TicketsHandler) NewTicketForm(c *fiber.Ctx) error {
	return h.renderer.Render(c, http.StatusOK, "new_ticket", dto.NewTicketFormResponse{
		Action:     PathTickets,
		Fields:     []string{"title", "description", "impact", "priority"},
		Priorities: []string{string(domain.TicketPriorityStandard), string(domain.TicketPriorityUrgent)},
	})
}

// Submit POST /tickets.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	visitorID, ok := auth.VisitorIDFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusInternalServerError, "visitor not resolved")
	}

	var req dto.SubmitTicketRequest
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
	} else {
		req = dto.SubmitTicketRequest{
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
			Impact:      c.FormValue("impact"),
			Priority:    c.FormValue("priority"),
		}
	}

	result, err := h.service.Submit(c.UserContext(), visitorID, service.TicketSubmission{
		Title:       req.Title,
		Description: req.Description,
		Impact:      req.Impact,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	if result.RedirectToChallenge {
		return c.Redirect(PathChallenge, http.StatusSeeOther)
	}
	return c.Redirect(ticketPath(result.TicketID), http.StatusSeeOther)
}

// Show GET /tickets/:id. Unknown or malformed ids go back to the index.
func (h *TicketsHandler) Show(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Redirect(PathIndex, http.StatusFound)
	}
	ticket, err := h.service.ResolveTicket(c.UserContext(), id)
	if errors.Is(err, service.ErrTicketNotFound) {
		return c.Redirect(PathIndex, http.StatusFound)
	}
	if err != nil {
		return err
	}
	return h.renderer.Render(c, http.StatusOK, "ticket_success", fiber.Map{"ticket": ticketResponse(ticket)})
}

func ticketPath(id int) string {
	return fmt.Sprintf("%s/%d", PathTickets, id)
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Impact:      ticket.Impact,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		Timestamp:   ticket.Timestamp,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	resp := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, ticketResponse(&tickets[i]))
	}
	return resp
}
