package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-gate/internal/api/dto"
	"github.com/spec-kit/ticket-gate/internal/api/http/view"
	"github.com/spec-kit/ticket-gate/internal/auth"
	"github.com/spec-kit/ticket-gate/internal/challenge"
	"github.com/spec-kit/ticket-gate/internal/service"
)

// ChallengeHandler serves the puzzle that gates urgent tickets.
type ChallengeHandler struct {
	service  *service.TicketService
	renderer view.Renderer
}

// NewChallengeHandler constructs handler.
func NewChallengeHandler(ticketService *service.TicketService, renderer view.Renderer) *ChallengeHandler {
	return &ChallengeHandler{service: ticketService, renderer: renderer}
}

// Show GET /challenge.
func (h *ChallengeHandler) Show(c *fiber.Ctx) error {
	visitorID, _ := auth.VisitorIDFromContext(c)
	ch, err := h.service.Challenge(c.UserContext(), visitorID)
	if errors.Is(err, service.ErrNoActiveChallenge) {
		return c.Redirect(PathNewTicket, http.StatusFound)
	}
	if err != nil {
		return err
	}
	return h.renderer.Render(c, http.StatusOK, "challenge", challengeResponse(ch))
}

// Attempt POST /challenge.
func (h *ChallengeHandler) Attempt(c *fiber.Ctx) error {
	visitorID, _ := auth.VisitorIDFromContext(c)
	grid, err := attemptGrid(c)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Attempt(c.UserContext(), visitorID, grid)
	if errors.Is(err, service.ErrNoActiveChallenge) {
		return c.Redirect(PathNewTicket, http.StatusFound)
	}
	if err != nil {
		return err
	}

	switch result.Outcome {
	case service.OutcomeValidated:
		return h.renderer.Render(c, http.StatusOK, "challenge_success", dto.ChallengeSuccessResponse{
			TicketID:       result.TicketID,
			ElapsedSeconds: result.ElapsedSeconds,
		})
	case service.OutcomeExhausted:
		return h.renderer.Render(c, http.StatusOK, "challenge_failed", dto.ChallengeFailedResponse{
			TicketID: result.TicketID,
		})
	default:
		return h.renderer.Render(c, http.StatusOK, "challenge", challengeResponse(result.Challenge))
	}
}

// attemptGrid reads cell_i_j fields from a JSON object or from form values.
// JSON cells may be numbers or strings.
func attemptGrid(c *fiber.Ctx) (challenge.Grid, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return challenge.ParseGrid(func(name string) string { return c.FormValue(name) }), nil
	}
	fields := map[string]any{}
	if err := c.BodyParser(&fields); err != nil {
		return challenge.Grid{}, err
	}
	return challenge.ParseGrid(func(name string) string {
		switch v := fields[name].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return ""
	}), nil
}

func challengeResponse(ch *service.ChallengeView) dto.ChallengeResponse {
	return dto.ChallengeResponse{
		Puzzle:            ch.Puzzle,
		AttemptsRemaining: ch.AttemptsRemaining,
		Error:             ch.Message,
		Action:            PathChallenge,
	}
}
