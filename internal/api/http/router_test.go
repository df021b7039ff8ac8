package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-gate/internal/api/http/handlers"
	"github.com/spec-kit/ticket-gate/internal/api/http/view"
	"github.com/spec-kit/ticket-gate/internal/auth"
	"github.com/spec-kit/ticket-gate/internal/challenge"
	"github.com/spec-kit/ticket-gate/internal/observability"
	"github.com/spec-kit/ticket-gate/internal/repository"
	"github.com/spec-kit/ticket-gate/internal/service"
	"github.com/spec-kit/ticket-gate/internal/session"
)

type testServer struct {
	app    *fiber.App
	store  *repository.MemoryTicketStore
	cookie string
}

func newTestServer(t *testing.T, deps map[string]handlers.Pinger) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := repository.NewMemoryTicketStore()
	svc := service.NewTicketService(service.TicketDependencies{
		Ledger:   repository.NewTicketLedger(store, logger),
		Sessions: session.NewMemoryStore(0),
		Metrics:  metrics,
		Logger:   logger,
	})
	renderer := view.JSONRenderer{}

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("ticket-gate", "test", deps, metrics),
		Tickets:   handlers.NewTicketsHandler(svc, renderer, "ticket-gate"),
		Challenge: handlers.NewChallengeHandler(svc, renderer),
		Queue:     handlers.NewQueueHandler(svc, renderer),
		Visitor:   auth.NewVisitorMiddleware(auth.NewTokenManager("secret", 1), "visitor", false, logger),
	})
	return &testServer{app: app, store: store}
}

// do sends a request, carrying the visitor cookie like a browser would.
func (s *testServer) do(t *testing.T, method, path string, form url.Values) *nethttp.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test(%s %s) error = %v", method, path, err)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "visitor" {
			s.cookie = c.Name + "=" + c.Value
		}
	}
	return resp
}

func (s *testServer) doJSON(t *testing.T, method, path, body string) *nethttp.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test(%s %s) error = %v", method, path, err)
	}
	return resp
}

type envelope struct {
	View string          `json:"view"`
	Data json.RawMessage `json:"data"`
}

func decode(t *testing.T, resp *nethttp.Response, out any) string {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env.View
}

func expectRedirect(t *testing.T, resp *nethttp.Response, status int, location string) {
	t.Helper()
	if resp.StatusCode != status || resp.Header.Get("Location") != location {
		t.Fatalf("expected %d -> %s, got %d -> %s", status, location, resp.StatusCode, resp.Header.Get("Location"))
	}
}

func gridForm(g challenge.Grid) url.Values {
	form := url.Values{}
	for i, row := range g {
		for j, v := range row {
			form.Set(challenge.CellField(i, j), string(rune('0'+v)))
		}
	}
	return form
}

func TestStandardSubmissionRedirectsToConfirmation(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, "POST", "/tickets", url.Values{"title": {"Laptop"}, "priority": {"standard"}})
	expectRedirect(t, resp, nethttp.StatusSeeOther, "/tickets/1")

	var data struct {
		Ticket struct {
			ID     int    `json:"id"`
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"ticket"`
	}
	if v := decode(t, s.do(t, "GET", "/tickets/1", nil), &data); v != "ticket_success" {
		t.Fatalf("unexpected view %q", v)
	}
	if data.Ticket.ID != 1 || data.Ticket.Title != "Laptop" || data.Ticket.Status != "standard" {
		t.Fatalf("unexpected ticket: %+v", data.Ticket)
	}
}

func TestUnknownTicketRedirectsToIndex(t *testing.T) {
	s := newTestServer(t, nil)
	expectRedirect(t, s.do(t, "GET", "/tickets/99", nil), nethttp.StatusFound, "/")
	expectRedirect(t, s.do(t, "GET", "/tickets/abc", nil), nethttp.StatusFound, "/")
}

func TestChallengeWithoutSessionRedirects(t *testing.T) {
	s := newTestServer(t, nil)
	expectRedirect(t, s.do(t, "GET", "/challenge", nil), nethttp.StatusFound, "/tickets/new")
	expectRedirect(t, s.do(t, "POST", "/challenge", gridForm(challenge.Default.Solution)), nethttp.StatusFound, "/tickets/new")
}

func TestUrgentFlowValidated(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, "POST", "/tickets", url.Values{"title": {"Prod down"}, "priority": {"urgent"}})
	expectRedirect(t, resp, nethttp.StatusSeeOther, "/challenge")

	var ch struct {
		Puzzle   [][]int `json:"puzzle"`
		Attempts int     `json:"attempts"`
	}
	if v := decode(t, s.do(t, "GET", "/challenge", nil), &ch); v != "challenge" {
		t.Fatalf("unexpected view %q", v)
	}
	if ch.Attempts != 3 || len(ch.Puzzle) != 4 || ch.Puzzle[0][3] != 4 {
		t.Fatalf("unexpected challenge: %+v", ch)
	}

	var ok struct {
		TicketID int `json:"ticket_id"`
		Elapsed  int `json:"elapsed"`
	}
	if v := decode(t, s.do(t, "POST", "/challenge", gridForm(challenge.Default.Solution)), &ok); v != "challenge_success" {
		t.Fatalf("unexpected view %q", v)
	}
	if ok.TicketID != 1 || ok.Elapsed < 0 {
		t.Fatalf("unexpected success payload: %+v", ok)
	}

	var q struct {
		Urgent   []struct{ ID int } `json:"urgent_tickets"`
		Standard []struct{ ID int } `json:"standard_tickets"`
	}
	decode(t, s.do(t, "GET", "/queue", nil), &q)
	if len(q.Urgent) != 1 || q.Urgent[0].ID != 1 || len(q.Standard) != 0 {
		t.Fatalf("unexpected queue: %+v", q)
	}
}

func TestUrgentFlowExhausted(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, "POST", "/tickets", url.Values{"priority": {"urgent"}})

	for want := 2; want >= 1; want-- {
		var ch struct {
			Attempts int    `json:"attempts"`
			Error    string `json:"error"`
		}
		if v := decode(t, s.do(t, "POST", "/challenge", url.Values{"cell_0_0": {"x"}}), &ch); v != "challenge" {
			t.Fatalf("unexpected view %q", v)
		}
		if ch.Attempts != want || ch.Error != service.RetryMessage {
			t.Fatalf("unexpected retry payload: %+v", ch)
		}
	}

	var failed struct {
		TicketID int `json:"ticket_id"`
	}
	if v := decode(t, s.do(t, "POST", "/challenge", nil), &failed); v != "challenge_failed" {
		t.Fatalf("unexpected view %q", v)
	}
	if failed.TicketID != 1 {
		t.Fatalf("unexpected ticket id %d", failed.TicketID)
	}

	var stats struct {
		Stats struct {
			Total       int     `json:"total"`
			Downgraded  int     `json:"downgraded"`
			Standard    int     `json:"standard"`
			SuccessRate float64 `json:"success_rate"`
		} `json:"stats"`
	}
	decode(t, s.do(t, "GET", "/stats", nil), &stats)
	if stats.Stats.Total != 1 || stats.Stats.Downgraded != 1 || stats.Stats.Standard != 0 || stats.Stats.SuccessRate != 0 {
		t.Fatalf("unexpected stats: %+v", stats.Stats)
	}
	expectRedirect(t, s.do(t, "GET", "/challenge", nil), nethttp.StatusFound, "/tickets/new")
}

func TestChallengeSessionIsPerVisitor(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, "POST", "/tickets", url.Values{"priority": {"urgent"}})

	stranger := &testServer{app: s.app}
	expectRedirect(t, stranger.do(t, "GET", "/challenge", nil), nethttp.StatusFound, "/tickets/new")
}

func TestJSONSubmission(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest("POST", "/tickets", strings.NewReader(`{"title":"API","priority":"standard"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	expectRedirect(t, resp, nethttp.StatusSeeOther, "/tickets/1")

	bad := httptest.NewRequest("POST", "/tickets", strings.NewReader(`{`))
	bad.Header.Set("Content-Type", "application/json")
	resp, err = s.app.Test(bad, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, "GET", "/nope", nil)
	if resp.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "NOT_FOUND" || body.Error.Message != "route not found" || body.Error.Details["path"] != "/nope" {
		t.Fatalf("unexpected error body: %+v", body.Error)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadinessReportsDependencies(t *testing.T) {
	healthy := newTestServer(t, map[string]handlers.Pinger{
		"redis": pingFunc(func(context.Context) error { return nil }),
	})
	if resp := healthy.do(t, "GET", "/health/ready", nil); resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	broken := newTestServer(t, map[string]handlers.Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("refused") }),
	})
	if resp := broken.do(t, "GET", "/health/ready", nil); resp.StatusCode != nethttp.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestJSONChallengeAttempt(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, "POST", "/tickets", url.Values{"priority": {"urgent"}})

	if resp := s.doJSON(t, "POST", "/challenge", `{"cell_0_0":`); resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var ch struct {
		Attempts int `json:"attempts"`
	}
	decode(t, s.do(t, "GET", "/challenge", nil), &ch)
	if ch.Attempts != 3 {
		t.Fatalf("malformed body must not use an attempt, got %d left", ch.Attempts)
	}

	cells := map[string]any{}
	for i, row := range challenge.Default.Solution {
		for j, v := range row {
			if (i+j)%2 == 0 {
				cells[challenge.CellField(i, j)] = v
			} else {
				cells[challenge.CellField(i, j)] = string(rune('0' + v))
			}
		}
	}
	body, err := json.Marshal(cells)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var ok struct {
		TicketID int `json:"ticket_id"`
	}
	if v := decode(t, s.doJSON(t, "POST", "/challenge", string(body)), &ok); v != "challenge_success" {
		t.Fatalf("unexpected view %q", v)
	}
	if ok.TicketID != 1 {
		t.Fatalf("unexpected ticket id %d", ok.TicketID)
	}
}
