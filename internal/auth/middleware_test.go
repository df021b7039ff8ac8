package auth

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newVisitorApp(tm *TokenManager) *fiber.App {
	app := fiber.New()
	app.Use(NewVisitorMiddleware(tm, "visitor", false, nil).Handle)
	app.Get("/", func(c *fiber.Ctx) error {
		id, _ := VisitorIDFromContext(c)
		return c.SendString(id)
	})
	return app
}

func TestVisitorMiddlewareIssuesCookie(t *testing.T) {
	app := newVisitorApp(NewTokenManager("secret", 1))
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Fatal("expected a visitor id")
	}
	cookies := resp.Cookies()
	if len(cookies) != 1 || cookies[0].Name != "visitor" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
}

func TestVisitorMiddlewareReusesValidCookie(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	token, _, err := tm.GenerateToken("known-visitor")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "visitor="+token)

	resp, err := newVisitorApp(tm).Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "known-visitor" {
		t.Fatalf("expected known-visitor, got %q", body)
	}
	if len(resp.Cookies()) != 0 {
		t.Fatal("no new cookie expected for a valid token")
	}
}

func TestVisitorMiddlewareReplacesForgedCookie(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "visitor=forged")

	resp, err := newVisitorApp(NewTokenManager("secret", 1)).Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) == "" || string(body) == "forged" {
		t.Fatalf("unexpected visitor %q", body)
	}
	if len(resp.Cookies()) != 1 {
		t.Fatal("expected a replacement cookie")
	}
}
