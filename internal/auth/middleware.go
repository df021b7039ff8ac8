package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const visitorKey = "visitor_id"

// VisitorMiddleware gives every caller a stable visitor id carried in a
// signed cookie. Challenge sessions are keyed by that id.
type VisitorMiddleware struct {
	tokens     *TokenManager
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// NewVisitorMiddleware constructs middleware.
func NewVisitorMiddleware(tokens *TokenManager, cookieName string, secure bool, logger *zap.Logger) *VisitorMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitorMiddleware{tokens: tokens, cookieName: cookieName, secure: secure, logger: logger}
}

// Handle resolves the visitor from the cookie, issuing a new one when the
// cookie is absent, expired or forged.
func (m *VisitorMiddleware) Handle(c *fiber.Ctx) error {
	if raw := c.Cookies(m.cookieName); raw != "" {
		claims, err := m.tokens.ParseToken(raw)
		if err == nil {
			c.Locals(visitorKey, claims.VisitorID)
			return c.Next()
		}
		m.logger.Debug("discarding visitor cookie", zap.Error(err))
	}

	visitorID, token, expiresAt, err := m.tokens.IssueVisitor()
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(visitorKey, visitorID)
	return c.Next()
}

// VisitorIDFromContext retrieves the visitor id set by the middleware.
func VisitorIDFromContext(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(visitorKey).(string)
	return id, ok && id != ""
}
