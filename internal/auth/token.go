package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "ticket-gate"

// TokenManager issues and validates signed visitor tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlHours int) *TokenManager {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlHours) * time.Hour, now: time.Now}
}

// Claims describes the visitor token payload.
type Claims struct {
	VisitorID string `json:"vid"`
	jwt.RegisteredClaims
}

// IssueVisitor mints a token for a brand new visitor id.
func (tm *TokenManager) IssueVisitor() (string, string, time.Time, error) {
	visitorID := uuid.NewString()
	token, expiresAt, err := tm.GenerateToken(visitorID)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return visitorID, token, expiresAt, nil
}

// GenerateToken builds and signs a token for visitorID.
func (tm *TokenManager) GenerateToken(visitorID string) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		VisitorID: visitorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   visitorID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.VisitorID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
