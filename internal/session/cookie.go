package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskbox/internal/pkg/jwtutil"
)

// CookieCodec signs session ids into cookie values and verifies them back.
type CookieCodec struct {
	secret string
	ttl    time.Duration
}

func NewCookieCodec(secret string, ttl time.Duration) *CookieCodec {
	return &CookieCodec{secret: secret, ttl: ttl}
}

func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}

func (c *CookieCodec) Encode(sessionID string) (string, error) {
	value, err := jwtutil.GenerateToken(c.secret, c.ttl, sessionID)
	if err != nil {
		return "", fmt.Errorf("encode session cookie failed: %w", err)
	}
	return value, nil
}

// Decode returns the session id in a cookie value, or ErrInvalidCookie when
// the value is tampered with, expired or does not carry a session id.
func (c *CookieCodec) Decode(value string) (string, error) {
	claims, err := jwtutil.ParseToken(c.secret, value)
	if err != nil {
		return "", ErrInvalidCookie
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", ErrInvalidCookie
	}
	return claims.SessionID, nil
}
