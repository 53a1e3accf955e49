// Package csrf issues and verifies the per-session anti-forgery token that
// every mutating API request must echo back.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// SessionKey is where the token lives in session state.
	SessionKey = "csrf"
	tokenBytes = 16
)

// SessionState is the slice of a session the guard needs. SetNX must return
// the value actually stored, which is the existing one if the key was set.
type SessionState interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetNX(ctx context.Context, key, value string) (string, error)
}

type Guard struct {
	random io.Reader
}

func NewGuard() *Guard {
	return &Guard{random: rand.Reader}
}

// Issue returns the session's token, creating it on first use. Concurrent
// first calls for one session all return the same token.
func (g *Guard) Issue(ctx context.Context, sess SessionState) (string, error) {
	token, ok, err := sess.Get(ctx, SessionKey)
	if err != nil {
		return "", fmt.Errorf("read csrf token failed: %w", err)
	}
	if ok && token != "" {
		return token, nil
	}

	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("generate csrf token failed: %w", err)
	}
	stored, err := sess.SetNX(ctx, SessionKey, hex.EncodeToString(buf))
	if err != nil {
		return "", fmt.Errorf("store csrf token failed: %w", err)
	}
	return stored, nil
}

// Verify reports whether candidate matches the session token. A session
// without a token never verifies. Errors come only from session storage.
func (g *Guard) Verify(ctx context.Context, sess SessionState, candidate string) (bool, error) {
	if candidate == "" {
		return false, nil
	}
	token, ok, err := sess.Get(ctx, SessionKey)
	if err != nil {
		return false, fmt.Errorf("read csrf token failed: %w", err)
	}
	if !ok || token == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(candidate)) == 1, nil
}
