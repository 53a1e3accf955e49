// Package session keeps small per-client key/value state on the server. A
// client is identified by an opaque id carried in a signed cookie; the values
// themselves never leave the server.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidCookie = errors.New("invalid session cookie")

// Store persists session values. SetNX must be atomic per session and key:
// when several callers race, all of them observe the first stored value.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	SetNX(ctx context.Context, sessionID, key, value string) (string, error)
	Destroy(ctx context.Context, sessionID string) error
}

// Session is the handle passed explicitly to code that needs session state.
type Session struct {
	id    string
	store Store
}

func New(id string, store Store) *Session {
	return &Session{id: id, store: store}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.id, key)
}

func (s *Session) SetNX(ctx context.Context, key, value string) (string, error) {
	return s.store.SetNX(ctx, s.id, key, value)
}

func (s *Session) Destroy(ctx context.Context) error {
	return s.store.Destroy(ctx, s.id)
}
