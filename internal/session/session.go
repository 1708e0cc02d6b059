// Package session holds the ephemeral per-widget-session state: the persona
// in effect, the bounded turn window, and the rolling company-context state.
// It replaces the unbounded in-process conversation map the platform started
// with; the store is injected and capacity-bounded, so it can be shared or
// swapped for Redis in multi-instance deployments.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/smritilabs/chatbot-backend/internal/core"
)

var (
	ErrInvalidConfig = errors.New("invalid session store configuration")
	ErrInvalidDriver = errors.New("invalid session store driver")
	ErrConflict      = errors.New("session version conflict")
	ErrNotFound      = errors.New("session not found")
)

// ChatSession is the serializable state of one embedded-widget conversation.
type ChatSession struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"user_id"`
	OwnerKey  string            `json:"owner_key"`
	Persona   core.Persona      `json:"persona"`
	Turns     []core.Turn       `json:"turns"` // bounded to the summary window
	Context   core.ContextState `json:"context"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int64             `json:"version"` // optimistic locking
}

// Store is the injected session storage abstraction.
type Store interface {
	// Create stores a new session with Version set to 1.
	Create(ctx context.Context, sess *ChatSession) error

	// Get returns the session, or nil (not an error) when absent.
	Get(ctx context.Context, id string) (*ChatSession, error)

	// Update persists a session with optimistic locking: the stored Version
	// must match, and is incremented on success. Returns ErrConflict on a
	// version mismatch and ErrNotFound for an unknown session.
	Update(ctx context.Context, sess *ChatSession) error

	// Delete removes a session by id.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}
