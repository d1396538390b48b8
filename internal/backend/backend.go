// Package backend defines the boundary with the managed platform: password
// auth with session-change notifications, and row operations on tables
// protected by row-level security.
package backend

import (
	"context"
	"time"
)

// User is an authenticated identity as issued by the auth service
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Session is a signed-in user together with its access token
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// Expired reports whether the session is no longer usable at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthEvent names a session change
type AuthEvent string

const (
	SignedIn  AuthEvent = "SIGNED_IN"
	SignedOut AuthEvent = "SIGNED_OUT"
)

// AuthListener receives session changes. session is nil on sign-out.
type AuthListener func(event AuthEvent, session *Session)

// Auth is the managed authentication surface
type Auth interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)
	// OnAuthStateChange registers a listener and returns its unsubscribe func.
	OnAuthStateChange(listener AuthListener) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*User, error)
	SignOut(ctx context.Context) error
}

// DataStore is the row surface of the managed relational store
type DataStore interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	// Insert returns the canonical stored row.
	Insert(ctx context.Context, table string, row Row) (Row, error)
	// Update applies patch to the single row matching filters and returns it.
	Update(ctx context.Context, table string, patch Row, filters ...Filter) (Row, error)
	Delete(ctx context.Context, table string, filters ...Filter) error
}

// Client is a configured handle to the platform
type Client interface {
	Auth
	DataStore
}
