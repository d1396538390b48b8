package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/pmdash/internal/backend"
)

func (c *Client) GetSession(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, nil
	}
	if c.session.Expired(c.now()) {
		c.logger.Printf("session for %s expired", c.session.User.Email)
		c.session = nil
		return nil, nil
	}
	s := *c.session
	return &s, nil
}

func (c *Client) OnAuthStateChange(listener backend.AuthListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = listener

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	var tok backend.TokenResponse
	query := url.Values{"grant_type": {"password"}}
	err := c.do(ctx, http.MethodPost, "/auth/v1/token", query, backend.PasswordRequest{Email: email, Password: password}, &tok)
	if err != nil {
		return nil, err
	}

	session := tok.Session()
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.logger.Printf("signed in %s", session.User.Email)
	c.notify(backend.SignedIn, session)

	s := *session
	return &s, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*backend.User, error) {
	var user backend.User
	err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, backend.PasswordRequest{
		Email:    email,
		Password: password,
		Data:     metadata,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut always drops the local session; a failed server call is only logged
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
	if err != nil {
		c.logger.Printf("logout: %v", err)
	}

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	c.notify(backend.SignedOut, nil)
	return err
}

func (c *Client) notify(event backend.AuthEvent, session *backend.Session) {
	c.mu.Lock()
	listeners := make([]backend.AuthListener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		if session != nil {
			s := *session
			l(event, &s)
			continue
		}
		l(event, nil)
	}
}
