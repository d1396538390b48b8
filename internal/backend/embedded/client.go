package embedded

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/tgienger/pmdash/internal/backend"
)

// Client is an in-process backend client handle. It keeps the current
// session in memory and scopes every row operation to its user.
type Client struct {
	db     *DB
	tokens *Tokens
	logger *log.Logger

	mu        sync.Mutex
	session   *backend.Session
	listeners map[int]backend.AuthListener
	nextID    int
}

var _ backend.Client = (*Client)(nil)

// NewClient creates a client over db. A nil logger discards output.
func NewClient(db *DB, tokens *Tokens, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		db:        db,
		tokens:    tokens,
		logger:    logger,
		listeners: make(map[int]backend.AuthListener),
	}
}

// GetSession returns the current session, dropping it once expired
func (c *Client) GetSession(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, nil
	}
	if c.session.Expired(c.tokens.now()) {
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
	user, err := c.db.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	session, err := c.tokens.Issue(*user)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.logger.Printf("signed in %s", user.Email)
	c.notify(backend.SignedIn, session)

	s := *session
	return &s, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*backend.User, error) {
	user, err := c.db.CreateUser(ctx, email, password, metadata)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("registered %s", user.Email)
	return user, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	c.notify(backend.SignedOut, nil)
	return nil
}

// notify calls every listener outside the lock so listeners may call back into c
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

// uid is the signed-in user's id, or "" for anonymous access
func (c *Client) uid() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.Expired(c.tokens.now()) {
		return ""
	}
	return c.session.User.ID
}

func (c *Client) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	return c.db.Select(ctx, c.uid(), table, q)
}

func (c *Client) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	return c.db.Insert(ctx, c.uid(), table, row)
}

func (c *Client) Update(ctx context.Context, table string, patch backend.Row, filters ...backend.Filter) (backend.Row, error) {
	return c.db.Update(ctx, c.uid(), table, patch, filters...)
}

func (c *Client) Delete(ctx context.Context, table string, filters ...backend.Filter) error {
	return c.db.Delete(ctx, c.uid(), table, filters...)
}
