// Package session tracks who is signed in and their profile, and tells the
// UI root whenever that changes.
package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
)

// State is the authentication state of the session context
type State int

const (
	Authenticating State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Context holds the current session and profile. Construct one per process
// and hand it to the UI root.
type Context struct {
	client backend.Client
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	session     *backend.Session
	profile     *models.Profile
	unsubscribe func()

	changes chan struct{}
}

// New creates a context in the Authenticating state
func New(client backend.Client, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Context{
		client:  client,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		state:   Authenticating,
		changes: make(chan struct{}, 1),
	}
}

// Start subscribes to auth changes and then resolves the initial session
func (c *Context) Start(ctx context.Context) {
	unsubscribe := c.client.OnAuthStateChange(c.handle)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	s, err := c.client.GetSession(ctx)
	if err != nil {
		c.logger.Printf("get session: %v", err)
	}
	if s == nil {
		c.signedOut()
		return
	}
	c.restored(s)
}

func (c *Context) handle(event backend.AuthEvent, s *backend.Session) {
	switch event {
	case backend.SignedIn:
		if s != nil {
			c.signedIn(s)
		}
	case backend.SignedOut:
		c.signedOut()
	}
}

// restored adopts a session found at start; the profile is only loaded
func (c *Context) restored(s *backend.Session) {
	c.adopt(s, c.loadProfile)
}

// signedIn adopts a fresh sign-in, creating the profile when missing
func (c *Context) signedIn(s *backend.Session) {
	c.adopt(s, c.ensureProfile)
}

func (c *Context) adopt(s *backend.Session, profileFor func(ctx context.Context, uid string) (*models.Profile, error)) {
	c.mu.Lock()
	c.state = Authenticated
	c.session = s
	c.profile = nil
	c.mu.Unlock()
	c.notify()

	profile, err := profileFor(c.ctx, s.User.ID)
	if err != nil {
		c.logger.Printf("load profile for %s: %v", s.User.ID, err)
		return
	}
	if profile == nil {
		c.logger.Printf("no profile for %s", s.User.ID)
		return
	}

	c.mu.Lock()
	// a sign-out may have raced the load
	if c.session == nil || c.session.User.ID != s.User.ID {
		c.mu.Unlock()
		return
	}
	c.profile = profile
	c.mu.Unlock()
	c.notify()
}

func (c *Context) signedOut() {
	c.mu.Lock()
	c.state = Unauthenticated
	c.session = nil
	c.profile = nil
	c.mu.Unlock()
	c.notify()
}

// loadProfile returns the profile for uid, or nil when there is none
func (c *Context) loadProfile(ctx context.Context, uid string) (*models.Profile, error) {
	rows, err := c.client.Select(ctx, models.TableProfiles, backend.Where(backend.Eq("id", uid)))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	var p models.Profile
	if err := backend.Decode(rows[0], &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ensureProfile loads the profile for uid, inserting a minimal one first if
// none exists
func (c *Context) ensureProfile(ctx context.Context, uid string) (*models.Profile, error) {
	p, err := c.loadProfile(ctx, uid)
	if err != nil || p != nil {
		return p, err
	}

	c.logger.Printf("creating profile for %s", uid)
	row, err := backend.Encode(models.NewProfile{ID: uid})
	if err != nil {
		return nil, err
	}
	if _, err := c.client.Insert(ctx, models.TableProfiles, row); err != nil {
		return nil, err
	}
	p, err = c.loadProfile(ctx, uid)
	if err == nil && p == nil {
		err = backend.ErrNotFound
	}
	return p, err
}

func (c *Context) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Changes signals (coalesced) whenever state, session or profile change
func (c *Context) Changes() <-chan struct{} {
	return c.changes
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the current session, or nil
func (c *Context) Session() *backend.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// User returns the signed-in identity, or nil
func (c *Context) User() *backend.User {
	s := c.Session()
	if s == nil {
		return nil
	}
	return &s.User
}

// Profile returns a copy of the loaded profile, or nil
func (c *Context) Profile() *models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	return &p
}

// SignOut ends the session. A failure is logged and returned; local state is
// cleared through the SIGNED_OUT event either way.
func (c *Context) SignOut(ctx context.Context) error {
	if err := c.client.SignOut(ctx); err != nil {
		c.logger.Printf("sign out: %v", err)
		return err
	}
	return nil
}

// Close unsubscribes from auth changes and cancels any profile load
func (c *Context) Close() {
	c.cancel()
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}
