package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/backend/embedded"
	"github.com/tgienger/pmdash/internal/models"
)

func newTestClient(t *testing.T) *embedded.Client {
	t.Helper()

	db, err := embedded.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := embedded.NewTokens("session-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	client := embedded.NewClient(db, tokens, nil)
	if _, err := client.SignUp(context.Background(), "u@example.com", "secret1", nil); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return client
}

// failingProfiles rejects every profile read
type failingProfiles struct {
	backend.Client
}

func (f failingProfiles) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	if table == models.TableProfiles {
		return nil, backend.NewError(backend.CodeInternal, "profiles unavailable")
	}
	return f.Client.Select(ctx, table, q)
}

func TestStartWithoutSession(t *testing.T) {
	c := New(newTestClient(t), nil)
	defer c.Close()

	if c.State() != Authenticating {
		t.Fatalf("initial state = %s", c.State())
	}
	c.Start(context.Background())
	if c.State() != Unauthenticated {
		t.Fatalf("state = %s, want unauthenticated", c.State())
	}
	if c.User() != nil || c.Profile() != nil {
		t.Fatal("no user or profile expected")
	}
}

func TestSignInCreatesProfileOnce(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c := New(client, nil)
	defer c.Close()
	c.Start(ctx)

	s, err := client.SignInWithPassword(ctx, "u@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if c.State() != Authenticated {
		t.Fatalf("state = %s, want authenticated", c.State())
	}
	if u := c.User(); u == nil || u.ID != s.User.ID {
		t.Fatalf("user = %+v", u)
	}
	p := c.Profile()
	if p == nil || p.ID != s.User.ID {
		t.Fatalf("profile = %+v", p)
	}
	if p.FullName != nil || p.AvatarURL != nil {
		t.Fatalf("minimal profile expected, got %+v", p)
	}

	if err := c.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := client.SignInWithPassword(ctx, "u@example.com", "secret1"); err != nil {
		t.Fatalf("second sign in: %v", err)
	}

	rows, err := client.Select(ctx, models.TableProfiles, backend.Query{})
	if err != nil {
		t.Fatalf("select profiles: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("profiles = %d, want 1", len(rows))
	}
}

func TestSignOutClearsProfile(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c := New(client, nil)
	defer c.Close()
	c.Start(ctx)
	client.SignInWithPassword(ctx, "u@example.com", "secret1")

	if err := c.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if c.State() != Unauthenticated {
		t.Fatalf("state = %s, want unauthenticated", c.State())
	}
	if c.Session() != nil || c.Profile() != nil {
		t.Fatal("session and profile should be cleared")
	}
}

func TestStartWithExistingSession(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	s, err := client.SignInWithPassword(ctx, "u@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	name := "Ada"
	row, err := backend.Encode(models.NewProfile{ID: s.User.ID, FullName: &name})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := client.Insert(ctx, models.TableProfiles, row); err != nil {
		t.Fatalf("insert profile: %v", err)
	}

	c := New(client, nil)
	defer c.Close()
	c.Start(ctx)

	if c.State() != Authenticated {
		t.Fatalf("state = %s, want authenticated", c.State())
	}
	p := c.Profile()
	if p == nil || p.FullName == nil || *p.FullName != name {
		t.Fatalf("profile = %+v, want the stored one", p)
	}
}

func TestRestoredSessionDoesNotCreateProfile(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	if _, err := client.SignInWithPassword(ctx, "u@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	c := New(client, nil)
	defer c.Close()
	c.Start(ctx)

	if c.State() != Authenticated {
		t.Fatalf("state = %s, want authenticated", c.State())
	}
	if c.Profile() != nil {
		t.Fatalf("profile = %+v, want none for a restored session", c.Profile())
	}
	rows, err := client.Select(ctx, models.TableProfiles, backend.Query{})
	if err != nil {
		t.Fatalf("select profiles: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("profiles = %d after restore, want 0", len(rows))
	}

	// a fresh sign-in event is what creates it
	if _, err := client.SignInWithPassword(ctx, "u@example.com", "secret1"); err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if c.Profile() == nil {
		t.Fatal("sign in should create the missing profile")
	}
	rows, err = client.Select(ctx, models.TableProfiles, backend.Query{})
	if err != nil {
		t.Fatalf("select profiles: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("profiles = %d after sign in, want 1", len(rows))
	}
}

func TestProfileFailureKeepsSession(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c := New(failingProfiles{client}, nil)
	defer c.Close()
	c.Start(ctx)

	if _, err := client.SignInWithPassword(ctx, "u@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if c.State() != Authenticated {
		t.Fatalf("state = %s, want authenticated", c.State())
	}
	if c.Profile() != nil {
		t.Fatal("profile should stay empty when loading fails")
	}
}

func TestChangesCoalesce(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c := New(client, nil)
	defer c.Close()
	c.Start(ctx)
	client.SignInWithPassword(ctx, "u@example.com", "secret1")

	select {
	case <-c.Changes():
	default:
		t.Fatal("expected a change notification")
	}
	select {
	case <-c.Changes():
		t.Fatal("notifications should coalesce into one")
	default:
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c := New(client, nil)
	c.Start(ctx)
	c.Close()

	client.SignInWithPassword(ctx, "u@example.com", "secret1")
	if c.State() != Unauthenticated {
		t.Fatalf("state = %s after Close, want unauthenticated", c.State())
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Authenticating:  "authenticating",
		Unauthenticated: "unauthenticated",
		Authenticated:   "authenticated",
		State(9):        "State(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
