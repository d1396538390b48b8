package embedded

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tgienger/pmdash/internal/backend"
	"github.com/tgienger/pmdash/internal/models"
)

func newTestClient(t *testing.T) (*Client, *Tokens) {
	t.Helper()

	tokens, err := NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	return NewClient(newTestDB(t), tokens, nil), tokens
}

func TestTokensRoundTrip(t *testing.T) {
	tokens, err := NewTokens("s3cret", time.Minute)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return now }

	session, err := tokens.Issue(backend.User{ID: "u1", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !session.ExpiresAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("expires at %v", session.ExpiresAt)
	}

	claims, err := tokens.Verify(session.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "u@example.com" {
		t.Fatalf("claims = %+v", claims)
	}

	now = now.Add(2 * time.Minute)
	if _, err := tokens.Verify(session.AccessToken); !errors.Is(err, backend.ErrNotAuthenticated) {
		t.Fatalf("expired token error = %v", err)
	}

	other, _ := NewTokens("other", time.Minute)
	other.now = tokens.now
	if _, err := other.Verify(session.AccessToken); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestClientSignInNotifiesListeners(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var events []backend.AuthEvent
	unsubscribe := c.OnAuthStateChange(func(ev backend.AuthEvent, s *backend.Session) {
		events = append(events, ev)
		if ev == backend.SignedIn && (s == nil || s.User.Email != "u@example.com") {
			t.Errorf("signed-in session = %+v", s)
		}
		if ev == backend.SignedOut && s != nil {
			t.Errorf("signed-out session should be nil")
		}
	})

	if _, err := c.SignUp(ctx, "u@example.com", "secret1", map[string]any{"email": "u@example.com"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if s, _ := c.GetSession(ctx); s != nil {
		t.Fatal("sign-up alone must not create a session")
	}

	if _, err := c.SignInWithPassword(ctx, "u@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if s, _ := c.GetSession(ctx); s == nil {
		t.Fatal("expected a session after sign-in")
	}

	if err := c.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if s, _ := c.GetSession(ctx); s != nil {
		t.Fatal("expected no session after sign-out")
	}

	unsubscribe()
	c.SignInWithPassword(ctx, "u@example.com", "secret1")

	if len(events) != 2 || events[0] != backend.SignedIn || events[1] != backend.SignedOut {
		t.Fatalf("events = %v", events)
	}
}

func TestClientScopesRowsToSession(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, models.TableProjects, backend.Row{"name": "x", "owner_id": "nobody"}); err == nil {
		t.Fatal("anonymous insert should fail")
	}

	c.SignUp(ctx, "u@example.com", "secret1", nil)
	session, err := c.SignInWithPassword(ctx, "u@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	row, err := c.Insert(ctx, models.TableProjects, backend.Row{"name": "Launch", "owner_id": session.User.ID})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := c.Select(ctx, models.TableProjects, backend.Query{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("select = %v, %v", rows, err)
	}

	c.SignOut(ctx)
	rows, _ = c.Select(ctx, models.TableProjects, backend.Query{})
	if len(rows) != 0 {
		t.Fatalf("signed-out client sees %d rows", len(rows))
	}
	if err := c.Delete(ctx, models.TableProjects, backend.Eq("id", row["id"])); err != nil {
		t.Fatalf("anonymous delete of invisible row should be a no-op, got %v", err)
	}
}

func TestClientSessionExpires(t *testing.T) {
	c, tokens := newTestClient(t)
	ctx := context.Background()
	now := time.Now()
	tokens.now = func() time.Time { return now }

	c.SignUp(ctx, "u@example.com", "secret1", nil)
	if _, err := c.SignInWithPassword(ctx, "u@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if s, _ := c.GetSession(ctx); s != nil {
		t.Fatal("expired session should be dropped")
	}
}
