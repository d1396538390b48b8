package backend

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type sample struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Notes *string `json:"notes"`
}

func TestDecodeOverlaysPresentColumns(t *testing.T) {
	notes := "keep"
	s := sample{ID: "1", Name: "old", Notes: &notes}

	if err := Decode(Row{"name": "new"}, &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Name != "new" {
		t.Fatalf("name = %q, want new", s.Name)
	}
	if s.ID != "1" || s.Notes == nil || *s.Notes != "keep" {
		t.Fatalf("untouched columns changed: %+v", s)
	}

	if err := Decode(Row{"notes": nil}, &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Notes != nil {
		t.Fatal("explicit null should clear notes")
	}
}

func TestEncode(t *testing.T) {
	row, err := Encode(sample{ID: "1", Name: "n"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if row["name"] != "n" {
		t.Fatalf("name = %v", row["name"])
	}
	if v, ok := row["notes"]; !ok || v != nil {
		t.Fatalf("notes should be present and nil, got %v (present %v)", v, ok)
	}
}

func TestErrorIsByCode(t *testing.T) {
	err := fmt.Errorf("sign up: %w", Wrap(CodeUserAlreadyExists, "already there", errors.New("dup")))
	if !errors.Is(err, ErrUserAlreadyRegistered) {
		t.Fatal("expected wrapped error to match ErrUserAlreadyRegistered")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("codes differ, should not match")
	}
}

func TestQueryBuilders(t *testing.T) {
	q := Where(Eq("owner_id", "u1")).OrderBy("created_at", false).WithLimit(5)
	if len(q.Filters) != 1 || q.Filters[0].Op != OpEq {
		t.Fatalf("filters = %+v", q.Filters)
	}
	if q.Order == nil || q.Order.Column != "created_at" || q.Order.Ascending {
		t.Fatalf("order = %+v", q.Order)
	}
	if q.Limit != 5 {
		t.Fatalf("limit = %d", q.Limit)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatal("session should still be valid")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatal("session should be expired at its expiry instant")
	}
}
