package backend

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestQueryEncodeParse(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	q := Where(Eq("owner_id", "u1"), Gte("start_time", now), IsNull("project_id")).
		OrderBy("start_time", true).
		WithLimit(5)

	values := EncodeQuery(q)
	if values.Get("owner_id") != "eq.u1" {
		t.Fatalf("owner_id = %q", values.Get("owner_id"))
	}
	if values.Get("start_time") != "gte.2026-04-02T08:30:00Z" {
		t.Fatalf("start_time = %q", values.Get("start_time"))
	}
	if values.Get("project_id") != "is.null" {
		t.Fatalf("project_id = %q", values.Get("project_id"))
	}

	parsed, err := ParseQuery(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Filters) != 3 {
		t.Fatalf("filters = %+v", parsed.Filters)
	}
	for _, f := range parsed.Filters {
		switch f.Column {
		case "owner_id":
			if f.Op != OpEq || f.Value != "u1" {
				t.Errorf("owner filter = %+v", f)
			}
		case "start_time":
			if f.Op != OpGte || f.Value != "2026-04-02T08:30:00Z" {
				t.Errorf("start filter = %+v", f)
			}
		case "project_id":
			if f.Op != OpIs || f.Value != nil {
				t.Errorf("project filter = %+v", f)
			}
		default:
			t.Errorf("unexpected filter %+v", f)
		}
	}
	if parsed.Order == nil || parsed.Order.Column != "start_time" || !parsed.Order.Ascending {
		t.Fatalf("order = %+v", parsed.Order)
	}
	if parsed.Limit != 5 {
		t.Fatalf("limit = %d", parsed.Limit)
	}
}

func TestParseQueryRejectsMalformed(t *testing.T) {
	tests := []url.Values{
		{"name": {"like.x"}},
		{"name": {"novalue"}},
		{"project_id": {"is.true"}},
		{"order": {"created_at.sideways"}},
		{"limit": {"-1"}},
	}
	for _, v := range tests {
		if _, err := ParseQuery(v); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("ParseQuery(%v) error = %v, want ErrInvalidRequest", v, err)
		}
	}
}

func TestEncodeFiltersOmitsSelect(t *testing.T) {
	v := EncodeFilters([]Filter{Eq("id", "abc")})
	if v.Has("select") {
		t.Fatal("filters-only encoding should not carry select")
	}
	if v.Get("id") != "eq.abc" {
		t.Fatalf("id = %q", v.Get("id"))
	}
}
