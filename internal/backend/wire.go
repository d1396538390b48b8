package backend

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PasswordRequest is the body of the sign-up and password-grant endpoints
type PasswordRequest struct {
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required,min=6"`
	Data     map[string]any `json:"data,omitempty"`
}

// TokenResponse is returned by the password grant
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	ExpiresAt   int64  `json:"expires_at"`
	User        User   `json:"user"`
}

// Session converts the response into a Session
func (r TokenResponse) Session() *Session {
	return &Session{
		AccessToken: r.AccessToken,
		ExpiresAt:   time.Unix(r.ExpiresAt, 0),
		User:        r.User,
	}
}

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// reserved query parameters that are not column filters
var reserved = map[string]bool{"select": true, "order": true, "limit": true}

// EncodeQuery renders a query as column=op.value, order and limit parameters
func EncodeQuery(q Query) url.Values {
	v := url.Values{}
	v.Set("select", "*")
	for _, f := range q.Filters {
		v.Add(f.Column, string(f.Op)+"."+formatValue(f.Value))
	}
	if q.Order != nil {
		dir := "desc"
		if q.Order.Ascending {
			dir = "asc"
		}
		v.Set("order", q.Order.Column+"."+dir)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// EncodeFilters renders filters alone, as used by update and delete
func EncodeFilters(filters []Filter) url.Values {
	v := EncodeQuery(Where(filters...))
	v.Del("select")
	return v
}

// ParseQuery is the inverse of EncodeQuery. Filter values stay strings;
// the store converts them per column.
func ParseQuery(v url.Values) (Query, error) {
	var q Query
	for key, values := range v {
		if reserved[key] {
			continue
		}
		for _, raw := range values {
			op, value, ok := strings.Cut(raw, ".")
			if !ok || !Op(op).Valid() {
				return Query{}, NewError(CodeInvalidRequest, fmt.Sprintf("invalid filter %s=%s", key, raw))
			}
			f := Filter{Column: key, Op: Op(op), Value: value}
			if f.Op == OpIs {
				if value != "null" {
					return Query{}, NewError(CodeInvalidRequest, fmt.Sprintf("invalid filter %s=%s", key, raw))
				}
				f.Value = nil
			}
			q.Filters = append(q.Filters, f)
		}
	}

	if order := v.Get("order"); order != "" {
		column, dir, _ := strings.Cut(order, ".")
		switch dir {
		case "asc", "":
			q = q.OrderBy(column, true)
		case "desc":
			q = q.OrderBy(column, false)
		default:
			return Query{}, NewError(CodeInvalidRequest, fmt.Sprintf("invalid order %q", order))
		}
	}

	if limit := v.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return Query{}, NewError(CodeInvalidRequest, fmt.Sprintf("invalid limit %q", limit))
		}
		q.Limit = n
	}
	return q, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return "null"
		}
		return t.UTC().Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}
