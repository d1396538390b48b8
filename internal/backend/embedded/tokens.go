package embedded

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tgienger/pmdash/internal/backend"
)

// Claims are the JWT claims of an access token
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer. secret must not be empty.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not set")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a session for u
func (t *Tokens) Issue(u backend.User) (*backend.Session, error) {
	issued := t.now().Truncate(time.Second)
	expires := issued.Add(t.ttl)

	claims := Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &backend.Session{AccessToken: signed, ExpiresAt: expires, User: u}, nil
}

// Verify parses token and returns its claims if it is valid and unexpired
func (t *Tokens) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return nil, backend.Wrap(backend.CodeNotAuthenticated, "invalid or expired token", err)
	}
	if claims.Subject == "" {
		return nil, backend.NewError(backend.CodeNotAuthenticated, "token has no subject")
	}
	return claims, nil
}
