package embedded

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/tgienger/pmdash/internal/backend"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the auth service accepts
const MinPasswordLength = 6

var validate = validator.New()

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a new password account
func (db *DB) CreateUser(ctx context.Context, email, password string, metadata map[string]any) (*backend.User, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, invalid("unable to validate email address: invalid format")
	}
	if err := validate.Var(password, "min="+strconv.Itoa(MinPasswordLength)); err != nil {
		return nil, invalid("password should be at least %d characters", MinPasswordLength)
	}

	var exists int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&exists)
	if err != nil {
		return nil, mapErr(err)
	}
	if exists > 0 {
		return nil, backend.ErrUserAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, mapErr(err)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, invalid("invalid user metadata: %v", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, metadata, created_at) VALUES (?, ?, ?, ?, ?)
	`, id, email, string(hash), string(meta), db.timestamp())
	if err != nil {
		return nil, mapUserErr(err)
	}

	return db.GetUser(ctx, id)
}

// mapUserErr reports a concurrent sign-up that lost the race on the unique
// email as already registered
func mapUserErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique && strings.Contains(se.Error(), "users.email") {
		return backend.ErrUserAlreadyRegistered
	}
	return mapErr(err)
}

// Authenticate checks a password and returns the matching user
func (db *DB) Authenticate(ctx context.Context, email, password string) (*backend.User, error) {
	var id, hash string
	err := db.QueryRowContext(ctx, "SELECT id, password_hash FROM users WHERE email = ?", normalizeEmail(email)).
		Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrInvalidCredentials
	}
	if err != nil {
		return nil, mapErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, backend.ErrInvalidCredentials
	}
	return db.GetUser(ctx, id)
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id string) (*backend.User, error) {
	var (
		u         backend.User
		meta      string
		createdAt string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, email, metadata, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &meta, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}

	if err := json.Unmarshal([]byte(meta), &u.Metadata); err != nil {
		return nil, mapErr(err)
	}
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}
