// Package dialogs holds the form logic behind the auth, project and task
// dialogs: field validation, conversion to backend payloads and submission.
package dialogs

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tgienger/pmdash/internal/backend"
)

const (
	MsgInvalidEmail       = "Invalid email address"
	MsgPasswordTooShort   = "Password must be at least 6 characters"
	MsgSignedIn           = "Signed in successfully"
	MsgAccountCreated     = "Account created and signed in successfully"
	MsgAlreadyRegistered  = "This email is already registered. Please sign in instead."
	MsgProjectNameMissing = "Project name is required"
	MsgTaskTitleMissing   = "Task title is required"
	MsgInvalidDate        = "Use YYYY-MM-DD"
	MsgInvalidStatus      = "Unknown status"
)

// FieldErrors maps a field name to its validation message
type FieldErrors map[string]string

// Outcome is the result of submitting a dialog. Fields carries validation
// errors found before any network call; Err a failed submission.
type Outcome struct {
	Fields FieldErrors
	Toast  string
	Err    string
	Close  bool
}

// AuthMode selects between the two forms of the auth dialog
type AuthMode int

const (
	SignInMode AuthMode = iota
	SignUpMode
)

func (m AuthMode) String() string {
	if m == SignUpMode {
		return "Sign Up"
	}
	return "Sign In"
}

// Toggle switches between sign-in and sign-up
func (m AuthMode) Toggle() AuthMode {
	if m == SignUpMode {
		return SignInMode
	}
	return SignUpMode
}

var validate = validator.New()

// AuthValues is the field set shared by both auth modes
type AuthValues struct {
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
}

// authMessages maps a failing struct field to the message shown under it
var authMessages = map[string]struct{ field, msg string }{
	"Email":    {"email", MsgInvalidEmail},
	"Password": {"password", MsgPasswordTooShort},
}

// Validate checks the values with surrounding blanks removed from the email
func (v AuthValues) Validate() FieldErrors {
	v.Email = strings.TrimSpace(v.Email)
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"email": err.Error()}
	}
	errs := FieldErrors{}
	for _, fe := range verrs {
		if m, ok := authMessages[fe.StructField()]; ok {
			errs[m.field] = m.msg
		}
	}
	return errs
}

// SubmitAuth validates v and runs the flow for mode
func SubmitAuth(ctx context.Context, auth backend.Auth, mode AuthMode, v AuthValues) Outcome {
	if errs := v.Validate(); errs != nil {
		return Outcome{Fields: errs}
	}
	v.Email = strings.TrimSpace(v.Email)
	if mode == SignUpMode {
		return SignUp(ctx, auth, v)
	}
	return SignIn(ctx, auth, v)
}

func SignIn(ctx context.Context, auth backend.Auth, v AuthValues) Outcome {
	if _, err := auth.SignInWithPassword(ctx, v.Email, v.Password); err != nil {
		return Outcome{Err: err.Error()}
	}
	return Outcome{Toast: MsgSignedIn, Close: true}
}

// SignUp creates the account and signs in. An already registered email
// falls back to a plain sign-in with the same password.
func SignUp(ctx context.Context, auth backend.Auth, v AuthValues) Outcome {
	_, err := auth.SignUp(ctx, v.Email, v.Password, map[string]any{"email": v.Email})
	if errors.Is(err, backend.ErrUserAlreadyRegistered) {
		if _, err := auth.SignInWithPassword(ctx, v.Email, v.Password); err != nil {
			return Outcome{Err: MsgAlreadyRegistered}
		}
		return Outcome{Toast: MsgSignedIn, Close: true}
	}
	if err != nil {
		return Outcome{Err: err.Error()}
	}

	if _, err := auth.SignInWithPassword(ctx, v.Email, v.Password); err != nil {
		return Outcome{Err: err.Error()}
	}
	return Outcome{Toast: MsgAccountCreated, Close: true}
}
