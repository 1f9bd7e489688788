// Package auth owns the signed-in session. Two variants sit behind the
// Provider interface: cookie sessions kept by the backend, and bearer tokens
// kept by the client. The API client only ever asks a Provider for a token.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/smartagrinode/agrinode/pkg/models"
)

var (
	// ErrNoSession means nobody is signed in.
	ErrNoSession = errors.New("not signed in")
	// ErrSessionExpired means the stored credentials are no longer valid.
	ErrSessionExpired = errors.New("session expired")
)

// Session is the scoped state of the signed-in user.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the session has a known expiry before now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Credentials are used to sign in. Token, when set, is used instead of the
// username and password by providers that accept one.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Provider is the capability set every auth variant offers.
type Provider interface {
	Session(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, creds Credentials) (*Session, error)
	SignUp(ctx context.Context, req models.RegisterRequest) error
	SignOut(ctx context.Context) error
	Token(ctx context.Context) (string, error)
}

// Backend is the part of the API client the providers rely on.
type Backend interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
	ClearCookies()
}

func (c Credentials) validate() error {
	var errs models.ValidationErrors
	if c.Username == "" {
		errs = append(errs, &models.ValidationError{Field: "username", Message: "is required"})
	}
	if c.Password == "" {
		errs = append(errs, &models.ValidationError{Field: "password", Message: "is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
