package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/smartagrinode/agrinode/pkg/api"
	"github.com/smartagrinode/agrinode/pkg/config"
	"github.com/smartagrinode/agrinode/pkg/models"
)

// SessionProvider keeps the session in backend cookies.
type SessionProvider struct {
	backend Backend
	store   *Store

	mu      sync.Mutex
	session *Session
}

// NewSessionProvider creates a cookie session provider.
func NewSessionProvider(backend Backend, store *Store) *SessionProvider {
	return &SessionProvider{backend: backend, store: store}
}

// Restore loads saved cookies into the backend client.
func (p *SessionProvider) Restore() error {
	stored, err := p.store.Load()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if stored.Mode != config.AuthModeSession {
		return nil
	}
	p.backend.SetCookies(restoreCookies(stored.Cookies))
	return nil
}

// Token returns an empty token; cookies carry the session.
func (p *SessionProvider) Token(context.Context) (string, error) {
	return "", nil
}

// Session asks the backend who is signed in.
func (p *SessionProvider) Session(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		return p.session, nil
	}

	user, err := p.backend.CurrentUser(ctx)
	if api.IsUnauthorized(err) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	p.session = &Session{User: user}
	return p.session, nil
}

// SignIn logs in with username and password.
func (p *SessionProvider) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.Token != "" {
		return nil, errors.New("session auth does not accept tokens; set auth.mode to bearer")
	}
	if err := creds.validate(); err != nil {
		return nil, err
	}

	resp, err := p.backend.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}

	user := resp.User
	session := &Session{User: &user}

	if err := p.store.Save(&StoredSession{
		Mode:    config.AuthModeSession,
		Cookies: storeCookies(p.backend.Cookies()),
		User:    &user,
	}); err != nil {
		return nil, fmt.Errorf("signed in but could not save session: %w", err)
	}

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()
	return session, nil
}

// SignUp registers a new account.
func (p *SessionProvider) SignUp(ctx context.Context, req models.RegisterRequest) error {
	return p.backend.Register(ctx, req)
}

// SignOut ends the session on the backend and forgets it locally.
func (p *SessionProvider) SignOut(ctx context.Context) error {
	err := p.backend.Logout(ctx)
	if api.IsUnauthorized(err) {
		err = nil
	}

	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()

	p.backend.ClearCookies()
	if clearErr := p.store.Clear(); clearErr != nil {
		return clearErr
	}
	return err
}
