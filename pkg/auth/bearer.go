package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smartagrinode/agrinode/pkg/api"
	"github.com/smartagrinode/agrinode/pkg/config"
	"github.com/smartagrinode/agrinode/pkg/models"
)

// BearerProvider keeps a token on the client and attaches it to requests.
type BearerProvider struct {
	backend Backend
	store   *Store
	now     func() time.Time

	mu      sync.Mutex
	token   string
	claims  *Claims
	session *Session
}

// NewBearerProvider creates a token provider. A non-empty static token,
// typically from configuration, takes precedence over the stored one.
// Tokens are opaque to the client; when one happens to be a JWT its expiry
// is honoured.
func NewBearerProvider(backend Backend, store *Store, static string) *BearerProvider {
	p := &BearerProvider{backend: backend, store: store, now: time.Now}
	if static != "" {
		p.setToken(static)
	}
	return p
}

// Restore loads the stored token unless a static one was configured.
func (p *BearerProvider) Restore() error {
	p.mu.Lock()
	has := p.token != ""
	p.mu.Unlock()
	if has {
		return nil
	}

	stored, err := p.store.Load()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if stored.Mode != config.AuthModeBearer || stored.Token == "" {
		return nil
	}
	p.setToken(stored.Token)
	return nil
}

func (p *BearerProvider) setToken(token string) {
	claims, err := ParseUnverified(token)
	if err != nil {
		// Not a JWT: forward it as is with no known expiry.
		claims = &Claims{}
	}
	p.mu.Lock()
	p.token = token
	p.claims = claims
	p.session = nil
	p.mu.Unlock()
}

// Token returns the current token, or ErrNoSession / ErrSessionExpired.
func (p *BearerProvider) Token(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == "" {
		return "", ErrNoSession
	}
	if exp := p.claims.Expiry(); !exp.IsZero() && !p.now().Before(exp) {
		return "", ErrSessionExpired
	}
	return p.token, nil
}

// Session resolves the user behind the token.
func (p *BearerProvider) Session(ctx context.Context) (*Session, error) {
	token, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.session != nil {
		s := p.session
		p.mu.Unlock()
		return s, nil
	}
	claims := p.claims
	p.mu.Unlock()

	user, err := p.backend.CurrentUser(ctx)
	if api.IsUnauthorized(err) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	session := &Session{User: user, Token: token, ExpiresAt: claims.Expiry()}
	p.mu.Lock()
	p.session = session
	p.mu.Unlock()
	return session, nil
}

// SignIn accepts either a ready token or a username and password that the
// backend exchanges for one.
func (p *BearerProvider) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	var (
		token string
		user  *models.User
	)

	if creds.Token != "" {
		token = creds.Token
	} else {
		if err := creds.validate(); err != nil {
			return nil, err
		}
		resp, err := p.backend.Login(ctx, creds.Username, creds.Password)
		if err != nil {
			return nil, err
		}
		if resp.Token == "" {
			return nil, errors.New("backend did not issue a token; set auth.mode to session")
		}
		token = resp.Token
		u := resp.User
		user = &u
	}

	p.setToken(token)

	session, err := p.Session(ctx)
	if err != nil {
		p.forget()
		return nil, err
	}
	if user == nil {
		user = session.User
	}

	if err := p.store.Save(&StoredSession{
		Mode:  config.AuthModeBearer,
		Token: token,
		User:  user,
	}); err != nil {
		return nil, fmt.Errorf("signed in but could not save session: %w", err)
	}
	return session, nil
}

// SignUp registers a new account.
func (p *BearerProvider) SignUp(ctx context.Context, req models.RegisterRequest) error {
	return p.backend.Register(ctx, req)
}

// SignOut discards the token. The backend call is best effort since the
// token stays valid server side until it expires.
func (p *BearerProvider) SignOut(ctx context.Context) error {
	var err error
	if _, tokErr := p.Token(ctx); tokErr == nil {
		err = p.backend.Logout(ctx)
		if api.IsUnauthorized(err) {
			err = nil
		}
	}

	p.forget()
	if clearErr := p.store.Clear(); clearErr != nil {
		return clearErr
	}
	return err
}

func (p *BearerProvider) forget() {
	p.mu.Lock()
	p.token = ""
	p.claims = nil
	p.session = nil
	p.mu.Unlock()
}
