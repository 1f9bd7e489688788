package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smartagrinode/agrinode/pkg/api"
	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	users       map[string]string
	issueTokens bool
	token       string
	signedIn    bool
	cookies     []*http.Cookie
	logouts     int
	registered  []models.RegisterRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{users: map[string]string{"farmer": "secret1"}}
}

func (b *fakeBackend) Login(_ context.Context, username, password string) (*models.LoginResponse, error) {
	if b.users[username] != password {
		return nil, &api.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	b.signedIn = true
	b.cookies = []*http.Cookie{{Name: "session", Value: "abc", Path: "/"}}
	resp := &models.LoginResponse{User: models.User{ID: "1", Username: username}}
	if b.issueTokens {
		resp.Token = b.token
	}
	return resp, nil
}

func (b *fakeBackend) Register(_ context.Context, req models.RegisterRequest) error {
	b.registered = append(b.registered, req)
	return nil
}

func (b *fakeBackend) Logout(context.Context) error {
	b.logouts++
	b.signedIn = false
	return nil
}

func (b *fakeBackend) CurrentUser(context.Context) (*models.User, error) {
	if !b.signedIn {
		return nil, &api.APIError{StatusCode: http.StatusUnauthorized, Message: "Not authenticated"}
	}
	return &models.User{ID: "1", Username: "farmer"}, nil
}

func (b *fakeBackend) Cookies() []*http.Cookie { return b.cookies }
func (b *fakeBackend) SetCookies(c []*http.Cookie) { b.cookies = c; b.signedIn = len(c) > 0 }
func (b *fakeBackend) ClearCookies() { b.cookies = nil }

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := Claims{
		UserID:   "1",
		Username: "farmer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func tempStore(t *testing.T) *Store {
	return NewStore(filepath.Join(t.TempDir(), "agrinode", "session.json"))
}

func TestStore_SaveLoadClear(t *testing.T) {
	store := tempStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(&StoredSession{Mode: "bearer", Token: "tok"}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", loaded.Token)
	assert.False(t, loaded.SavedAt.IsZero())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestParseUnverified(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := ParseUnverified(signToken(t, exp))
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Identity())
	assert.Equal(t, "farmer", claims.Username)
	assert.True(t, claims.Expiry().Equal(exp))

	_, err = ParseUnverified("not-a-token")
	assert.Error(t, err)
}

func TestSessionProvider(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store := tempStore(t)
	p := NewSessionProvider(backend, store)

	_, err := p.Session(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	token, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = p.SignIn(ctx, Credentials{Username: "farmer", Password: "wrong"})
	assert.True(t, api.IsUnauthorized(err))

	_, err = p.SignIn(ctx, Credentials{Username: "farmer"})
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"password"}, verrs.Fields())

	session, err := p.SignIn(ctx, Credentials{Username: "farmer", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "farmer", session.User.Username)

	stored, err := store.Load()
	require.NoError(t, err)
	require.Len(t, stored.Cookies, 1)
	assert.Equal(t, "abc", stored.Cookies[0].Value)

	// a new process restores the cookies from disk
	other := newFakeBackend()
	restored := NewSessionProvider(other, store)
	require.NoError(t, restored.Restore())
	session, err = restored.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", session.User.ID)

	require.NoError(t, restored.SignOut(ctx))
	assert.Equal(t, 1, other.logouts)
	assert.Empty(t, other.cookies)
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestBearerProvider_PasswordExchange(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.issueTokens = true
	backend.token = signToken(t, time.Now().Add(time.Hour))
	store := tempStore(t)

	p := NewBearerProvider(backend, store, "")
	_, err := p.Token(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	session, err := p.SignIn(ctx, Credentials{Username: "farmer", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, backend.token, session.Token)
	assert.False(t, session.ExpiresAt.IsZero())

	token, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.token, token)

	restored := NewBearerProvider(backend, store, "")
	require.NoError(t, restored.Restore())
	token, err = restored.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.token, token)

	require.NoError(t, restored.SignOut(ctx))
	_, err = restored.Token(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestBearerProvider_RequiresIssuedToken(t *testing.T) {
	p := NewBearerProvider(newFakeBackend(), tempStore(t), "")
	_, err := p.SignIn(context.Background(), Credentials{Username: "farmer", Password: "secret1"})
	assert.ErrorContains(t, err, "did not issue a token")
}

func TestBearerProvider_Expired(t *testing.T) {
	expired := signToken(t, time.Now().Add(-time.Minute))
	p := NewBearerProvider(newFakeBackend(), tempStore(t), expired)

	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = p.Session(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestBearerProvider_StaticTokenWins(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(&StoredSession{Mode: "bearer", Token: signToken(t, time.Now().Add(time.Hour))}))

	static := signToken(t, time.Now().Add(2*time.Hour))
	p := NewBearerProvider(newFakeBackend(), store, static)
	require.NoError(t, p.Restore())

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, static, token)
}

func TestBearerProvider_RejectedToken(t *testing.T) {
	store := tempStore(t)
	p := NewBearerProvider(newFakeBackend(), store, "")

	_, err := p.SignIn(context.Background(), Credentials{Token: signToken(t, time.Now().Add(time.Hour))})
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoSession, "rejected token is not kept")
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&Session{}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Second)}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Second)}).Expired(now))
}

func TestBearerProvider_OpaqueToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","username":"farmer"}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	p := NewBearerProvider(client, tempStore(t), "abc123")
	client.UseTokenSource(p)

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	session, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.Equal(t, "farmer", session.User.Username)
	assert.True(t, session.ExpiresAt.IsZero(), "opaque tokens have no known expiry")
}

func TestBearerProvider_SignInWithOpaqueToken(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.signedIn = true
	store := tempStore(t)

	p := NewBearerProvider(backend, store, "")
	session, err := p.SignIn(ctx, Credentials{Token: "opaque-token"})
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", session.Token)

	restored := NewBearerProvider(backend, store, "")
	require.NoError(t, restored.Restore())
	token, err := restored.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)
}

func TestSessionProvider_RestoresCookiesAgainstBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "cookie-value", Path: "/", HttpOnly: true, MaxAge: 3600})
			_, _ = w.Write([]byte(`{"user":{"id":"1","username":"farmer"}}`))
		case "/api/user":
			if c, err := r.Cookie("session"); err != nil || c.Value != "cookie-value" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Not authenticated"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"1","username":"farmer"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store := tempStore(t)

	p := NewSessionProvider(api.NewClient(srv.URL), store)
	_, err := p.SignIn(ctx, Credentials{Username: "farmer", Password: "secret1"})
	require.NoError(t, err)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []StoredCookie{{Name: "session", Value: "cookie-value"}}, stored.Cookies)

	restored := NewSessionProvider(api.NewClient(srv.URL), store)
	require.NoError(t, restored.Restore())
	session, err := restored.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "farmer", session.User.Username)
}
