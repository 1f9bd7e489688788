package api

import (
	"context"
	"net/http"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// CurrentUser returns the signed-in user. A missing session yields a 401 *APIError.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/user", nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login signs in with username and password. Cookie sessions land in the jar;
// token backends also return a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/login", models.LoginRequest{
		Username: username,
		Password: password,
	}, &resp, false)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, "/api/register", req, nil, false)
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/logout", nil, nil, true)
}
