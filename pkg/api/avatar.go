package api

import (
	"context"
	"net/http"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// UploadAvatar replaces the profile picture.
func (c *Client) UploadAvatar(ctx context.Context, filename string, image []byte) (*models.AvatarResponse, error) {
	if err := models.ValidateWeedImage(filename, image); err != nil {
		return nil, err
	}

	var resp models.AvatarResponse
	if err := c.doMultipart(ctx, "/api/upload-avatar", "file", filename, image, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAvatar removes the profile picture.
func (c *Client) DeleteAvatar(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/delete-avatar", nil, nil, true)
}
