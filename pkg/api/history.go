package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// History returns the user's recent recommendations and detections.
// A limit <= 0 leaves the default to the backend.
func (c *Client) History(ctx context.Context, limit int) (*models.History, error) {
	path := "/api/history"
	if limit > 0 {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		path += "?" + params.Encode()
	}

	var history models.History
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &history, true); err != nil {
		return nil, err
	}
	return &history, nil
}
