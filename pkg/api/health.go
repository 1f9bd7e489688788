package api

import (
	"context"
	"net/http"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// Health checks if the API and its models are available
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var health models.HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &health, false); err != nil {
		return nil, err
	}
	return &health, nil
}
