package api

import (
	"context"
	"net/http"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// TriggerSensors asks the field node to take a soil measurement.
func (c *Client) TriggerSensors(ctx context.Context) (*models.Ack, error) {
	var ack models.Ack
	if err := c.doJSON(ctx, http.MethodPost, "/api/sensors/trigger", nil, &ack, true); err != nil {
		return nil, err
	}
	return &ack, nil
}

// LatestSensors returns the measurement status; data is set once complete.
func (c *Client) LatestSensors(ctx context.Context) (*models.SensorStatus, error) {
	var status models.SensorStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/sensors/latest", nil, &status, true); err != nil {
		return nil, err
	}
	return &status, nil
}
