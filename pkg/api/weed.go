package api

import (
	"context"
	"net/http"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// DetectWeeds uploads an image for weed detection.
func (c *Client) DetectWeeds(ctx context.Context, filename string, image []byte) (*models.WeedDetectionResult, error) {
	if err := models.ValidateWeedImage(filename, image); err != nil {
		return nil, err
	}

	var result models.WeedDetectionResult
	if err := c.doMultipart(ctx, "/api/weed-detection", "image", filename, image, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TriggerWeedScan asks the field camera to capture a full scan.
func (c *Client) TriggerWeedScan(ctx context.Context) (*models.Ack, error) {
	var ack models.Ack
	if err := c.doJSON(ctx, http.MethodPost, "/api/device/command/weed-scan", nil, &ack, true); err != nil {
		return nil, err
	}
	return &ack, nil
}

// WeedScanResults returns the frames received so far for the current scan.
func (c *Client) WeedScanResults(ctx context.Context) (*models.WeedScanResults, error) {
	var results models.WeedScanResults
	if err := c.doJSON(ctx, http.MethodGet, "/api/device/weed-scan/results", nil, &results, true); err != nil {
		return nil, err
	}
	return &results, nil
}
