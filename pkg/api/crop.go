package api

import (
	"context"
	"net/http"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// RecommendCrop submits soil and climate features for a crop recommendation.
// Out-of-range requests are rejected before anything is sent.
func (c *Client) RecommendCrop(ctx context.Context, req *models.CropRecommendationRequest) (*models.CropRecommendationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result models.CropRecommendationResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/crop-recommendation", req, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}
