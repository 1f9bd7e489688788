package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// DefaultHistoryLimit is used when no limit is requested.
const DefaultHistoryLimit = 10

// CropRecommendationRecord is a stored recommendation.
type CropRecommendationRecord struct {
	ID              string                     `json:"id,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	RecommendedCrop string                     `json:"recommended_crop"`
	Confidence      float64                    `json:"confidence"`
	InputData       *CropRecommendationRequest `json:"input_data,omitempty"`
}

// WeedDetectionRecord is a stored detection.
type WeedDetectionRecord struct {
	ID            string          `json:"id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ImageFilename string          `json:"image_filename"`
	WeedCount     int             `json:"weed_count"`
	InputData     json.RawMessage `json:"input_data,omitempty"`
}

// History is the read-only activity list of the signed-in user.
type History struct {
	CropRecommendations []CropRecommendationRecord `json:"crop_recommendations"`
	WeedDetections      []WeedDetectionRecord      `json:"weed_detections"`
}

// Empty reports whether there is nothing to show.
func (h *History) Empty() bool {
	return len(h.CropRecommendations) == 0 && len(h.WeedDetections) == 0
}

// HealthStatus is the backend health report.
type HealthStatus struct {
	Status          string `json:"status"`
	CropModelLoaded bool   `json:"crop_model_loaded"`
	WeedModelLoaded bool   `json:"weed_model_loaded"`
	ModelsLoaded    bool   `json:"models_loaded"`
	Database        string `json:"database,omitempty"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
