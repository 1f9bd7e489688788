package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smartagrinode/agrinode/pkg/models"
)

type cropRow struct {
	ID              string  `db:"id"`
	InputData       string  `db:"input_data"`
	RecommendedCrop string  `db:"recommended_crop"`
	Confidence      float64 `db:"confidence"`
	CreatedAt       string  `db:"created_at"`
}

type weedRow struct {
	ID            string `db:"id"`
	ImageFilename string `db:"image_filename"`
	WeedCount     int    `db:"weed_count"`
	InputData     string `db:"input_data"`
	CreatedAt     string `db:"created_at"`
}

// SaveCropRecommendation records a recommendation made for userID.
func (dm *DatabaseManager) SaveCropRecommendation(ctx context.Context, userID string, in *models.CropRecommendationRequest, out *models.CropRecommendationResult) (*models.CropRecommendationRecord, error) {
	input, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}

	rec := &models.CropRecommendationRecord{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
		RecommendedCrop: out.RecommendedCrop,
		Confidence:      out.Confidence,
		InputData:       in,
	}

	_, err = dm.execContext(ctx, `
        INSERT INTO crop_recommendations (id, user_id, input_data, recommended_crop, confidence, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, rec.ID, userID, string(input), rec.RecommendedCrop, rec.Confidence, formatTime(rec.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to store crop recommendation: %w", err)
	}
	return rec, nil
}

// SaveWeedDetection records a detection made for userID. input may be nil.
func (dm *DatabaseManager) SaveWeedDetection(ctx context.Context, userID, filename string, weedCount int, input json.RawMessage) (*models.WeedDetectionRecord, error) {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	rec := &models.WeedDetectionRecord{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
		ImageFilename: filename,
		WeedCount:     weedCount,
		InputData:     input,
	}

	_, err := dm.execContext(ctx, `
        INSERT INTO weed_detections (id, user_id, image_filename, weed_count, input_data, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, rec.ID, userID, rec.ImageFilename, rec.WeedCount, string(input), formatTime(rec.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to store weed detection: %w", err)
	}
	return rec, nil
}

// History returns the newest limit entries of each kind for userID.
func (dm *DatabaseManager) History(ctx context.Context, userID string, limit int) (*models.History, error) {
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}

	var crops []cropRow
	if err := dm.selectContext(ctx, &crops, `
        SELECT id, input_data, recommended_crop, confidence, created_at
        FROM crop_recommendations
        WHERE user_id = ?
        ORDER BY created_at DESC
        LIMIT ?
    `, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to query crop recommendations: %w", err)
	}

	var weeds []weedRow
	if err := dm.selectContext(ctx, &weeds, `
        SELECT id, image_filename, weed_count, input_data, created_at
        FROM weed_detections
        WHERE user_id = ?
        ORDER BY created_at DESC
        LIMIT ?
    `, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to query weed detections: %w", err)
	}

	h := &models.History{
		CropRecommendations: make([]models.CropRecommendationRecord, 0, len(crops)),
		WeedDetections:      make([]models.WeedDetectionRecord, 0, len(weeds)),
	}

	for _, r := range crops {
		rec := models.CropRecommendationRecord{
			ID:              r.ID,
			CreatedAt:       parseTime(r.CreatedAt),
			RecommendedCrop: r.RecommendedCrop,
			Confidence:      r.Confidence,
		}
		var in models.CropRecommendationRequest
		if err := json.Unmarshal([]byte(r.InputData), &in); err == nil {
			rec.InputData = &in
		}
		h.CropRecommendations = append(h.CropRecommendations, rec)
	}

	for _, r := range weeds {
		h.WeedDetections = append(h.WeedDetections, models.WeedDetectionRecord{
			ID:            r.ID,
			CreatedAt:     parseTime(r.CreatedAt),
			ImageFilename: r.ImageFilename,
			WeedCount:     r.WeedCount,
			InputData:     json.RawMessage(r.InputData),
		})
	}

	return h, nil
}
