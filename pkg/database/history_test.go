package database

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/smartagrinode/agrinode/pkg/models"
)

func TestHistory(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	farmer, err := dm.CreateUser(ctx, "farmer", "farmer@example.com", "password1")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	other, err := dm.CreateUser(ctx, "other", "other@example.com", "password1")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	in := &models.CropRecommendationRequest{N: 90, P: 42, K: 43, Temperature: 20.8, Humidity: 82, PH: 6.5, Rainfall: 202.9}
	for _, crop := range []string{"Rice", "Maize", "Chickpea"} {
		if _, err := dm.SaveCropRecommendation(ctx, farmer.ID, in, &models.CropRecommendationResult{RecommendedCrop: crop, Confidence: 0.8}); err != nil {
			t.Fatalf("Failed to save recommendation: %v", err)
		}
		pause()
	}
	if _, err := dm.SaveWeedDetection(ctx, farmer.ID, "field.jpg", 4, nil); err != nil {
		t.Fatalf("Failed to save detection: %v", err)
	}
	if _, err := dm.SaveWeedDetection(ctx, other.ID, "other.jpg", 1, json.RawMessage(`{"source":"camera"}`)); err != nil {
		t.Fatalf("Failed to save detection: %v", err)
	}

	h, err := dm.History(ctx, farmer.ID, 2)
	if err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}

	if len(h.CropRecommendations) != 2 {
		t.Fatalf("Expected limit of 2 recommendations, got %d", len(h.CropRecommendations))
	}
	if h.CropRecommendations[0].RecommendedCrop != "Chickpea" {
		t.Errorf("Expected newest first, got %s", h.CropRecommendations[0].RecommendedCrop)
	}
	if in := h.CropRecommendations[0].InputData; in == nil || in.PH != 6.5 {
		t.Errorf("Expected input data to round trip, got %+v", in)
	}

	if len(h.WeedDetections) != 1 {
		t.Fatalf("Expected only the farmer's detection, got %d", len(h.WeedDetections))
	}
	if h.WeedDetections[0].WeedCount != 4 || h.WeedDetections[0].ImageFilename != "field.jpg" {
		t.Errorf("Unexpected detection: %+v", h.WeedDetections[0])
	}
}

func TestHistory_Empty(t *testing.T) {
	dm := setupTestDatabaseManager(t)

	h, err := dm.History(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	if !h.Empty() {
		t.Error("Expected empty history")
	}
}
