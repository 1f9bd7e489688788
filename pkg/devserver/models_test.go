package devserver

import (
	"bytes"
	"image"
	"testing"

	"github.com/smartagrinode/agrinode/pkg/logging"
	"github.com/smartagrinode/agrinode/pkg/models"
)

func nopLogger() *logging.Logger {
	return logging.NewNop()
}

func TestCentroidModel_Profiles(t *testing.T) {
	m := NewCentroidModel()
	if !m.Loaded() {
		t.Fatal("model should be loaded")
	}

	for _, p := range cropProfiles {
		req := &models.CropRecommendationRequest{
			N: p.features[0], P: p.features[1], K: p.features[2],
			Temperature: p.features[3], Humidity: p.features[4], PH: p.features[5], Rainfall: p.features[6],
		}
		got := m.Predict(req)
		if got.RecommendedCrop != p.name {
			t.Errorf("Predict(%s profile) = %s", p.name, got.RecommendedCrop)
		}
		if got.Confidence != 1 {
			t.Errorf("Predict(%s profile) confidence = %v, want 1", p.name, got.Confidence)
		}
	}
}

func TestCentroidModel_ConfidenceRange(t *testing.T) {
	m := NewCentroidModel()
	got := m.Predict(&models.CropRecommendationRequest{N: 60, P: 50, K: 40, Temperature: 25, Humidity: 70, PH: 6.5, Rainfall: 120})

	if got.RecommendedCrop == "" {
		t.Fatal("expected a crop")
	}
	if got.Confidence < 0.5 || got.Confidence > 1 {
		t.Errorf("confidence = %v, want within [0.5, 1]", got.Confidence)
	}
}

func TestGreenDetector(t *testing.T) {
	tests := []struct {
		name    string
		patches []image.Rectangle
		want    int
	}{
		{"bare soil", nil, 0},
		{"one patch", []image.Rectangle{image.Rect(32, 32, 96, 96)}, 1},
		{"two patches", []image.Rectangle{image.Rect(16, 16, 48, 48), image.Rect(160, 160, 224, 224)}, 2},
		{"touching patches merge", []image.Rectangle{image.Rect(32, 32, 64, 64), image.Rect(64, 32, 96, 64)}, 1},
	}

	g := NewGreenDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := g.Detect(fieldImage(t, 256, 256, tt.patches...))
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if det.Count() != tt.want {
				t.Errorf("Count() = %d, want %d", det.Count(), tt.want)
			}

			annotated, format, err := image.Decode(bytes.NewReader(det.Annotated))
			if err != nil {
				t.Fatalf("decode annotated: %v", err)
			}
			if format != "jpeg" {
				t.Errorf("format = %s, want jpeg", format)
			}
			if annotated.Bounds().Dx() != 256 {
				t.Errorf("width = %d, want 256", annotated.Bounds().Dx())
			}
		})
	}
}

func TestGreenDetector_BoxesCoverPatch(t *testing.T) {
	patch := image.Rect(32, 48, 80, 96)
	det, err := NewGreenDetector().Detect(fieldImage(t, 128, 128, patch))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(det.Boxes) != 1 {
		t.Fatalf("got %d boxes, want 1", len(det.Boxes))
	}
	if det.Boxes[0] != patch {
		t.Errorf("box = %v, want %v", det.Boxes[0], patch)
	}
}

func TestGreenDetector_InvalidImage(t *testing.T) {
	if _, err := NewGreenDetector().Detect([]byte("plain text")); err == nil {
		t.Error("expected an error for non-image input")
	}
}
