package devserver

import (
	"math"
	"sort"

	"github.com/smartagrinode/agrinode/pkg/models"
)

// CropModel recommends a crop for a set of soil and climate features.
type CropModel interface {
	Predict(req *models.CropRecommendationRequest) models.CropRecommendationResult
	Loaded() bool
}

type cropProfile struct {
	name     string
	features [7]float64 // N, P, K, temperature, humidity, ph, rainfall
}

// Mean growing conditions per crop.
var cropProfiles = []cropProfile{
	{"Rice", [7]float64{80, 48, 40, 23.7, 82.3, 6.4, 236.2}},
	{"Maize", [7]float64{78, 48, 20, 22.4, 65.1, 6.2, 84.8}},
	{"Chickpea", [7]float64{40, 68, 80, 18.9, 16.9, 7.3, 80.1}},
	{"Kidney Beans", [7]float64{21, 67, 20, 20.1, 21.6, 5.7, 105.9}},
	{"Pigeon Peas", [7]float64{21, 68, 20, 27.7, 48.1, 5.8, 149.5}},
	{"Moth Beans", [7]float64{21, 48, 20, 28.2, 53.2, 6.8, 51.2}},
	{"Mung Bean", [7]float64{21, 47, 20, 28.5, 85.5, 6.7, 48.4}},
	{"Black Gram", [7]float64{40, 67, 19, 30.0, 65.1, 7.1, 67.9}},
	{"Lentil", [7]float64{19, 68, 19, 24.5, 64.8, 6.9, 45.7}},
	{"Pomegranate", [7]float64{19, 19, 40, 21.8, 90.1, 6.4, 107.5}},
	{"Banana", [7]float64{100, 82, 50, 27.4, 80.4, 6.0, 104.6}},
	{"Mango", [7]float64{20, 27, 30, 31.2, 50.2, 5.8, 94.7}},
	{"Grapes", [7]float64{23, 133, 200, 23.8, 81.9, 6.0, 69.6}},
	{"Watermelon", [7]float64{99, 17, 50, 25.6, 85.2, 6.5, 50.8}},
	{"Muskmelon", [7]float64{100, 18, 50, 28.7, 92.3, 6.4, 24.7}},
	{"Apple", [7]float64{21, 134, 200, 22.6, 92.3, 5.9, 112.7}},
	{"Orange", [7]float64{20, 17, 10, 22.8, 92.2, 7.0, 110.5}},
	{"Papaya", [7]float64{50, 59, 50, 33.7, 92.4, 6.7, 142.6}},
	{"Coconut", [7]float64{22, 17, 31, 27.4, 94.8, 6.0, 175.7}},
	{"Cotton", [7]float64{118, 46, 20, 24.0, 80.1, 6.9, 80.4}},
	{"Jute", [7]float64{78, 47, 40, 25.0, 79.6, 6.7, 174.8}},
	{"Coffee", [7]float64{101, 29, 30, 25.5, 58.9, 6.8, 158.1}},
}

// CentroidModel picks the crop whose mean conditions are closest to the
// input, with every feature scaled by its accepted range.
type CentroidModel struct {
	scale [7]float64
}

// NewCentroidModel creates the model.
func NewCentroidModel() *CentroidModel {
	m := &CentroidModel{}
	for i, f := range models.CropFields {
		m.scale[i] = f.Range.Max - f.Range.Min
	}
	return m
}

// Loaded always reports true; the profiles are compiled in.
func (m *CentroidModel) Loaded() bool {
	return true
}

// Predict returns the closest crop. Confidence grows with the margin between
// the closest and the runner-up profile.
func (m *CentroidModel) Predict(req *models.CropRecommendationRequest) models.CropRecommendationResult {
	var in [7]float64
	for i, f := range models.CropFields {
		in[i], _ = req.Value(f.Name)
	}

	type scored struct {
		name string
		dist float64
	}
	scores := make([]scored, 0, len(cropProfiles))
	for _, p := range cropProfiles {
		var sum float64
		for i := range in {
			d := (in[i] - p.features[i]) / m.scale[i]
			sum += d * d
		}
		scores = append(scores, scored{p.name, math.Sqrt(sum)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })

	best, second := scores[0], scores[1]
	confidence := 1.0
	if total := best.dist + second.dist; total > 0 {
		confidence = 1 - best.dist/total
	}

	return models.CropRecommendationResult{
		RecommendedCrop: best.name,
		Confidence:      math.Round(confidence*100) / 100,
	}
}
