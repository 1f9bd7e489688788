package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Crop recommendation form fields, in display order.
const (
	FieldNitrogen    = "N"
	FieldPhosphorus  = "P"
	FieldPotassium   = "K"
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldPH          = "ph"
	FieldRainfall    = "rainfall"
)

// CropField describes one numeric input of the recommendation form.
type CropField struct {
	Name  string
	Label string
	Unit  string
	Range Range
}

// CropFields lists the form inputs with their accepted ranges.
var CropFields = []CropField{
	{FieldNitrogen, "Nitrogen", "kg/ha", Range{0, 200}},
	{FieldPhosphorus, "Phosphorus", "kg/ha", Range{0, 200}},
	{FieldPotassium, "Potassium", "kg/ha", Range{0, 300}},
	{FieldTemperature, "Temperature", "°C", Range{-10, 50}},
	{FieldHumidity, "Humidity", "%", Range{0, 100}},
	{FieldPH, "Soil pH", "", Range{0, 14}},
	{FieldRainfall, "Rainfall", "mm", Range{0, 5000}},
}

// CropRecommendationRequest holds the soil and climate features sent to the
// recommendation model.
type CropRecommendationRequest struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

// CropRecommendationResult is the model's answer.
type CropRecommendationResult struct {
	RecommendedCrop string  `json:"recommended_crop"`
	Confidence      float64 `json:"confidence"`
}

// ConfidencePercent returns the confidence as a whole percentage.
func (r CropRecommendationResult) ConfidencePercent() int {
	return int(math.Round(r.Confidence * 100))
}

// Value returns the request value for a form field name.
func (r *CropRecommendationRequest) Value(field string) (float64, bool) {
	switch field {
	case FieldNitrogen:
		return r.N, true
	case FieldPhosphorus:
		return r.P, true
	case FieldPotassium:
		return r.K, true
	case FieldTemperature:
		return r.Temperature, true
	case FieldHumidity:
		return r.Humidity, true
	case FieldPH:
		return r.PH, true
	case FieldRainfall:
		return r.Rainfall, true
	}
	return 0, false
}

func (r *CropRecommendationRequest) set(field string, v float64) {
	switch field {
	case FieldNitrogen:
		r.N = v
	case FieldPhosphorus:
		r.P = v
	case FieldPotassium:
		r.K = v
	case FieldTemperature:
		r.Temperature = v
	case FieldHumidity:
		r.Humidity = v
	case FieldPH:
		r.PH = v
	case FieldRainfall:
		r.Rainfall = v
	}
}

// Validate checks that every field lies in its declared range.
func (r *CropRecommendationRequest) Validate() error {
	var errs ValidationErrors
	for _, f := range CropFields {
		v, _ := r.Value(f.Name)
		if fe := checkRange(f, v); fe != nil {
			errs = append(errs, fe)
		}
	}
	return errs.err()
}

// ParseCropRecommendation builds a request from raw form values keyed by
// field name. Missing, non-numeric and out-of-range values are all reported.
func ParseCropRecommendation(values map[string]string) (*CropRecommendationRequest, error) {
	req := &CropRecommendationRequest{}
	var errs ValidationErrors

	for _, f := range CropFields {
		raw := strings.TrimSpace(values[f.Name])
		if raw == "" {
			errs = append(errs, &ValidationError{Field: f.Name, Message: "is required"})
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, &ValidationError{Field: f.Name, Message: fmt.Sprintf("%q is not a number", raw)})
			continue
		}

		if fe := checkRange(f, v); fe != nil {
			errs = append(errs, fe)
			continue
		}
		req.set(f.Name, v)
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return req, nil
}

func checkRange(f CropField, v float64) *ValidationError {
	if math.IsNaN(v) || !f.Range.Contains(v) {
		return &ValidationError{Field: f.Name, Message: fmt.Sprintf("must be between %s", f.Range)}
	}
	return nil
}
