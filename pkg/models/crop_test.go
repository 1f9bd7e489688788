package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() map[string]string {
	return map[string]string{
		"N":           "40",
		"P":           "50",
		"K":           "60",
		"temperature": "25.5",
		"humidity":    "75",
		"ph":          "6.5",
		"rainfall":    "200",
	}
}

func TestParseCropRecommendation_Valid(t *testing.T) {
	req, err := ParseCropRecommendation(validForm())
	require.NoError(t, err)

	assert.Equal(t, &CropRecommendationRequest{
		N: 40, P: 50, K: 60, Temperature: 25.5, Humidity: 75, PH: 6.5, Rainfall: 200,
	}, req)
	assert.NoError(t, req.Validate())
}

func TestParseCropRecommendation_Boundaries(t *testing.T) {
	form := validForm()
	form["temperature"] = "-10"
	form["ph"] = "14"
	form["rainfall"] = "0"

	req, err := ParseCropRecommendation(form)
	require.NoError(t, err)
	assert.Equal(t, -10.0, req.Temperature)
	assert.Equal(t, 14.0, req.PH)
}

func TestParseCropRecommendation_Invalid(t *testing.T) {
	testCases := []struct {
		name       string
		field      string
		value      string
		errorMatch string
	}{
		{"ph above range", "ph", "15", "between 0 and 14"},
		{"humidity above range", "humidity", "150", "between 0 and 100"},
		{"negative nitrogen", "N", "-1", "between 0 and 200"},
		{"temperature too cold", "temperature", "-10.5", "between -10 and 50"},
		{"non numeric", "K", "lots", "not a number"},
		{"missing", "rainfall", "", "is required"},
		{"whitespace only", "P", "   ", "is required"},
		{"nan", "ph", "NaN", "not a number"},
		{"infinity", "rainfall", "+Inf", "not a number"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			form := validForm()
			form[tc.field] = tc.value

			req, err := ParseCropRecommendation(form)
			require.Error(t, err)
			assert.Nil(t, req)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, []string{tc.field}, verrs.Fields())
			assert.Contains(t, err.Error(), tc.errorMatch)
		})
	}
}

func TestParseCropRecommendation_ReportsEveryField(t *testing.T) {
	_, err := ParseCropRecommendation(map[string]string{"ph": "20"})

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, len(CropFields))
}

func TestCropRecommendationRequest_Validate(t *testing.T) {
	req := CropRecommendationRequest{N: 10, P: 10, K: 10, Temperature: 20, Humidity: 150, PH: 15, Rainfall: 100}

	err := req.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"humidity", "ph"}, verrs.Fields())
}

func TestCropRecommendationResult_ConfidencePercent(t *testing.T) {
	assert.Equal(t, 76, CropRecommendationResult{Confidence: 0.76}.ConfidencePercent())
	assert.Equal(t, 77, CropRecommendationResult{Confidence: 0.768}.ConfidencePercent())
	assert.Equal(t, 100, CropRecommendationResult{Confidence: 1}.ConfidencePercent())
	assert.Equal(t, 0, CropRecommendationResult{}.ConfidencePercent())
}

func TestSensorReading_FormValues(t *testing.T) {
	form := validForm()
	for k, v := range (SensorReading{N: 42, P: 17.5, K: 80, PH: 6.8}).FormValues() {
		form[k] = v
	}

	req, err := ParseCropRecommendation(form)
	require.NoError(t, err)
	assert.Equal(t, 42.0, req.N)
	assert.Equal(t, 17.5, req.P)
	assert.Equal(t, 6.8, req.PH)
}
