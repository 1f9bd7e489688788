package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecommendCrop(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/crop-recommendation", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 90.0, body["N"])
		assert.Equal(t, 6.5, body["ph"])
		assert.Equal(t, 202.9, body["rainfall"])

		writeJSON(w, http.StatusOK, map[string]interface{}{"recommended_crop": "Rice", "confidence": 0.76})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	result, err := c.RecommendCrop(context.Background(), &models.CropRecommendationRequest{
		N: 90, P: 42, K: 43, Temperature: 20.8, Humidity: 82, PH: 6.5, Rainfall: 202.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rice", result.RecommendedCrop)
	assert.Equal(t, 76, result.ConfidencePercent())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = c.RecommendCrop(context.Background(), &models.CropRecommendationRequest{PH: 15})
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), models.FieldPH)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "invalid input is never sent")
}

func TestDetectWeeds(t *testing.T) {
	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/weed-detection", r.URL.Path)
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, img, data)
		assert.Equal(t, "field.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))

		writeJSON(w, http.StatusOK, models.WeedDetectionResult{ResultImage: "aGk=", Detections: 3, Message: "Detected 3 weeds"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	result, err := c.DetectWeeds(context.Background(), "field.png", img)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Detections)
	decoded, err := result.DecodeImage()
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), decoded)

	_, err = c.DetectWeeds(context.Background(), "notes.txt", []byte("plain text"))
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSensors(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sensors/trigger":
			assert.Equal(t, http.MethodPost, r.Method)
			writeJSON(w, http.StatusOK, models.Ack{Message: "Sensor reading triggered"})
		case "/api/sensors/latest":
			if atomic.AddInt32(&polls, 1) < 2 {
				writeJSON(w, http.StatusOK, models.SensorStatus{Status: models.SensorStatusPending})
				return
			}
			writeJSON(w, http.StatusOK, models.SensorStatus{
				Status: models.SensorStatusComplete,
				Data:   &models.SensorReading{N: 90, P: 42, K: 43, PH: 6.5},
			})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	ack, err := c.TriggerSensors(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sensor reading triggered", ack.Message)

	status, err := c.LatestSensors(ctx)
	require.NoError(t, err)
	assert.False(t, status.Complete())

	status, err = c.LatestSensors(ctx)
	require.NoError(t, err)
	require.True(t, status.Complete())
	assert.Equal(t, 6.5, status.Data.PH)
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/history", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{
			"crop_recommendations": [{"id": "1", "created_at": "2024-03-01T10:00:00Z", "recommended_crop": "Rice", "confidence": 0.76}],
			"weed_detections": [{"id": "2", "created_at": "2024-03-02T10:00:00Z", "image_filename": "a.jpg", "weed_count": 4}]
		}`))
	}))
	defer srv.Close()

	h, err := NewClient(srv.URL).History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, h.CropRecommendations, 1)
	require.Len(t, h.WeedDetections, 1)
	assert.Equal(t, "Rice", h.CropRecommendations[0].RecommendedCrop)
	assert.Equal(t, 4, h.WeedDetections[0].WeedCount)
}

func TestWeedScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/device/command/weed-scan":
			writeJSON(w, http.StatusOK, models.Ack{Message: "Weed scan command sent"})
		case "/api/device/weed-scan/results":
			writeJSON(w, http.StatusOK, models.WeedScanResults{
				Count:   2,
				Results: []models.WeedScanImage{{Image: "aGk=", WeedCount: 2}, {Image: "aGk=", WeedCount: 1}},
			})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.TriggerWeedScan(context.Background())
	require.NoError(t, err)

	results, err := c.WeedScanResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, results.Count)
	assert.Equal(t, 3, results.TotalWeeds())
}

func TestAvatar(t *testing.T) {
	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/upload-avatar":
			_, _, err := r.FormFile("file")
			require.NoError(t, err)
			writeJSON(w, http.StatusOK, models.AvatarResponse{AvatarURL: "/uploads/avatar.png"})
		case "/api/delete-avatar":
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.UploadAvatar(context.Background(), "me.png", img)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatar.png", resp.AvatarURL)

	require.NoError(t, c.DeleteAvatar(context.Background()))
}

func TestRegister(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Username already exists"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Register(context.Background(), models.RegisterRequest{Username: "farmer", Email: "bad", Password: "123"})
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"email", "password"}, verrs.Fields())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	err = c.Register(context.Background(), models.RegisterRequest{Username: "farmer", Email: "f@example.com", Password: "123456"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Username already exists", apiErr.Message)
}
