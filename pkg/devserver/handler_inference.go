package devserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/smartagrinode/agrinode/pkg/models"
	"go.uber.org/zap"
)

// maxUploadSize caps weed detection uploads.
const maxUploadSize = 16 << 20

var allowedImageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

func (s *Server) handleCropRecommendation(w http.ResponseWriter, r *http.Request) {
	var req models.CropRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.crop.Loaded() {
		s.metrics.InferenceTotal.WithLabelValues("crop", "unavailable").Inc()
		writeError(w, http.StatusInternalServerError, "Crop recommendation model not available")
		return
	}

	result := s.crop.Predict(&req)
	s.metrics.InferenceTotal.WithLabelValues("crop", "ok").Inc()

	claims := claimsFromContext(r.Context())
	if _, err := s.db.SaveCropRecommendation(r.Context(), claims.Identity(), &req, &result); err != nil {
		s.logger.Warn(r.Context(), "failed to store crop recommendation", zap.Error(err))
	}

	s.logger.Info(r.Context(), "crop recommended",
		zap.String("crop", result.RecommendedCrop),
		zap.Float64("confidence", result.Confidence))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWeedDetection(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File size exceeds 16MB limit")
			return
		}
		writeError(w, http.StatusBadRequest, "No image uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		writeError(w, http.StatusBadRequest, "Invalid file format. Only JPG, PNG, JPEG allowed")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read image")
		return
	}
	if len(data) > maxUploadSize {
		writeError(w, http.StatusBadRequest, "File size exceeds 16MB limit")
		return
	}

	det, err := s.weed.Detect(data)
	if err != nil {
		s.metrics.InferenceTotal.WithLabelValues("weed", "error").Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Weed detection failed: %v", err))
		return
	}
	s.metrics.InferenceTotal.WithLabelValues("weed", "ok").Inc()
	s.metrics.WeedsDetected.Observe(float64(det.Count()))

	claims := claimsFromContext(r.Context())
	if _, err := s.db.SaveWeedDetection(r.Context(), claims.Identity(), header.Filename, det.Count(), nil); err != nil {
		s.logger.Warn(r.Context(), "failed to store weed detection", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, models.WeedDetectionResult{
		ResultImage: base64.StdEncoding.EncodeToString(det.Annotated),
		Detections:  det.Count(),
		Message:     "Weed detection completed successfully",
	})
}
