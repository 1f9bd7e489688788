package devserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/smartagrinode/agrinode/pkg/models"
	"go.uber.org/zap"
)

// Dashboard side

func (s *Server) handleTriggerSensors(w http.ResponseWriter, r *http.Request) {
	s.device.requestSensors(r.Context())
	s.metrics.DeviceCommands.WithLabelValues(CommandMeasureSensors).Inc()
	writeJSON(w, http.StatusOK, models.Ack{Message: "Sensor measurement requested"})
}

func (s *Server) handleLatestSensors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.device.latestSensors())
}

func (s *Server) handleTriggerWeedScan(w http.ResponseWriter, r *http.Request) {
	s.device.requestScan(r.Context())
	s.metrics.DeviceCommands.WithLabelValues(CommandStartWeedScan).Inc()
	writeJSON(w, http.StatusOK, models.Ack{Message: "Weed scan requested"})
}

func (s *Server) handleWeedScanResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.device.scanResults())
}

// Hardware side

func (s *Server) handleCheckCommand(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.device.takeCommand())
}

func (s *Server) handleUpdateSensors(w http.ResponseWriter, r *http.Request) {
	var reading models.SensorReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.device.updateSensors(reading)
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "File size exceeds 16MB limit")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Empty body")
		return
	}

	count, err := s.device.addFrame(r.Context(), body)
	if err != nil {
		s.logger.Error(r.Context(), "failed to process device image", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.WeedsDetected.Observe(float64(count))

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "processed", "weed_count": count})
}
