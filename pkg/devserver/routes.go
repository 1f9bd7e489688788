package devserver

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const uploadsPrefix = "/uploads/"

// setupRoutes configures all API routes
func (s *Server) setupRoutes() http.Handler {
	r := s.router
	r.Use(s.requestMiddleware)

	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})).Methods("GET")

	// Public auth endpoints
	r.HandleFunc("/api/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/api/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/api/logout", s.handleLogout).Methods("POST")

	// Device side, called by the field hardware
	r.HandleFunc("/api/device/check-command", s.handleCheckCommand).Methods("GET")
	r.HandleFunc("/api/device/update-sensors", s.handleUpdateSensors).Methods("POST")
	r.HandleFunc("/api/device/upload-image", s.handleUploadImage).Methods("POST")

	if s.opts.UploadDir != "" {
		r.PathPrefix(uploadsPrefix).Handler(
			http.StripPrefix(uploadsPrefix, http.FileServer(http.Dir(s.opts.UploadDir))),
		).Methods("GET")
	}

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(s.authMiddleware)

	protected.HandleFunc("/user", s.handleUser).Methods("GET")
	protected.HandleFunc("/history", s.handleHistory).Methods("GET")
	protected.HandleFunc("/upload-avatar", s.handleUploadAvatar).Methods("POST")
	protected.HandleFunc("/delete-avatar", s.handleDeleteAvatar).Methods("DELETE")

	protected.HandleFunc("/crop-recommendation", s.handleCropRecommendation).Methods("POST")
	protected.HandleFunc("/weed-detection", s.handleWeedDetection).Methods("POST")

	protected.HandleFunc("/sensors/trigger", s.handleTriggerSensors).Methods("POST")
	protected.HandleFunc("/sensors/latest", s.handleLatestSensors).Methods("GET")
	protected.HandleFunc("/device/command/sensors", s.handleTriggerSensors).Methods("POST")
	protected.HandleFunc("/device/sensors/latest", s.handleLatestSensors).Methods("GET")
	protected.HandleFunc("/device/command/weed-scan", s.handleTriggerWeedScan).Methods("POST")
	protected.HandleFunc("/device/weed-scan/results", s.handleWeedScanResults).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// CORS wraps the router so preflight requests never reach route matching.
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}
