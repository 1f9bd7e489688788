// Package devserver is a development backend that honours the SmartAgriNode
// HTTP contract. Inference is simulated and the field device falls back to
// generated readings and camera frames when no hardware reports in.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/smartagrinode/agrinode/pkg/database"
	"github.com/smartagrinode/agrinode/pkg/logging"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	SensorDelay    time.Duration
	ScanInterval   time.Duration
	ScanImages     int
	UploadDir      string
}

func (o *Options) applyDefaults() {
	if o.TokenTTL == 0 {
		o.TokenTTL = 24 * time.Hour
	}
	if o.SensorDelay == 0 {
		o.SensorDelay = 3 * time.Second
	}
	if o.ScanInterval == 0 {
		o.ScanInterval = 1500 * time.Millisecond
	}
	if o.ScanImages == 0 {
		o.ScanImages = 8
	}
}

// Server serves the backend API.
type Server struct {
	opts    Options
	db      *database.DatabaseManager
	logger  *logging.Logger
	metrics *Metrics
	crop    CropModel
	weed    WeedModel
	device  *device
	router  *mux.Router
	handler http.Handler
}

// New creates a server on top of a migrated database.
func New(db *database.DatabaseManager, opts Options, logger *logging.Logger) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	opts.applyDefaults()

	s := &Server{
		opts:    opts,
		db:      db,
		logger:  logger.Named("devserver"),
		metrics: NewMetrics(),
		crop:    NewCentroidModel(),
		weed:    NewGreenDetector(),
		router:  mux.NewRouter(),
	}
	s.device = newDevice(s.weed, opts, s.logger)
	s.handler = s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the server's Prometheus collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Close stops running device simulations.
func (s *Server) Close() {
	s.device.stop()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Handler:      s.handler,
		Addr:         addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting SmartAgriNode dev server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "shutdown signal received")
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
