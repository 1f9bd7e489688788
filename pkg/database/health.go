package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/smartagrinode/agrinode/pkg/logging"
	"go.uber.org/zap"
)

// HealthChecker monitors database connection health
type HealthChecker struct {
	db            *sqlx.DB
	checkInterval time.Duration
	logger        *logging.Logger
	stopChan      chan struct{}
	stopOnce      sync.Once
	mu            sync.RWMutex
	isHealthy     bool
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sqlx.DB, checkInterval time.Duration, logger *logging.Logger) *HealthChecker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HealthChecker{
		db:            db,
		checkInterval: checkInterval,
		logger:        logger.Named("database"),
		stopChan:      make(chan struct{}),
		isHealthy:     true,
	}
}

// Start begins monitoring the database connection
func (chc *HealthChecker) Start() {
	ticker := time.NewTicker(chc.checkInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-chc.stopChan:
				return
			case <-ticker.C:
				chc.checkConnection()
			}
		}
	}()
}

// Stop stops monitoring the database connection
func (chc *HealthChecker) Stop() {
	chc.stopOnce.Do(func() { close(chc.stopChan) })
}

// checkConnection pings the database. The pool reconnects on its own, so a
// failed ping only flips the status until the next successful one.
func (chc *HealthChecker) checkConnection() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := chc.db.PingContext(ctx)

	chc.mu.Lock()
	defer chc.mu.Unlock()

	if err != nil {
		if chc.isHealthy {
			chc.logger.Error(ctx, "database health check failed", zap.Error(err))
		}
		chc.isHealthy = false
		return
	}

	if !chc.isHealthy {
		chc.logger.Info(ctx, "database connection restored")
	}
	chc.isHealthy = true
}

// IsHealthy returns the current health status of the connection
func (chc *HealthChecker) IsHealthy() bool {
	chc.mu.RLock()
	defer chc.mu.RUnlock()
	return chc.isHealthy
}

// Status returns "connected" or "disconnected".
func (chc *HealthChecker) Status() string {
	if chc.IsHealthy() {
		return "connected"
	}
	return "disconnected"
}

// EnsureConnection verifies the connection before a query. An unhealthy
// connection gets one ping to recover.
func (chc *HealthChecker) EnsureConnection(ctx context.Context) error {
	if chc.IsHealthy() {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := chc.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database connection check failed: %w", err)
	}

	chc.mu.Lock()
	chc.isHealthy = true
	chc.mu.Unlock()
	return nil
}
