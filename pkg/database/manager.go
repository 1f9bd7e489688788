// Package database stores accounts and activity history for the development
// backend. It runs on PostgreSQL or on an embedded SQLite file.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/smartagrinode/agrinode/pkg/logging"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Drivers supported by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DatabaseManager handles all database operations
type DatabaseManager struct {
	db            *sqlx.DB
	driver        string
	healthChecker *HealthChecker
	logger        *logging.Logger
}

// NewDatabaseManager opens dsn, verifies the connection and starts health checking.
func NewDatabaseManager(ctx context.Context, dsn string, logger *logging.Logger) (*DatabaseManager, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	db, driver, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	dm := &DatabaseManager{
		db:            db,
		driver:        driver,
		healthChecker: NewHealthChecker(db, 30*time.Second, logger),
		logger:        logger.Named("database"),
	}

	dm.healthChecker.Start()

	dm.logger.Info(ctx, "database connected", zap.String("driver", driver))
	return dm, nil
}

// Open connects to dsn. postgres:// and postgresql:// URLs use lib/pq;
// anything else is treated as a SQLite file path.
func Open(ctx context.Context, dsn string) (*sqlx.DB, string, error) {
	driver := DriverSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = DriverPostgres
	} else if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection also keeps
		// :memory: databases alive across queries.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	return db, driver, nil
}

// GetDB returns the underlying database connection
func (dm *DatabaseManager) GetDB() *sqlx.DB {
	return dm.db
}

// Driver returns the name of the driver in use.
func (dm *DatabaseManager) Driver() string {
	return dm.driver
}

// Close closes the database connection and stops health checking
func (dm *DatabaseManager) Close() error {
	if dm.healthChecker != nil {
		dm.healthChecker.Stop()
	}
	if dm.db != nil {
		return dm.db.Close()
	}
	return nil
}

// IsConnectionHealthy returns the current health status
func (dm *DatabaseManager) IsConnectionHealthy() bool {
	return dm.healthChecker.IsHealthy()
}

// Init initializes the database with migrations
func (dm *DatabaseManager) Init(ctx context.Context) error {
	runner, err := NewMigrationsRunner(dm.db, dm.logger)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (dm *DatabaseManager) getContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return err
	}
	return dm.db.GetContext(ctx, dest, dm.db.Rebind(query), args...)
}

func (dm *DatabaseManager) selectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return err
	}
	return dm.db.SelectContext(ctx, dest, dm.db.Rebind(query), args...)
}

func (dm *DatabaseManager) execContext(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return 0, err
	}
	res, err := dm.db.ExecContext(ctx, dm.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// Status reports the connection state for health output.
func (dm *DatabaseManager) Status() string {
	return dm.healthChecker.Status()
}
