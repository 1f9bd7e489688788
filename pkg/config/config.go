// Package config provides configuration loading for agrinode.
//
// Values come from hardcoded defaults, then an optional YAML file, then
// AGRINODE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/smartagrinode/agrinode/pkg/logging"
)

// Auth modes.
const (
	AuthModeSession = "session"
	AuthModeBearer  = "bearer"
)

// Config holds the complete agrinode configuration.
type Config struct {
	API     APIConfig      `koanf:"api"`
	Auth    AuthConfig     `koanf:"auth"`
	Poll    PollConfig     `koanf:"poll"`
	Logging logging.Config `koanf:"logging"`
	Server  ServerConfig   `koanf:"server"`
}

// APIConfig points the client at the backend.
type APIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// AuthConfig selects the auth variant and where sessions are kept.
type AuthConfig struct {
	Mode        string `koanf:"mode"` // "session" (cookies) or "bearer"
	Token       Secret `koanf:"token"`
	SessionFile string `koanf:"session_file"`
}

// PollConfig holds the bounded poll settings per operation.
type PollConfig struct {
	Sensors    PollJobConfig `koanf:"sensors"`
	WeedScan   PollJobConfig `koanf:"weed_scan"`
	ScanImages int           `koanf:"scan_images"`
}

// PollJobConfig is the interval and attempt budget of one poll.
type PollJobConfig struct {
	Interval    time.Duration `koanf:"interval"`
	MaxAttempts int           `koanf:"max_attempts"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	Addr           string        `koanf:"addr"`
	Database       string        `koanf:"database"`
	JWTSecret      Secret        `koanf:"jwt_secret"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	SensorDelay    time.Duration `koanf:"sensor_delay"`
	ScanInterval   time.Duration `koanf:"scan_interval"`
	UploadDir      string        `koanf:"upload_dir"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:5000"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthModeSession
	}
	if cfg.Auth.SessionFile == "" {
		cfg.Auth.SessionFile = defaultPath("session.json")
	}

	// The camera scan waits for 8 images, 60 attempts 2s apart.
	if cfg.Poll.Sensors.Interval == 0 {
		cfg.Poll.Sensors.Interval = 2 * time.Second
	}
	if cfg.Poll.Sensors.MaxAttempts == 0 {
		cfg.Poll.Sensors.MaxAttempts = 30
	}
	if cfg.Poll.WeedScan.Interval == 0 {
		cfg.Poll.WeedScan.Interval = 2 * time.Second
	}
	if cfg.Poll.WeedScan.MaxAttempts == 0 {
		cfg.Poll.WeedScan.MaxAttempts = 60
	}
	if cfg.Poll.ScanImages == 0 {
		cfg.Poll.ScanImages = 8
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.Database == "" {
		cfg.Server.Database = "agrinode.db"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		}
	}
	if cfg.Server.SensorDelay == 0 {
		cfg.Server.SensorDelay = 3 * time.Second
	}
	if cfg.Server.ScanInterval == 0 {
		cfg.Server.ScanInterval = 1500 * time.Millisecond
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = defaultPath("uploads")
	}
}

// Validate checks the client side of the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must be http or https, got %q", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url has no host: %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}

	switch c.Auth.Mode {
	case AuthModeSession, AuthModeBearer:
	default:
		return fmt.Errorf("auth.mode must be %q or %q, got %q", AuthModeSession, AuthModeBearer, c.Auth.Mode)
	}

	for name, job := range map[string]PollJobConfig{
		"poll.sensors":   c.Poll.Sensors,
		"poll.weed_scan": c.Poll.WeedScan,
	} {
		if job.Interval <= 0 {
			return fmt.Errorf("%s.interval must be > 0", name)
		}
		if job.MaxAttempts <= 0 {
			return fmt.Errorf("%s.max_attempts must be > 0", name)
		}
	}
	if c.Poll.ScanImages <= 0 {
		return errors.New("poll.scan_images must be > 0")
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// ValidateServer checks the settings the development backend needs.
func (c *Config) ValidateServer() error {
	secret := c.Server.JWTSecret.Value()
	if secret == "" || secret == "change_me_in_production" {
		return errors.New("server.jwt_secret is not set or has an invalid value")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.Database == "" {
		return errors.New("server.database is required")
	}
	return nil
}
