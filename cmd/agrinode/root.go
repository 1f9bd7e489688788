package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/smartagrinode/agrinode/pkg/api"
	"github.com/smartagrinode/agrinode/pkg/auth"
	"github.com/smartagrinode/agrinode/pkg/config"
	"github.com/smartagrinode/agrinode/pkg/display"
	"github.com/smartagrinode/agrinode/pkg/logging"
	"github.com/smartagrinode/agrinode/pkg/poller"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootFlags struct {
	configPath string
	baseURL    string
	logLevel   string
}

// newRootCmd builds the command tree. The returned func releases what the
// executed command set up and is safe to call when nothing ran.
func newRootCmd() (*cobra.Command, func()) {
	flags := &rootFlags{}
	var app *App

	cmd := &cobra.Command{
		Use:   "agrinode",
		Short: "SmartAgriNode - crop recommendation and weed detection from the command line",
		Long: `agrinode talks to a SmartAgriNode backend: sign in, get crop
recommendations from soil and climate readings, detect weeds in field
images, trigger the field sensors and camera, and review your history.

It can also run a development backend with "agrinode serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			app = a
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/agrinode/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "backend URL (overrides api.base_url)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRecommendCmd(),
		newDetectCmd(),
		newSensorsCmd(),
		newScanCmd(),
		newHistoryCmd(),
		newAvatarCmd(),
		newHealthCmd(),
		newServeCmd(),
	)

	cleanup := func() {
		if app != nil {
			app.Close()
		}
	}
	return cmd, cleanup
}

type appKey struct{}

// App is everything a command needs, built once per invocation.
type App struct {
	cfg      *config.Config
	logger   *logging.Logger
	client   *api.Client
	store    *auth.Store
	provider auth.Provider
	polls    *poller.Service
	printer  *display.Printer
	in       *bufio.Reader
}

func newApp(cmd *cobra.Command, flags *rootFlags) (*App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.baseURL != "" {
		cfg.API.BaseURL = flags.baseURL
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger),
	)
	store := auth.NewStore(cfg.Auth.SessionFile)

	var provider auth.Provider
	switch cfg.Auth.Mode {
	case config.AuthModeBearer:
		p := auth.NewBearerProvider(client, store, cfg.Auth.Token.Value())
		if err := p.Restore(); err != nil {
			logger.Warn(cmd.Context(), "ignoring stored session", zap.Error(err))
		}
		provider = p
	default:
		p := auth.NewSessionProvider(client, store)
		if err := p.Restore(); err != nil {
			logger.Warn(cmd.Context(), "ignoring stored session", zap.Error(err))
		}
		provider = p
	}
	client.UseTokenSource(provider)

	logger.Debug(cmd.Context(), "agrinode started",
		zap.String("base_url", cfg.API.BaseURL),
		zap.String("auth_mode", cfg.Auth.Mode))

	return &App{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		store:    store,
		provider: provider,
		polls:    poller.NewService(logger),
		printer:  display.NewPrinter(cmd.OutOrStdout()),
		in:       bufio.NewReader(cmd.InOrStdin()),
	}, nil
}

func appFrom(cmd *cobra.Command) *App {
	app, _ := cmd.Context().Value(appKey{}).(*App)
	return app
}

// Close stops background polls and flushes the logger.
func (a *App) Close() {
	a.polls.Stop()
	_ = a.logger.Sync()
}
