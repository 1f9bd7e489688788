package main

import (
	"fmt"

	"github.com/smartagrinode/agrinode/pkg/database"
	"github.com/smartagrinode/agrinode/pkg/devserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var addr, dsn string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development backend",
		Long: `Start a backend that speaks the SmartAgriNode API. Crop recommendation
and weed detection are simulated, and the field node falls back to generated
readings and images when no hardware reports in.

Set server.jwt_secret (or AGRINODE_SERVER_JWT_SECRET) before starting.
The database is a SQLite file unless a postgres:// URL is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			cfg := app.cfg

			if addr != "" {
				cfg.Server.Addr = addr
			}
			if dsn != "" {
				cfg.Server.Database = dsn
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			ctx := cmd.Context()
			dbManager, err := database.NewDatabaseManager(ctx, cfg.Server.Database, app.logger)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer dbManager.Close()

			// Run migrations
			if err := dbManager.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}

			server, err := devserver.New(dbManager, devserver.Options{
				JWTSecret:      cfg.Server.JWTSecret.Value(),
				AllowedOrigins: cfg.Server.AllowedOrigins,
				SensorDelay:    cfg.Server.SensorDelay,
				ScanInterval:   cfg.Server.ScanInterval,
				ScanImages:     cfg.Poll.ScanImages,
				UploadDir:      cfg.Server.UploadDir,
			}, app.logger)
			if err != nil {
				return err
			}

			app.logger.Info(ctx, "database ready", zap.String("driver", dbManager.Driver()))
			return server.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&dsn, "database", "", "SQLite path or postgres:// URL (overrides server.database)")
	return cmd
}
