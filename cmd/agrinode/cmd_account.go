package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/spf13/cobra"
)

func newSensorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sensors",
		Short: "Measure soil nutrients with the field sensors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			reading, err := app.measureSensors(cmd.Context())
			if err != nil {
				return err
			}
			app.printer.SensorReading(reading)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent recommendations and detections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			history, err := app.client.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			app.printer.History(history)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", models.DefaultHistoryLimit, "entries of each kind to show")
	return cmd
}

func newAvatarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "avatar",
		Short: "Manage your profile picture",
	}

	upload := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a new profile picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			res, err := app.client.UploadAvatar(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			app.printer.Success("Avatar updated: %s", res.AvatarURL)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete",
		Short: "Remove the profile picture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			if err := app.client.DeleteAvatar(cmd.Context()); err != nil {
				return err
			}
			app.printer.Success("Avatar removed")
			return nil
		},
	}

	cmd.AddCommand(upload, remove)
	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			health, err := app.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			app.printer.Health(health)
			return nil
		},
	}
}
