package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/smartagrinode/agrinode/pkg/poller"
	"github.com/spf13/cobra"
)

func newDetectCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "detect <image>",
		Short: "Detect weeds in a field image",
		Long: `Upload a JPG or PNG field image (at most 10 MB) for weed detection.
With --out the annotated image is written to the given file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			res, err := app.client.DetectWeeds(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			saved := ""
			if out != "" {
				if err := writeImage(out, res.DecodeImage); err != nil {
					return err
				}
				saved = out
			}
			app.printer.WeedResult(res, saved)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the annotated image to this file")
	return cmd
}

func newScanCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a weed scan with the field camera",
		Long: `Ask the field node to capture a full round of camera images and show
the weed count of each image as it arrives. With --out-dir the annotated
images are saved as scan-01.jpg, scan-02.jpg and so on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)

			res, err := app.scanField(cmd.Context())
			if res == nil || res.Count == 0 {
				return err
			}

			var saved []string
			if outDir != "" {
				paths, saveErr := saveScan(outDir, res)
				if saveErr != nil {
					return saveErr
				}
				saved = paths
			}
			app.printer.ScanSummary(res, saved)

			if errors.Is(err, poller.ErrTimeout) {
				app.printer.Warn("only %d of %d images arrived", res.Count, app.cfg.Poll.ScanImages)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory to save the annotated images in")
	return cmd
}

func saveScan(dir string, res *models.WeedScanResults) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	paths := make([]string, 0, len(res.Results))
	for i := range res.Results {
		path := filepath.Join(dir, fmt.Sprintf("scan-%02d.jpg", i+1))
		if err := writeImage(path, res.Results[i].DecodeImage); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeImage(path string, decode func() ([]byte, error)) error {
	data, err := decode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
