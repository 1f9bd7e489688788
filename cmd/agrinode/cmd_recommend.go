package main

import (
	"strings"

	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/spf13/cobra"
)

func newRecommendCmd() *cobra.Command {
	values := make(map[string]*string, len(models.CropFields))
	var fromSensors bool

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a crop for soil and climate readings",
		Long: `Recommend the crop best suited to the given soil nutrients and climate.

Every field is required. With --from-sensors the field node measures N, P, K
and pH first; values given on the command line take precedence.`,
		Example: `  agrinode recommend --n 90 --p 42 --k 43 --temperature 20.8 --humidity 82 --ph 6.5 --rainfall 202.9
  agrinode recommend --from-sensors --temperature 24 --humidity 80 --rainfall 180`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)

			form := make(map[string]string, len(values))
			if fromSensors {
				reading, err := app.measureSensors(cmd.Context())
				if err != nil {
					return err
				}
				app.printer.SensorReading(reading)
				for k, v := range reading.FormValues() {
					form[k] = v
				}
			}
			for _, f := range models.CropFields {
				if cmd.Flags().Changed(flagName(f.Name)) {
					form[f.Name] = *values[f.Name]
				}
			}

			req, err := models.ParseCropRecommendation(form)
			if err != nil {
				return err
			}

			res, err := app.client.RecommendCrop(cmd.Context(), req)
			if err != nil {
				return err
			}
			app.printer.CropResult(res)
			return nil
		},
	}

	for _, f := range models.CropFields {
		usage := f.Label
		if f.Unit != "" {
			usage += " (" + f.Unit + ")"
		}
		usage += ", between " + f.Range.String()
		values[f.Name] = cmd.Flags().String(flagName(f.Name), "", usage)
	}
	cmd.Flags().BoolVar(&fromSensors, "from-sensors", false, "measure N, P, K and pH with the field sensors first")
	return cmd
}

func flagName(field string) string {
	return strings.ToLower(field)
}
