package main

import (
	"github.com/aims/backend/internal/domain"
	"github.com/aims/backend/internal/infrastructure/regressor"
	"github.com/aims/backend/internal/usecase"
	"github.com/spf13/cobra"
)

func predictCommand() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "predict [items.json]",
		Short: "Forecast units sold with a linear model",
		Long:  `Load a linear sales model and print restocking predictions for a JSON array of items.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []domain.SalesItem
			if err := readJSONFile(cmd, args[0], &items); err != nil {
				return err
			}

			model, err := regressor.LoadLinear(modelPath)
			if err != nil {
				return err
			}
			defer model.Close()

			forecast, err := usecase.NewForecastService(model, nil).PredictInventorySales(cmd.Context(), items)
			if err != nil {
				return err
			}
			return writeJSON(cmd, forecast)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "ml-models/units_sold_model.json", "Path to the linear model file")

	return cmd
}
