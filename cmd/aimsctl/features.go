package main

import (
	"github.com/aims/backend/internal/domain"
	"github.com/aims/backend/internal/usecase"
	"github.com/spf13/cobra"
)

type featureOutput struct {
	SKU      string    `json:"sku,omitempty"`
	Features []float64 `json:"features"`
}

func featuresCommand() *cobra.Command {
	var withNames bool

	cmd := &cobra.Command{
		Use:   "features [items.json]",
		Short: "Assemble sales feature vectors",
		Long:  `Read a JSON array of inventory items and print the 32-slot feature vector for each.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []domain.SalesItem
			if err := readJSONFile(cmd, args[0], &items); err != nil {
				return err
			}

			rows := make([]featureOutput, 0, len(items))
			for _, item := range items {
				rows = append(rows, featureOutput{SKU: item.SKU, Features: usecase.AssembleFeatures(item)})
			}

			if withNames {
				return writeJSON(cmd, map[string]interface{}{
					"names": usecase.FeatureNames(),
					"items": rows,
				})
			}
			return writeJSON(cmd, rows)
		},
	}

	cmd.Flags().BoolVar(&withNames, "names", false, "Include the feature names")

	return cmd
}
