package main

import (
	"github.com/aims/backend/internal/domain"
	"github.com/aims/backend/internal/usecase"
	"github.com/spf13/cobra"
)

func matchCommand(debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match model output against an inventory",
	}

	cmd.AddCommand(matchClassifyCommand(debug), matchDetectCommand(debug))

	return cmd
}

func matchClassifyCommand(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [prediction.json] [inventory.json]",
		Short: "Rank inventory items against a classification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prediction domain.ClassificationPrediction
			if err := readJSONFile(cmd, args[0], &prediction); err != nil {
				return err
			}
			var inventory []domain.InventoryItem
			if err := readJSONFile(cmd, args[1], &inventory); err != nil {
				return err
			}

			matcher := usecase.NewMatchingService(usecase.MatchConfig{EnableDebugLogging: *debug})
			return writeJSON(cmd, matcher.MatchClassification(&prediction, inventory))
		},
	}
}

func matchDetectCommand(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [detections.json] [inventory.json]",
		Short: "Pair detections with inventory items by OCR text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var detections []domain.Detection
			if err := readJSONFile(cmd, args[0], &detections); err != nil {
				return err
			}
			var inventory []domain.InventoryItem
			if err := readJSONFile(cmd, args[1], &inventory); err != nil {
				return err
			}

			matcher := usecase.NewMatchingService(usecase.MatchConfig{EnableDebugLogging: *debug})
			return writeJSON(cmd, matcher.MatchDetections(detections, inventory))
		},
	}
}

func identifiersCommand(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "identifiers [text]",
		Short: "Extract SKU and barcode from label text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor := usecase.NewIdentifierExtractor(*debug)
			return writeJSON(cmd, extractor.Extract(args[0]))
		},
	}
}
