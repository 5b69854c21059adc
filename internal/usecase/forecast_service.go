package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aims/backend/internal/domain"
)

// salesKind labels regressor calls in telemetry
const salesKind = "sales"

// ForecastService predicts units sold with the loaded regressor and derives
// the restocking fields for inventory items.
type ForecastService struct {
	regressor domain.Regressor
	recorder  Recorder
	now       func() time.Time
}

// NewForecastService creates a forecast service. regressor may be nil when no
// model was loaded; every prediction then fails with ErrModelNotLoaded.
func NewForecastService(regressor domain.Regressor, recorder Recorder) *ForecastService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ForecastService{
		regressor: regressor,
		recorder:  recorder,
		now:       time.Now,
	}
}

// PredictSales runs the regressor on a caller-built feature vector
func (s *ForecastService) PredictSales(ctx context.Context, features []float64) (*domain.SalesForecast, error) {
	if s.regressor == nil {
		return nil, domain.ErrModelNotLoaded
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no features provided", domain.ErrInvalidRequest)
	}

	prediction, err := s.predict(ctx, features)
	if err != nil {
		return nil, err
	}

	return &domain.SalesForecast{
		Prediction: prediction,
		Timestamp:  s.now().UTC(),
	}, nil
}

// PredictInventorySales assembles features for each item and predicts its
// weekly sales. A failing item carries its error and the batch continues.
func (s *ForecastService) PredictInventorySales(ctx context.Context, items []domain.SalesItem) (*domain.InventoryForecast, error) {
	if s.regressor == nil {
		return nil, domain.ErrModelNotLoaded
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items provided", domain.ErrInvalidRequest)
	}

	predictions := make([]domain.SalesPrediction, 0, len(items))
	for _, item := range items {
		currentStock := floatOr(item.CurrentStock, defaultCurrentStock)

		predicted, err := s.predict(ctx, AssembleFeatures(item))
		if err != nil {
			log.Printf("[FORECAST] Prediction failed for %q: %v", item.SKU, err)
			predictions = append(predictions, domain.SalesPrediction{
				SKU:   item.SKU,
				Name:  item.Name,
				Error: err.Error(),
			})
			continue
		}

		predictions = append(predictions, domain.SalesPrediction{
			SKU:               item.SKU,
			Name:              item.Name,
			PredictedSales:    predicted,
			CurrentStock:      currentStock,
			DaysUntilStockout: DaysUntilStockout(currentStock, predicted),
			RecommendedOrder:  RecommendedOrder(floatOr(item.DemandForecast, defaultDemandForecast), currentStock),
		})
	}

	log.Printf("[FORECAST] Predicted sales for %d items", len(predictions))

	return &domain.InventoryForecast{
		Predictions: predictions,
		Timestamp:   s.now().UTC(),
	}, nil
}

// ModelInfo describes the loaded regressor
func (s *ForecastService) ModelInfo() domain.ModelInfo {
	if s.regressor == nil {
		return domain.ModelInfo{Loaded: false}
	}
	return s.regressor.Info()
}

// ModelLoaded reports whether a usable regressor is present
func (s *ForecastService) ModelLoaded() bool {
	return s.regressor != nil && s.regressor.Info().Loaded
}

func (s *ForecastService) predict(ctx context.Context, features []float64) (float64, error) {
	start := time.Now()
	y, err := s.regressor.Predict(ctx, features)
	s.recorder.RecordPrediction(salesKind, time.Since(start), err)
	return y, err
}
