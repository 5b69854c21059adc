package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Classifier produces a ranked class prediction for a single product image
type Classifier interface {
	Classify(ctx context.Context, image ImageUpload) (*ClassificationPrediction, error)
}

// Detector locates products in an image and reads the text inside each region
type Detector interface {
	Detect(ctx context.Context, image ImageUpload) ([]Detection, error)
}

// Regressor is a loaded sales-units model. Implementations are created once
// at startup and must be closed by their owner.
type Regressor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
	Info() ModelInfo
	Close() error
}
