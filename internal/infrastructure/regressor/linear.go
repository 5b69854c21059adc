// Package regressor loads pre-trained sales-units models.
package regressor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/aims/backend/internal/domain"
)

// TypeLinear identifies the JSON coefficient model format
const TypeLinear = "linear"

// linearFile is the on-disk form of a linear model exported from training
type linearFile struct {
	Type         string    `json:"type"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

// LinearModel is an ordinary least-squares regressor: intercept + Σ wᵢxᵢ
type LinearModel struct {
	mu           sync.RWMutex
	intercept    float64
	coefficients []float64
	featureNames []string
	path         string
	closed       bool
}

// NewLinearModel builds a model from in-memory coefficients
func NewLinearModel(intercept float64, coefficients []float64, featureNames []string) (*LinearModel, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("linear model has no coefficients")
	}
	if len(featureNames) > 0 && len(featureNames) != len(coefficients) {
		return nil, fmt.Errorf("linear model has %d feature names for %d coefficients",
			len(featureNames), len(coefficients))
	}

	return &LinearModel{
		intercept:    intercept,
		coefficients: append([]float64(nil), coefficients...),
		featureNames: append([]string(nil), featureNames...),
	}, nil
}

// LoadLinear reads a linear model file
func LoadLinear(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var file linearFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode model file %s: %w", path, err)
	}
	if file.Type != "" && file.Type != TypeLinear {
		return nil, fmt.Errorf("model file %s has type %q, want %q", path, file.Type, TypeLinear)
	}

	model, err := NewLinearModel(file.Intercept, file.Coefficients, file.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}
	model.path = path
	return model, nil
}

// Predict returns the model output for one feature vector
func (m *LinearModel) Predict(ctx context.Context, features []float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, domain.ErrModelNotLoaded
	}
	if len(features) != len(m.coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", domain.ErrFeatureMismatch, len(features), len(m.coefficients))
	}

	y := m.intercept
	for i, w := range m.coefficients {
		y += w * features[i]
	}
	return y, nil
}

// Info describes the model
func (m *LinearModel) Info() domain.ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return domain.ModelInfo{
		Loaded:    !m.closed,
		Type:      "LinearRegression",
		ModelPath: m.path,
		Features:  append([]string(nil), m.featureNames...),
		NFeatures: len(m.coefficients),
	}
}

// Close marks the model unusable
func (m *LinearModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
