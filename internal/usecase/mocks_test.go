package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/aims/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockClassifier is a mock implementation of domain.Classifier
type MockClassifier struct {
	class      string
	confidence float64
	err        error
	calls      int
}

func (m *MockClassifier) Classify(ctx context.Context, image domain.ImageUpload) (*domain.ClassificationPrediction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ClassificationPrediction{
		PredictedClass: m.class,
		Confidence:     m.confidence,
		TopPredictions: []domain.ClassPrediction{
			{ClassID: 1, ClassName: m.class, Confidence: m.confidence},
		},
	}, nil
}

// MockDetector is a mock implementation of domain.Detector. Files named in
// failFor return err.
type MockDetector struct {
	detections []domain.Detection
	err        error
	failFor    map[string]bool
	calls      int
}

func (m *MockDetector) Detect(ctx context.Context, image domain.ImageUpload) ([]domain.Detection, error) {
	m.calls++
	if m.err != nil && (m.failFor == nil || m.failFor[image.Filename]) {
		return nil, m.err
	}
	out := make([]domain.Detection, len(m.detections))
	copy(out, m.detections)
	return out, nil
}

// MockRegressor is a mock implementation of domain.Regressor computing the sum of features
type MockRegressor struct {
	nFeatures int
	bias      float64
	err       error
	closed    bool
}

func (m *MockRegressor) Predict(ctx context.Context, features []float64) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if len(features) != m.nFeatures {
		return 0, domain.ErrFeatureMismatch
	}
	y := m.bias
	for _, f := range features {
		y += f
	}
	return y, nil
}

func (m *MockRegressor) Info() domain.ModelInfo {
	return domain.ModelInfo{Loaded: !m.closed, Type: "mock", NFeatures: m.nFeatures}
}

func (m *MockRegressor) Close() error {
	m.closed = true
	return nil
}

// recordingRecorder captures telemetry calls
type recordingRecorder struct {
	mu          sync.Mutex
	predictions map[string]int
	errors      map[string]int
	matches     map[string]int
	hits        int
	misses      int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{
		predictions: map[string]int{},
		errors:      map[string]int{},
		matches:     map[string]int{},
	}
}

func (r *recordingRecorder) RecordPrediction(kind string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predictions[kind]++
	if err != nil {
		r.errors[kind]++
	}
}

func (r *recordingRecorder) RecordMatch(matcher, matchType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[matcher+"/"+matchType]++
}

func (r *recordingRecorder) RecordCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}
