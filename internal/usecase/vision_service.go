package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/aims/backend/internal/domain"
	"github.com/google/uuid"
)

// DefaultMaxUploadBytes caps uploaded images when no limit is configured
const DefaultMaxUploadBytes = 16 << 20

// allowedImageExtensions are the upload formats the model runtime can decode
var allowedImageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"webp": true,
	"bmp":  true,
}

// Recorder receives prediction telemetry. *metrics.Metrics implements it.
type Recorder interface {
	RecordPrediction(kind string, duration time.Duration, err error)
	RecordMatch(matcher, matchType string)
	RecordCacheLookup(hit bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordPrediction(string, time.Duration, error) {}
func (noopRecorder) RecordMatch(string, string)                    {}
func (noopRecorder) RecordCacheLookup(bool)                        {}

// VisionServiceConfig holds configuration for the vision service
type VisionServiceConfig struct {
	Mode               string // default mode for Predict
	CacheTTL           time.Duration
	MaxUploadBytes     int64
	EnableDebugLogging bool
}

// VisionService validates uploads, runs the classifier or detector (through
// the prediction cache) and matches the result against the caller's inventory.
type VisionService struct {
	classifier      domain.Classifier
	detector        domain.Detector
	cache           domain.CacheRepository
	matchingService *MatchingService
	recorder        Recorder
	mode            string
	cacheTTL        time.Duration
	maxUploadBytes  int64
	now             func() time.Time
}

// NewVisionService creates a new vision service with dependencies.
// cache and recorder may be nil.
func NewVisionService(
	classifier domain.Classifier,
	detector domain.Detector,
	cache domain.CacheRepository,
	recorder Recorder,
	config VisionServiceConfig,
) *VisionService {
	if recorder == nil {
		recorder = noopRecorder{}
	}

	mode := config.Mode
	if mode == "" {
		mode = domain.ModeDetection
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	maxUploadBytes := config.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}

	return &VisionService{
		classifier: classifier,
		detector:   detector,
		cache:      cache,
		matchingService: NewMatchingService(MatchConfig{
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		recorder:       recorder,
		mode:           mode,
		cacheTTL:       cacheTTL,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// Mode reports the configured default prediction mode
func (s *VisionService) Mode() string {
	return s.mode
}

// Matcher exposes the matching service for callers that already hold predictions
func (s *VisionService) Matcher() *MatchingService {
	return s.matchingService
}

// Predict runs the configured default mode
func (s *VisionService) Predict(ctx context.Context, upload domain.ImageUpload, inventory []domain.InventoryItem) (any, error) {
	if s.mode == domain.ModeClassification {
		return s.Classify(ctx, upload, inventory)
	}
	return s.Detect(ctx, upload, inventory)
}

// Classify identifies the single product in upload and ranks matching inventory items.
// Flow: validate -> check cache -> classify -> cache -> match -> return
func (s *VisionService) Classify(
	ctx context.Context,
	upload domain.ImageUpload,
	inventory []domain.InventoryItem,
) (*domain.ClassifyResponse, error) {
	if s.classifier == nil {
		return nil, fmt.Errorf("%w: classifier", domain.ErrModelNotLoaded)
	}
	if err := s.ValidateUpload(upload); err != nil {
		return nil, err
	}

	key := cacheKey(domain.ModeClassification, upload.Data)

	var prediction *domain.ClassificationPrediction
	var cached domain.ClassificationPrediction
	if s.getFromCache(ctx, key, &cached) {
		prediction = &cached
	} else {
		start := time.Now()
		p, err := s.classifier.Classify(ctx, upload)
		s.recorder.RecordPrediction(domain.ModeClassification, time.Since(start), err)
		if err != nil {
			log.Printf("[VISION] Classification failed for %q: %v", upload.Filename, err)
			return nil, err
		}
		prediction = p
		s.setInCache(ctx, key, prediction)
	}

	imageID := uuid.NewString()
	prediction.ImageID = imageID

	var matched *domain.MatchResult
	if len(inventory) > 0 {
		matched = s.matchingService.MatchClassification(prediction, inventory)
		for _, m := range matched.MatchedItems {
			s.recorder.RecordMatch(domain.ModeClassification, m.MatchType)
		}
	}

	log.Printf("[VISION] Classified %q as %q (%.1f%%)", upload.Filename, prediction.PredictedClass, prediction.Confidence*100)

	return &domain.ClassifyResponse{
		Success:    true,
		Mode:       domain.ModeClassification,
		Prediction: prediction,
		Matched:    matched,
		ImageID:    imageID,
		Timestamp:  s.now().UTC(),
	}, nil
}

// Detect finds every product in upload and pairs each with its best inventory candidate.
// With an empty inventory every detection is returned unmatched.
func (s *VisionService) Detect(
	ctx context.Context,
	upload domain.ImageUpload,
	inventory []domain.InventoryItem,
) (*domain.DetectResponse, error) {
	if s.detector == nil {
		return nil, fmt.Errorf("%w: detector", domain.ErrModelNotLoaded)
	}
	if err := s.ValidateUpload(upload); err != nil {
		return nil, err
	}

	key := cacheKey(domain.ModeDetection, upload.Data)

	var detections []domain.Detection
	if !s.getFromCache(ctx, key, &detections) {
		start := time.Now()
		d, err := s.detector.Detect(ctx, upload)
		s.recorder.RecordPrediction(domain.ModeDetection, time.Since(start), err)
		if err != nil {
			log.Printf("[VISION] Detection failed for %q: %v", upload.Filename, err)
			return nil, err
		}
		detections = d
		s.setInCache(ctx, key, detections)
	}

	matches := s.matchingService.MatchDetections(detections, inventory)

	matchedProducts := []domain.DetectionMatch{}
	for _, m := range matches {
		if m.IsMatched {
			matchedProducts = append(matchedProducts, m)
			s.recorder.RecordMatch(domain.ModeDetection, "matched")
		}
	}

	log.Printf("[VISION] Detected %d products in %q, %d matched", len(matches), upload.Filename, len(matchedProducts))

	return &domain.DetectResponse{
		Success:         true,
		Mode:            domain.ModeDetection,
		TotalDetections: len(matches),
		MatchedCount:    len(matchedProducts),
		Detections:      matches,
		MatchedProducts: matchedProducts,
		ImageID:         uuid.NewString(),
		Timestamp:       s.now().UTC(),
	}, nil
}

// DetectBatch runs Detect over every upload in order. A failing file is
// reported in its own result and does not stop the batch.
func (s *VisionService) DetectBatch(
	ctx context.Context,
	uploads []domain.ImageUpload,
	inventory []domain.InventoryItem,
) (*domain.BatchResponse, error) {
	if len(uploads) == 0 {
		return nil, domain.ErrNoFile
	}

	results := make([]domain.BatchItemResult, 0, len(uploads))
	for _, upload := range uploads {
		resp, err := s.Detect(ctx, upload, inventory)
		if err != nil {
			results = append(results, domain.BatchItemResult{
				Filename: upload.Filename,
				Success:  false,
				Error:    err.Error(),
			})
			continue
		}

		total := resp.TotalDetections
		matched := resp.MatchedCount
		results = append(results, domain.BatchItemResult{
			Filename:        upload.Filename,
			Success:         true,
			TotalDetections: &total,
			MatchedCount:    &matched,
			Detections:      resp.Detections,
		})
	}

	return &domain.BatchResponse{
		Success:   true,
		Processed: len(results),
		Results:   results,
	}, nil
}

// ValidateUpload checks the filename, extension and size of an upload
func (s *VisionService) ValidateUpload(upload domain.ImageUpload) error {
	if upload.Filename == "" {
		return domain.ErrNoFile
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(upload.Filename), "."))
	if !allowedImageExtensions[ext] {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFile, upload.Filename)
	}

	if len(upload.Data) == 0 {
		return fmt.Errorf("%w: empty file %q", domain.ErrInvalidRequest, upload.Filename)
	}
	if int64(len(upload.Data)) > s.maxUploadBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrFileTooLarge, len(upload.Data), s.maxUploadBytes)
	}

	return nil
}

// MaxUploadBytes reports the configured upload size limit
func (s *VisionService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// cacheKey identifies a prediction by image content and mode.
// Format: "prediction:{mode}:{sha256 hex}"
func cacheKey(mode string, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("prediction:%s:%s", mode, hex.EncodeToString(sum[:]))
}

// getFromCache decodes a cached prediction into out. The memory cache hands
// back raw JSON; other stores may return decoded values, which are re-encoded.
func (s *VisionService) getFromCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		s.recorder.RecordCacheLookup(false)
		return false
	}

	data, ok := value.(json.RawMessage)
	if !ok {
		if data, err = json.Marshal(value); err != nil {
			s.recorder.RecordCacheLookup(false)
			return false
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("[VISION] Discarding undecodable cache entry %s: %v", key, err)
		s.recorder.RecordCacheLookup(false)
		return false
	}

	s.recorder.RecordCacheLookup(true)
	return true
}

// setInCache stores a prediction. Failures are logged, never returned.
func (s *VisionService) setInCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		log.Printf("[VISION] Failed to cache %s: %v", key, err)
	}
}
