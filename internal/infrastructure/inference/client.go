package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aims/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	maxAttempts        = 3
	defaultBackoffBase = 500 * time.Millisecond
	maxErrorBodyBytes  = 1024
	maxResponseBytes   = 10 << 20
)

// ClientConfig configures the model runtime client
type ClientConfig struct {
	BaseURL             string
	Timeout             time.Duration
	RequestsPerSecond   float64
	Burst               int
	TopK                int
	ConfidenceThreshold float64
}

// Client talks to the model runtime that hosts the classifier and the
// detector+OCR pipeline. It satisfies domain.Classifier and domain.Detector.
type Client struct {
	httpClient          *http.Client
	baseURL             string
	topK                int
	confidenceThreshold float64
	rateLimiter         *rate.Limiter
	backoffBase         time.Duration
	debug               bool
}

// NewClient creates a new model runtime client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second // OCR on large shelf photos is slow
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:             cfg.BaseURL,
		topK:                topK,
		confidenceThreshold: cfg.ConfidenceThreshold,
		rateLimiter:         rate.NewLimiter(rate.Limit(rps), burst),
		backoffBase:         defaultBackoffBase,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Classify sends a product image to the classifier and returns its top-K prediction
func (c *Client) Classify(ctx context.Context, image domain.ImageUpload) (*domain.ClassificationPrediction, error) {
	params := url.Values{}
	params.Add("top_k", strconv.Itoa(c.topK))

	var raw classifyResponse
	if err := c.postImage(ctx, "/classify", params, image, &raw); err != nil {
		return nil, err
	}

	prediction, err := MapClassification(&raw, c.topK)
	if err != nil {
		return nil, err
	}

	c.debugLog("[INFER] Classified %q as %q (%.1f%%)", image.Filename, prediction.PredictedClass, prediction.Confidence*100)
	return prediction, nil
}

// Detect sends a shelf image to the detector and returns every region above the confidence threshold
func (c *Client) Detect(ctx context.Context, image domain.ImageUpload) ([]domain.Detection, error) {
	params := url.Values{}
	params.Add("conf", strconv.FormatFloat(c.confidenceThreshold, 'f', -1, 64))

	var raw detectResponse
	if err := c.postImage(ctx, "/detect", params, image, &raw); err != nil {
		return nil, err
	}

	detections := MapDetections(&raw, c.confidenceThreshold)

	c.debugLog("[INFER] Detected %d products in %q", len(detections), image.Filename)
	return detections, nil
}

// Health checks that the model runtime is reachable
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInferenceFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", domain.ErrInferenceFailure, resp.StatusCode)
	}
	return nil
}

// postImage uploads image as multipart field "file" and decodes the JSON reply into out.
// Transport errors, 429 and 5xx are retried; other 4xx fail immediately.
func (c *Client) postImage(ctx context.Context, path string, params url.Values, image domain.ImageUpload, out interface{}) error {
	body, contentType, err := encodeImage(image)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[INFER] Rate limiter error: %v", err)
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("User-Agent", "AIMS/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[INFER] Request error (attempt %d): %v", attempt, err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrInferenceFailure, err)
			if !c.sleep(ctx, attempt) {
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			errBody, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
			resp.Body.Close()

			log.Printf("[INFER] Runtime error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(errBody))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrInferenceFailure, resp.StatusCode)

			if !retryable(resp.StatusCode) {
				return lastErr
			}
			if !c.sleep(ctx, attempt) {
				return ctx.Err()
			}
			continue
		}

		payload, err := readLimitedBody(resp.Body, maxResponseBytes)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: read body: %v", domain.ErrInferenceFailure, err)
		}

		if err := json.Unmarshal(payload, out); err != nil {
			log.Printf("[INFER] JSON decode error: %v", err)
			return fmt.Errorf("%w: failed to decode response: %v", domain.ErrInferenceFailure, err)
		}
		return nil
	}

	log.Printf("[INFER] All retries failed for %s", path)
	return lastErr
}

// sleep waits out the backoff for attempt. It returns false if ctx ended first.
func (c *Client) sleep(ctx context.Context, attempt int) bool {
	if attempt >= maxAttempts {
		return true
	}
	timer := time.NewTimer(exponentialBackoff(c.backoffBase, attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf(format, args...)
	}
}

// encodeImage builds the multipart body once so retries can replay it
func encodeImage(image domain.ImageUpload) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	part, err := writer.CreateFormFile("file", image.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// exponentialBackoff doubles base for every attempt after the first
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<(attempt-1))
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
