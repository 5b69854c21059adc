package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"slices"
	"time"

	"github.com/aims/backend/internal/domain"
	"github.com/aims/backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "aims-backend"
	serviceVersion = "1.0.0"

	runtimeHealthTimeout = 2 * time.Second
)

// RuntimeChecker reports whether the external model runtime is reachable
type RuntimeChecker interface {
	Health(ctx context.Context) error
}

// HandlerConfig holds the non-service dependencies of Handler
type HandlerConfig struct {
	TrainingDataDir    string
	Runtime            RuntimeChecker
	EnableDebugLogging bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	visionService   *usecase.VisionService
	forecastService *usecase.ForecastService
	extractor       *usecase.IdentifierExtractor
	runtime         RuntimeChecker
	trainingDataDir string
}

// NewHandler creates a new HTTP handler. Either service may be nil; its
// endpoints then answer 503.
func NewHandler(
	visionService *usecase.VisionService,
	forecastService *usecase.ForecastService,
	config HandlerConfig,
) *Handler {
	return &Handler{
		visionService:   visionService,
		forecastService: forecastService,
		extractor:       usecase.NewIdentifierExtractor(config.EnableDebugLogging),
		runtime:         config.Runtime,
		trainingDataDir: config.TrainingDataDir,
	}
}

// Request bodies

type matchRequest struct {
	Prediction *domain.ClassificationPrediction `json:"prediction"`
	Inventory  []domain.InventoryItem           `json:"inventory"`
}

type matchDetectionsRequest struct {
	Detections []domain.Detection     `json:"detections"`
	Inventory  []domain.InventoryItem `json:"inventory"`
}

type identifiersRequest struct {
	Text string `json:"text"`
}

type predictSalesRequest struct {
	Features []float64 `json:"features"`
}

type predictInventorySalesRequest struct {
	Items []domain.SalesItem `json:"items"`
}

type featuresRequest struct {
	Item domain.SalesItem `json:"item"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":       "healthy",
		"service":      serviceName,
		"version":      serviceVersion,
		"mode":         "",
		"model_loaded": h.forecastService != nil && h.forecastService.ModelLoaded(),
		"timestamp":    time.Now().UTC(),
	}
	if h.visionService != nil {
		response["mode"] = h.visionService.Mode()
	}

	if h.runtime != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), runtimeHealthTimeout)
		defer cancel()

		if err := h.runtime.Health(ctx); err != nil {
			log.Printf("[HEALTH] Model runtime unreachable: %v", err)
			response["runtime"] = "unreachable"
		} else {
			response["runtime"] = "reachable"
		}
	}

	c.JSON(http.StatusOK, response)
}

// Classify handles single-image classification with optional inventory matching
func (h *Handler) Classify(c *gin.Context) {
	if h.visionService == nil {
		respondError(c, domain.ErrModelNotLoaded)
		return
	}

	upload, err := h.readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.visionService.Classify(c.Request.Context(), upload, readInventory(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Detect handles single-image detection with inventory matching
func (h *Handler) Detect(c *gin.Context) {
	if h.visionService == nil {
		respondError(c, domain.ErrModelNotLoaded)
		return
	}

	upload, err := h.readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.visionService.Detect(c.Request.Context(), upload, readInventory(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Predict runs whichever mode the service is configured for
func (h *Handler) Predict(c *gin.Context) {
	if h.visionService == nil {
		respondError(c, domain.ErrModelNotLoaded)
		return
	}

	upload, err := h.readUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.visionService.Predict(c.Request.Context(), upload, readInventory(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DetectBatch handles multi-image detection. Per-file failures are
// reported inside the results.
func (h *Handler) DetectBatch(c *gin.Context) {
	if h.visionService == nil {
		respondError(c, domain.ErrModelNotLoaded)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrNoFile, err))
		return
	}

	headers := slices.Concat(form.File["files"], form.File["files[]"])
	if len(headers) == 0 {
		respondError(c, domain.ErrNoFile)
		return
	}

	uploads := make([]domain.ImageUpload, 0, len(headers))
	readErrs := make(map[int]error)
	for i, header := range headers {
		upload, err := h.readFileHeader(header)
		if err != nil {
			// Unreadable files stay in the batch with no data so the service
			// reports them in place
			log.Printf("[HTTP] Could not read %q: %v", header.Filename, err)
			upload = domain.ImageUpload{Filename: header.Filename}
			readErrs[i] = err
		}
		uploads = append(uploads, upload)
	}

	resp, err := h.visionService.DetectBatch(c.Request.Context(), uploads, readInventory(c))
	if err != nil {
		respondError(c, err)
		return
	}

	for i, readErr := range readErrs {
		resp.Results[i].Error = readErr.Error()
	}

	c.JSON(http.StatusOK, resp)
}

// MatchInventory runs the classification matcher on a caller-supplied prediction
func (h *Handler) MatchInventory(c *gin.Context) {
	if h.visionService == nil {
		respondError(c, domain.ErrModelNotLoaded)
		return
	}

	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	if req.Prediction == nil {
		respondError(c, fmt.Errorf("%w: prediction is required", domain.ErrInvalidRequest))
		return
	}

	c.JSON(http.StatusOK, h.visionService.Matcher().MatchClassification(req.Prediction, req.Inventory))
}

// MatchDetections runs the detection matcher on caller-supplied detections
func (h *Handler) MatchDetections(c *gin.Context) {
	if h.visionService == nil {
		respondError(c, domain.ErrModelNotLoaded)
		return
	}

	var req matchDetectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	matches := h.visionService.Matcher().MatchDetections(req.Detections, req.Inventory)
	matchedCount := 0
	for _, m := range matches {
		if m.IsMatched {
			matchedCount++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"total_detections": len(matches),
		"matched_count":    matchedCount,
		"detections":       matches,
	})
}

// ExtractIdentifiers pulls SKU and barcode candidates out of OCR text
func (h *Handler) ExtractIdentifiers(c *gin.Context) {
	var req identifiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	c.JSON(http.StatusOK, h.extractor.Extract(req.Text))
}

// PredictSales runs the regressor on a raw feature vector
func (h *Handler) PredictSales(c *gin.Context) {
	if h.forecastService == nil {
		respondError(c, domain.ErrModelNotLoaded)
		return
	}

	var req predictSalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	resp, err := h.forecastService.PredictSales(c.Request.Context(), req.Features)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PredictInventorySales predicts weekly sales and restocking for inventory items
func (h *Handler) PredictInventorySales(c *gin.Context) {
	if h.forecastService == nil {
		respondError(c, domain.ErrModelNotLoaded)
		return
	}

	var req predictInventorySalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	resp, err := h.forecastService.PredictInventorySales(c.Request.Context(), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AssembleFeatures returns the regressor input for one item without predicting
func (h *Handler) AssembleFeatures(c *gin.Context) {
	var req featuresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"features": usecase.AssembleFeatures(req.Item),
		"names":    usecase.FeatureNames(),
	})
}

// ModelInfo describes the loaded regressor
func (h *Handler) ModelInfo(c *gin.Context) {
	if h.forecastService == nil || !h.forecastService.ModelLoaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"loaded": false,
			"error":  domain.ErrModelNotLoaded.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.forecastService.ModelInfo())
}

// TrainInfo reports the local training image count
func (h *Handler) TrainInfo(c *gin.Context) {
	mode := ""
	if h.visionService != nil {
		mode = h.visionService.Mode()
	}

	info, err := usecase.TrainingInfo(h.trainingDataDir, mode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// readUpload reads the multipart file field into memory
func (h *Handler) readUpload(c *gin.Context, field string) (domain.ImageUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return domain.ImageUpload{}, domain.ErrNoFile
	}
	return h.readFileHeader(header)
}

func (h *Handler) readFileHeader(header *multipart.FileHeader) (domain.ImageUpload, error) {
	limit := h.visionService.MaxUploadBytes()
	if header.Size > limit {
		return domain.ImageUpload{}, fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrFileTooLarge, header.Size, limit)
	}

	file, err := header.Open()
	if err != nil {
		return domain.ImageUpload{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return domain.ImageUpload{}, fmt.Errorf("read upload: %w", err)
	}

	return domain.ImageUpload{Filename: header.Filename, Data: data}, nil
}

// readInventory decodes the optional inventory form field. Malformed JSON is
// logged and treated as an empty inventory.
func readInventory(c *gin.Context) []domain.InventoryItem {
	raw := c.PostForm("inventory")
	if raw == "" {
		return nil
	}

	var inventory []domain.InventoryItem
	if err := json.Unmarshal([]byte(raw), &inventory); err != nil {
		log.Printf("[HTTP] Ignoring malformed inventory field: %v", err)
		return nil
	}
	return inventory
}

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrNoFile),
		errors.Is(err, domain.ErrUnsupportedFile),
		errors.Is(err, domain.ErrFileTooLarge),
		errors.Is(err, domain.ErrFeatureMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrModelNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInferenceFailure):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
