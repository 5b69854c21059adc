package http

import (
	"github.com/aims/backend/config"
	"github.com/aims/backend/internal/infrastructure/metrics"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router. m may be nil, in which
// case /metrics is not served.
func SetupRouter(cfg *config.Config, handler *Handler, m *metrics.Metrics) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if cfg.Server.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	if m != nil {
		router.Use(MetricsMiddleware(m))
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/detect", handler.Predict)
		v1.GET("/train-info", handler.TrainInfo)

		// Vision endpoints
		vision := v1.Group("/vision")
		{
			vision.POST("/classify", handler.Classify)
			vision.POST("/detect", handler.Detect)
			vision.POST("/detect-batch", handler.DetectBatch)
			vision.POST("/match", handler.MatchInventory)
			vision.POST("/match-detections", handler.MatchDetections)
		}

		// OCR endpoints
		ocr := v1.Group("/ocr")
		{
			ocr.POST("/identifiers", handler.ExtractIdentifiers)
		}

		// Forecast endpoints
		forecast := v1.Group("/forecast")
		{
			forecast.POST("/predict-sales", handler.PredictSales)
			forecast.POST("/predict-inventory-sales", handler.PredictInventorySales)
			forecast.POST("/features", handler.AssembleFeatures)
			forecast.GET("/model-info", handler.ModelInfo)
		}
	}

	return router
}
