package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Inference InferenceConfig
	Regressor RegressorConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Matching  MatchingConfig
	Training  TrainingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// InferenceConfig holds the model runtime connection settings
type InferenceConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	Mode                string        `mapstructure:"mode"` // "classification" or "detection"
	Timeout             time.Duration `mapstructure:"timeout"`
	TopK                int           `mapstructure:"top_k"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	RequestsPerSecond   float64       `mapstructure:"rps"`
	Burst               int           `mapstructure:"burst"`
}

// RegressorConfig selects and locates the sales-units model
type RegressorConfig struct {
	Type      string `mapstructure:"type"` // "linear", "tflite" or "none"
	ModelPath string `mapstructure:"model_path"`
	Threads   int    `mapstructure:"threads"`
}

// CacheConfig holds prediction cache configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxEntries      int           `mapstructure:"max_entries"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// MatchingConfig holds inventory matcher settings
type MatchingConfig struct {
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// TrainingConfig points at the training image directory reported by train-info
type TrainingConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/aims/")

	// Environment variable settings: server.port -> AIMS_SERVER_PORT
	v.SetEnvPrefix("AIMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_bytes", 16<<20)
	v.SetDefault("server.shutdown_timeout", "10s")

	// Inference defaults
	v.SetDefault("inference.base_url", "http://localhost:5001")
	v.SetDefault("inference.mode", "detection")
	v.SetDefault("inference.timeout", "60s")
	v.SetDefault("inference.top_k", 5)
	v.SetDefault("inference.confidence_threshold", 0.25)
	v.SetDefault("inference.rps", 10)
	v.SetDefault("inference.burst", 10)

	// Regressor defaults
	v.SetDefault("regressor.type", "linear")
	v.SetDefault("regressor.model_path", "ml-models/units_sold_model.json")
	v.SetDefault("regressor.threads", 0)

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.max_entries", 1000)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Matching defaults
	v.SetDefault("matching.enable_debug_logging", false)

	// Training defaults
	v.SetDefault("training.data_dir", "ml-models/data/train")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Inference.Mode != "classification" && config.Inference.Mode != "detection" {
		return fmt.Errorf("inference mode must be 'classification' or 'detection', got: %s", config.Inference.Mode)
	}

	if config.Inference.BaseURL == "" {
		return fmt.Errorf("inference base URL is required (set AIMS_INFERENCE_BASE_URL)")
	}

	if config.Inference.ConfidenceThreshold < 0 || config.Inference.ConfidenceThreshold > 1 {
		return fmt.Errorf("inference confidence threshold must be within [0, 1], got: %v", config.Inference.ConfidenceThreshold)
	}

	switch config.Regressor.Type {
	case "linear", "tflite":
		if config.Regressor.ModelPath == "" {
			return fmt.Errorf("regressor model path is required when regressor type is '%s'", config.Regressor.Type)
		}
	case "none":
	default:
		return fmt.Errorf("regressor type must be 'linear', 'tflite' or 'none', got: %s", config.Regressor.Type)
	}

	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max upload bytes must be positive, got: %d", config.Server.MaxUploadBytes)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("per-IP rate limit must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}

// loadEnvFile exports the variables of ./.env that are not already set
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return err
		}
	}

	return nil
}
