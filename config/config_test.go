package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var configEnvVars = []string{
	"AIMS_SERVER_PORT",
	"AIMS_SERVER_ENVIRONMENT",
	"AIMS_SERVER_ALLOWED_ORIGINS",
	"AIMS_SERVER_MAX_UPLOAD_BYTES",
	"AIMS_INFERENCE_BASE_URL",
	"AIMS_INFERENCE_MODE",
	"AIMS_INFERENCE_TOP_K",
	"AIMS_INFERENCE_CONFIDENCE_THRESHOLD",
	"AIMS_REGRESSOR_TYPE",
	"AIMS_REGRESSOR_MODEL_PATH",
	"AIMS_CACHE_TTL",
	"AIMS_RATELIMIT_PER_IP",
	"AIMS_MATCHING_ENABLE_DEBUG_LOGGING",
	"AIMS_TRAINING_DATA_DIR",
}

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		for _, name := range configEnvVars {
			os.Unsetenv(name)
		}
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.MaxUploadBytes != 16<<20 {
			t.Errorf("Server.MaxUploadBytes = %d, want %d", cfg.Server.MaxUploadBytes, 16<<20)
		}
		if cfg.Server.ShutdownTimeout != 10*time.Second {
			t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
		}
		if cfg.Inference.BaseURL != "http://localhost:5001" {
			t.Errorf("Inference.BaseURL = %s, want http://localhost:5001", cfg.Inference.BaseURL)
		}
		if cfg.Inference.Mode != "detection" {
			t.Errorf("Inference.Mode = %s, want detection", cfg.Inference.Mode)
		}
		if cfg.Inference.Timeout != 60*time.Second {
			t.Errorf("Inference.Timeout = %v, want 60s", cfg.Inference.Timeout)
		}
		if cfg.Inference.TopK != 5 {
			t.Errorf("Inference.TopK = %d, want 5", cfg.Inference.TopK)
		}
		if cfg.Inference.ConfidenceThreshold != 0.25 {
			t.Errorf("Inference.ConfidenceThreshold = %v, want 0.25", cfg.Inference.ConfidenceThreshold)
		}
		if cfg.Regressor.Type != "linear" {
			t.Errorf("Regressor.Type = %s, want linear", cfg.Regressor.Type)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Cache.MaxEntries != 1000 {
			t.Errorf("Cache.MaxEntries = %d, want 1000", cfg.Cache.MaxEntries)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Matching.EnableDebugLogging {
			t.Error("Matching.EnableDebugLogging = true, want false")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("AIMS_SERVER_PORT", "9090")
		os.Setenv("AIMS_SERVER_ENVIRONMENT", "production")
		os.Setenv("AIMS_SERVER_ALLOWED_ORIGINS", "https://aims.example.com,https://admin.example.com")
		os.Setenv("AIMS_INFERENCE_BASE_URL", "http://runtime:5001")
		os.Setenv("AIMS_INFERENCE_MODE", "classification")
		os.Setenv("AIMS_INFERENCE_CONFIDENCE_THRESHOLD", "0.5")
		os.Setenv("AIMS_REGRESSOR_TYPE", "tflite")
		os.Setenv("AIMS_REGRESSOR_MODEL_PATH", "/models/units.tflite")
		os.Setenv("AIMS_CACHE_TTL", "24h")
		os.Setenv("AIMS_RATELIMIT_PER_IP", "200")
		os.Setenv("AIMS_MATCHING_ENABLE_DEBUG_LOGGING", "true")
		os.Setenv("AIMS_TRAINING_DATA_DIR", "/data/train")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if strings.Join(cfg.Server.AllowedOrigins, " ") != "https://aims.example.com https://admin.example.com" {
			t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
		}
		if cfg.Inference.BaseURL != "http://runtime:5001" {
			t.Errorf("Inference.BaseURL = %s, want http://runtime:5001", cfg.Inference.BaseURL)
		}
		if cfg.Inference.Mode != "classification" {
			t.Errorf("Inference.Mode = %s, want classification", cfg.Inference.Mode)
		}
		if cfg.Inference.ConfidenceThreshold != 0.5 {
			t.Errorf("Inference.ConfidenceThreshold = %v, want 0.5", cfg.Inference.ConfidenceThreshold)
		}
		if cfg.Regressor.Type != "tflite" {
			t.Errorf("Regressor.Type = %s, want tflite", cfg.Regressor.Type)
		}
		if cfg.Regressor.ModelPath != "/models/units.tflite" {
			t.Errorf("Regressor.ModelPath = %s, want /models/units.tflite", cfg.Regressor.ModelPath)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if !cfg.Matching.EnableDebugLogging {
			t.Error("Matching.EnableDebugLogging = false, want true")
		}
		if cfg.Training.DataDir != "/data/train" {
			t.Errorf("Training.DataDir = %s, want /data/train", cfg.Training.DataDir)
		}
	})

	t.Run("fails validation for invalid mode", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("AIMS_INFERENCE_MODE", "segmentation")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for invalid mode")
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration: inference mode") {
			t.Errorf("Load() error = %v, want inference mode error", err)
		}
	})

	t.Run("fails validation for invalid regressor type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("AIMS_REGRESSOR_TYPE", "forest")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid regressor type")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		envContent := `
# Comment line
AIMS_TEST_VAR_1=value1
AIMS_TEST_VAR_2=value2
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("AIMS_TEST_VAR_1")
		os.Unsetenv("AIMS_TEST_VAR_2")
		defer os.Unsetenv("AIMS_TEST_VAR_1")
		defer os.Unsetenv("AIMS_TEST_VAR_2")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("AIMS_TEST_VAR_1") != "value1" {
			t.Errorf("AIMS_TEST_VAR_1 = %s, want value1", os.Getenv("AIMS_TEST_VAR_1"))
		}
		if os.Getenv("AIMS_TEST_VAR_2") != "value2" {
			t.Errorf("AIMS_TEST_VAR_2 = %s, want value2", os.Getenv("AIMS_TEST_VAR_2"))
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		os.Setenv("AIMS_TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("AIMS_TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("AIMS_TEST_OVERRIDE=new-value\n"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("AIMS_TEST_OVERRIDE") != "existing-value" {
			t.Errorf("AIMS_TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("AIMS_TEST_OVERRIDE"))
		}
	})
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{MaxUploadBytes: 1 << 20},
		Inference: InferenceConfig{BaseURL: "http://localhost:5001", Mode: "detection", ConfidenceThreshold: 0.25},
		Regressor: RegressorConfig{Type: "linear", ModelPath: "model.json"},
		RateLimit: RateLimitConfig{PerIP: 100},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"classification mode", func(c *Config) { c.Inference.Mode = "classification" }, false},
		{"regressor disabled without path", func(c *Config) { c.Regressor = RegressorConfig{Type: "none"} }, false},
		{"invalid mode", func(c *Config) { c.Inference.Mode = "" }, true},
		{"missing base URL", func(c *Config) { c.Inference.BaseURL = "" }, true},
		{"threshold above one", func(c *Config) { c.Inference.ConfidenceThreshold = 1.5 }, true},
		{"invalid regressor type", func(c *Config) { c.Regressor.Type = "forest" }, true},
		{"tflite without path", func(c *Config) { c.Regressor = RegressorConfig{Type: "tflite"} }, true},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, true},
		{"negative rate limit", func(c *Config) { c.RateLimit.PerIP = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
