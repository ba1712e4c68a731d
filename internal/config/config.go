// Package config loads service configuration from the environment.
package config

import (
	"os"
	"time"
)

// Config holds the full API server configuration.
type Config struct {
	App       AppConfig
	WMATA     WMATAConfig
	MTA       MTAConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
	Logging   LoggingConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Port        string
	Environment string
}

// WMATAConfig holds DC Metro provider settings. A missing API key disables
// the DC adapter rather than failing startup.
type WMATAConfig struct {
	APIKey  string
	BaseURL string
}

// MTAConfig holds NYC Subway provider settings.
type MTAConfig struct {
	// DatasetPath points to the reference dataset produced by gtfsbuild.
	DatasetPath string

	// FeedTimeout bounds each realtime feed fetch.
	FeedTimeout time.Duration
}

// AuthConfig holds operator token settings.
type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level    string
	FilePath string
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		WMATA: WMATAConfig{
			APIKey:  os.Getenv("WMATA_API_KEY"),
			BaseURL: os.Getenv("WMATA_BASE_URL"),
		},
		MTA: MTAConfig{
			DatasetPath: getEnv("MTA_DATASET_PATH", "data/nyc-subway.json"),
			FeedTimeout: getDurationEnv("MTA_FEED_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			JWTIssuer:     getEnv("JWT_ISSUER", "https://api.transitdeck.io"),
			JWTAudience:   getEnv("JWT_AUDIENCE", "transitdeck-api"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      os.Getenv("OTEL_ENABLED") == "true",
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: os.Getenv("LOG_FILE"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
