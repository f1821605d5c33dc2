package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Backend    BackendConfig
	Provider   ProviderConfig
	Cache      CacheConfig
	Moderation ModerationConfig
	Import     ImportConfig
	Logging    LoggingConfig
}

type BackendConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	MaxRetries     int
}

type ProviderConfig struct {
	APIKey       string
	BaseURL      string
	TokenURL     string
	ClientID     string
	CallbackPort int
	RefreshSkew  time.Duration
}

type CacheConfig struct {
	Path         string
	MasterSecret string
}

type ModerationConfig struct {
	// DefaultCreateStatus is the status assigned to manually created
	// opportunities. Allowed values: "pending", "active".
	DefaultCreateStatus string
}

type ImportConfig struct {
	SourcesFile  string
	AdzunaAppID  string
	AdzunaAppKey string
	JoobleAPIKey string
	FetchTimeout time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	cfg := Config{
		Backend: BackendConfig{
			BaseURL:        getEnv("INTERNHUB_API_URL", "http://localhost:5000/api"),
			Timeout:        time.Duration(getEnvInt("INTERNHUB_API_TIMEOUT_SECONDS", 15)) * time.Second,
			RequestsPerSec: getEnvFloat("INTERNHUB_API_RATE", 10),
			MaxRetries:     getEnvInt("INTERNHUB_API_MAX_RETRIES", 2),
		},
		Provider: ProviderConfig{
			APIKey:       getEnv("IDP_API_KEY", ""),
			BaseURL:      getEnv("IDP_BASE_URL", "https://identitytoolkit.googleapis.com/v1"),
			TokenURL:     getEnv("IDP_TOKEN_URL", "https://securetoken.googleapis.com/v1/token"),
			ClientID:     getEnv("IDP_OAUTH_CLIENT_ID", ""),
			CallbackPort: getEnvInt("IDP_OAUTH_CALLBACK_PORT", 8765),
			RefreshSkew:  time.Duration(getEnvInt("IDP_REFRESH_SKEW_SECONDS", 120)) * time.Second,
		},
		Cache: CacheConfig{
			Path:         getEnv("INTERNHUB_CACHE_PATH", defaultCachePath()),
			MasterSecret: getEnv("INTERNHUB_CACHE_SECRET", ""),
		},
		Moderation: ModerationConfig{
			DefaultCreateStatus: getEnv("INTERNHUB_CREATE_STATUS", "pending"),
		},
		Import: ImportConfig{
			SourcesFile:  getEnv("INTERNHUB_SOURCES_FILE", "sources.yaml"),
			AdzunaAppID:  getEnv("ADZUNA_APP_ID", ""),
			AdzunaAppKey: getEnv("ADZUNA_APP_KEY", ""),
			JoobleAPIKey: getEnv("JOOBLE_API_KEY", ""),
			FetchTimeout: time.Duration(getEnvInt("INTERNHUB_IMPORT_TIMEOUT_SECONDS", 20)) * time.Second,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if cfg.Backend.BaseURL == "" {
		return Config{}, fmt.Errorf("INTERNHUB_API_URL is required")
	}
	switch cfg.Moderation.DefaultCreateStatus {
	case "pending", "active":
	default:
		return Config{}, fmt.Errorf("INTERNHUB_CREATE_STATUS must be \"pending\" or \"active\", got %q",
			cfg.Moderation.DefaultCreateStatus)
	}
	return cfg, nil
}

func defaultCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "internhub.db"
	}
	return filepath.Join(dir, "internhub", "session.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
