package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/example/ec-storefront/internal/apperrors"
)

var (
	ErrMissingAPIKey      = errors.New("FIREBASE_API_KEY is required")
	ErrMissingDatabaseURL = errors.New("FIREBASE_DATABASE_URL is required")
)

// Config holds everything the storefront needs at startup.
type Config struct {
	FirebaseAPIKey      string
	FirebaseDatabaseURL string
	FirebaseIdentityURL string
	FirebaseTokenURL    string
	MapsAPIKey          string

	CachePath string

	SyncDebounce     time.Duration
	SyncWriteTimeout time.Duration
	HTTPTimeout      time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		FirebaseAPIKey:      os.Getenv("FIREBASE_API_KEY"),
		FirebaseDatabaseURL: strings.TrimRight(os.Getenv("FIREBASE_DATABASE_URL"), "/"),
		FirebaseIdentityURL: getEnv("FIREBASE_IDENTITY_URL", "https://identitytoolkit.googleapis.com/v1"),
		FirebaseTokenURL:    getEnv("FIREBASE_TOKEN_URL", "https://securetoken.googleapis.com/v1/token"),
		MapsAPIKey:          os.Getenv("MAPS_API_KEY"),
		CachePath:           getEnv("STOREFRONT_CACHE_PATH", "storefront.db"),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "storefront-cart"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	if cfg.FirebaseAPIKey == "" {
		return nil, apperrors.New(apperrors.Validation, "load config", ErrMissingAPIKey)
	}
	if cfg.FirebaseDatabaseURL == "" {
		return nil, apperrors.New(apperrors.Validation, "load config", ErrMissingDatabaseURL)
	}

	var err error
	if cfg.SyncDebounce, err = getDuration("CART_SYNC_DEBOUNCE", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.SyncWriteTimeout, err = getDuration("CART_SYNC_WRITE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, apperrors.Newf(apperrors.Validation, "load config", "%s must be a non-negative duration, got %q", key, value)
	}
	return d, nil
}

// String renders the config without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("database=%s cache=%s debounce=%s kafka=%v", c.FirebaseDatabaseURL, c.CachePath, c.SyncDebounce, c.KafkaBrokers)
}
