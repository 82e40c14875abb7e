package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds shared runtime configuration for the server and the queue CLI.
type Config struct {
	Env         string
	HTTPPort    string
	MetricsAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// PostgresDSN enables the submission archive when non-empty.
	PostgresDSN string

	EmailEndpoint   string
	EmailUserID     string
	SheetWebhookURL string

	RetryStartupDelay time.Duration
	RetryInterval     time.Duration

	RateLimitCapacity int
	RateLimitRefill   float64
}

// DefaultSheetWebhookURL is the spreadsheet webhook's deployed endpoint.
const DefaultSheetWebhookURL = "https://script.google.com/macros/s/AKfycbxJhT1Tcz9cUTnPpRgUjKv3DRD4L1lT_1yiIep0-tv7nzL3Se1orAiT9FnzIHGWXgDq/exec"

// Load reads configuration from environment variables with sane defaults for local development.
func Load() Config {
	return Config{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9090"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		EmailEndpoint:     getEnv("EMAIL_ENDPOINT", ""),
		EmailUserID:       getEnv("EMAIL_USER_ID", ""),
		SheetWebhookURL:   getEnv("SHEET_WEBHOOK_URL", DefaultSheetWebhookURL),
		RetryStartupDelay: getEnvDuration("RETRY_STARTUP_DELAY", 3*time.Second),
		RetryInterval:     getEnvDuration("RETRY_INTERVAL", 5*time.Minute),
		RateLimitCapacity: getEnvInt("RATE_LIMIT_CAPACITY", 10),
		RateLimitRefill:   getEnvFloat("RATE_LIMIT_REFILL_PER_SEC", 0.5),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
