package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	JWTSecret  string
	DevMode    bool

	// External AI service (anomaly scoring, address labeling)
	AIServiceURL     string
	AIServiceTimeout time.Duration

	// Optional indexer event store. Empty disables SQL execution for /ask.
	DatabaseURL string

	RateLimit       int
	RateLimitWindow time.Duration

	// Notification channels. A channel missing its configuration is skipped.
	SMTPHost          string
	SMTPFrom          string
	SMTPTo            string
	SlackWebhookURL   string
	WebhookURL        string
	RedisURL          string
	RedisAlertChannel string
}

func Load() (*Config, error) {
	godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		DevMode:    getEnvBool("DEV_MODE", false),

		AIServiceURL:     getEnv("AI_SERVICE_URL", "http://localhost:8000"),
		AIServiceTimeout: getEnvDuration("AI_SERVICE_TIMEOUT", 30*time.Second),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RateLimit:       getEnvInt("RATE_LIMIT", 100),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPFrom:          getEnv("SMTP_FROM", ""),
		SMTPTo:            getEnv("SMTP_TO", ""),
		SlackWebhookURL:   getEnv("SLACK_WEBHOOK_URL", ""),
		WebhookURL:        getEnv("NOTIFY_WEBHOOK_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisAlertChannel: getEnv("REDIS_ALERT_CHANNEL", "alerts"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}
