package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL       string
	ServerPort        string
	BaseURL           string
	FrontendURL       string
	FilesBaseURL      string
	JWTSecret         string
	EnableHSTS        bool
	RedisURL          string
	RabbitMQURL       string
	RabbitMQPrefetch  int
	WorkerDebugMode   bool
	WorkerMetricsPort string
	ServerDebugMode   bool
	OTELEnabled       bool
	OTELEndpoint      string
	OTELSampleRatio   float64
	AutoMigrate       bool
	Locale            string
	Timezone          string
	SMTPHost          string
	SMTPPort          string
	SMTPUser          string
	SMTPPass          string
	MailFrom          string
	MailRatePerSecond int
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present; real
// environment variables always take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		FilesBaseURL:      getEnv("FILES_BASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		EnableHSTS:        getEnvBool("ENABLE_HSTS", false),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:  getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:   getEnvBool("WORKER_DEBUG_MODE", false),
		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),
		ServerDebugMode:   getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRatio:   getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		AutoMigrate:       getEnvBool("AUTO_MIGRATE", false),
		Locale:            getEnv("APP_LOCALE", "pt_BR"),
		Timezone:          getEnv("APP_TIMEZONE", "America/Sao_Paulo"),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          getEnv("SMTP_PORT", "1025"),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPass:          getEnv("SMTP_PASS", ""),
		MailFrom:          getEnv("MAIL_FROM", "Scheduler <noreply@scheduler.local>"),
		MailRatePerSecond: getEnvInt("MAIL_RATE_PER_SECOND", 5),
	}

	if cfg.FilesBaseURL == "" {
		cfg.FilesBaseURL = cfg.BaseURL
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for job queueing (cancellation mails require RabbitMQ)")
	}

	return cfg, nil
}

// RequireJWTSecret returns an error when the server cannot verify caller tokens.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
