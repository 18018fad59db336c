// Package config loads the planner configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Forecast statistics
	EWMAAlpha float64

	// Convocation defaults
	ResponseDeadlineHours int
	AdvanceNoticeHours    int

	// Demand defaults
	BufferPct            float64
	UtilizationTargetPct float64

	// Replan
	ReplanThresholdPP float64
	CostPerHead       float64

	// Agenda
	AgendaLockTTL time.Duration

	// Trace sweeper
	RunSweepTimeout time.Duration
}

// Load loads configuration from environment variables.
// A .env file in the working directory is honored if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		EWMAAlpha: getFloatEnv("ROSTER_EWMA_ALPHA", 0.2),

		ResponseDeadlineHours: getIntEnv("ROSTER_RESPONSE_DEADLINE_HOURS", 24),
		AdvanceNoticeHours:    getIntEnv("ROSTER_ADVANCE_NOTICE_HOURS", 72),

		BufferPct:            getFloatEnv("ROSTER_BUFFER_PCT", 10),
		UtilizationTargetPct: getFloatEnv("ROSTER_UTILIZATION_TARGET_PCT", 85),

		ReplanThresholdPP: getFloatEnv("ROSTER_REPLAN_THRESHOLD_PP", 5.0),
		CostPerHead:       getFloatEnv("ROSTER_COST_PER_HEAD", 1.0),

		AgendaLockTTL:   getDurationEnv("ROSTER_AGENDA_LOCK_TTL", 2*time.Minute),
		RunSweepTimeout: getDurationEnv("ROSTER_RUN_SWEEP_TIMEOUT", 30*time.Minute),
	}

	return cfg, nil
}

// IsDevelopment returns true when running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
