package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Backend API
	APIBaseURL string

	// Orchestration timing
	DebounceDelay time.Duration // quiet period before a clarify query fires
	PollInterval  time.Duration // fixed cadence between job-status polls
	PollTimeout   time.Duration // 0 = poll until the server reports a terminal status

	// Cart limits
	MaxItems int

	// Rate limiting
	RatePerSecond float64
	RateBurst     int
	MaxConcurrent int

	// HTTP server (MCP mode)
	HTTPPort string
	APIKey   string

	// Logging
	LogLevel  string
	LogFormat string // "console" or "json"
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:    "http://localhost:8000",
		DebounceDelay: 1200 * time.Millisecond,
		PollInterval:  2 * time.Second,
		PollTimeout:   0,
		MaxItems:      10,
		RatePerSecond: 5.0,
		RateBurst:     5,
		MaxConcurrent: 5,
		HTTPPort:      "8080",
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("CARTSCOUT_API_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("CARTSCOUT_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.DebounceDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("CARTSCOUT_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PollInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("CARTSCOUT_POLL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.PollTimeout = d
		}
	}
	if v := os.Getenv("CARTSCOUT_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxItems = n
		}
	}
	if v := os.Getenv("CARTSCOUT_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("CARTSCOUT_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("CARTSCOUT_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("CARTSCOUT_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("CARTSCOUT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}
