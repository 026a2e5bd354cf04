package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the bot
type Config struct {
	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Backend orchestration API
	BackendURL      string
	BackendWSURL    string
	BackendUsername string
	BackendPassword string
	BackendTimeout  time.Duration

	// Trade history paging
	TradePageSize int

	// Cache
	CacheTTL time.Duration

	// Reports
	ReportDir string

	// Database
	DatabasePath string

	// Mode
	Debug bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		BackendURL:      getEnv("BACKEND_API_URL", "http://localhost:8000"),
		BackendWSURL:    os.Getenv("BACKEND_WS_URL"),
		BackendUsername: os.Getenv("BACKEND_API_USERNAME"),
		BackendPassword: os.Getenv("BACKEND_API_PASSWORD"),
		BackendTimeout:  getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),

		TradePageSize: getEnvInt("TRADE_PAGE_SIZE", 500),

		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Second),

		ReportDir: getEnv("REPORT_DIR", "data/reports"),

		DatabasePath: getEnv("DATABASE_PATH", "data/hbotgram.db"),

		Debug: getEnvBool("DEBUG", false),
	}

	// Parse chat ID
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	// Validate required fields
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Derive the WebSocket endpoint from the API URL when not set explicitly
	if cfg.BackendWSURL == "" {
		ws := strings.Replace(cfg.BackendURL, "http://", "ws://", 1)
		ws = strings.Replace(ws, "https://", "wss://", 1)
		cfg.BackendWSURL = ws + "/ws/events"
	}

	return cfg, nil
}

// Helper functions

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
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
