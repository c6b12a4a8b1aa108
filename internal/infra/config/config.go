package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
)

// AppConfig holds all configuration for the scheduler process.
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string
	AppBaseURL  string

	TelegramToken   string
	OwnerTelegramID int64

	DiscordWebhookURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LLMAPIKey  string
	LLMAPIBase string
	LLMModel   string

	PollInterval      time.Duration
	CallTimeout       time.Duration
	DigestWeekday     time.Weekday
	DigestHourUTC     int
	ChurnAlertHourUTC int
	ChurnThreshold    float64
	SummaryRatePerSec int
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(envOr("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(envOr("ENVIRONMENT", "development"))
	cfg.AppBaseURL = strings.TrimRight(envOr("APP_BASE_URL", "http://localhost:3000"), "/")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if v := os.Getenv("OWNER_TELEGRAM_ID"); v != "" {
		cfg.OwnerTelegramID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OWNER_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.OwnerTelegramID == 0 {
		return nil, fmt.Errorf("OWNER_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.DiscordWebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = envOr("SMTP_FROM", "Troubadour <digest@troubadour.app>")
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.LLMAPIBase = os.Getenv("LLM_API_BASE")
	cfg.LLMModel = os.Getenv("LLM_MODEL")

	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CallTimeout, err = durationEnv("CALL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.DigestWeekday, err = schedule.ParseWeekday(envOr("DIGEST_WEEKDAY", "monday"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIGEST_WEEKDAY: %w", err)
	}
	if cfg.DigestHourUTC, err = hourEnv("DIGEST_HOUR_UTC", 9); err != nil {
		return nil, err
	}
	if cfg.ChurnAlertHourUTC, err = hourEnv("CHURN_ALERT_HOUR_UTC", 8); err != nil {
		return nil, err
	}

	cfg.ChurnThreshold = retention.DefaultThreshold
	if v := os.Getenv("CHURN_THRESHOLD"); v != "" {
		cfg.ChurnThreshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CHURN_THRESHOLD: %w", err)
		}
	}
	if cfg.SummaryRatePerSec, err = intEnv("SUMMARY_RATE_PER_SEC", 2); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func hourEnv(key string, def int) (int, error) {
	h, err := intEnv(key, def)
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid %s: hour %d out of range", key, h)
	}
	return h, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
