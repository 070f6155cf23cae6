package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/zeewaqar/stock-prediction-app/internal/httputil"
)

type Config struct {
	// Secrets (from .env)
	FMPAPIKey          string
	AlphaVantageAPIKey string
	GroqAPIKey         string
	GroqModel          string
	WebhookURL         string
	AppName            string
	APIKey             string
	CORSAllowOrigin    string

	// Server
	Port     int
	LogLevel string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Outbound HTTP policy
	MaxRetries       int
	BackoffBaseMs    int
	RequestTimeoutMs int

	// Actuals updater
	ActualsWorkers      int
	ActualsRefreshHours int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		FMPAPIKey:          envStr("FMP_API_KEY", ""),
		AlphaVantageAPIKey: envStr("ALPHA_API_KEY", ""),
		GroqAPIKey:         envStr("GROQ_API_KEY", ""),
		GroqModel:          envStr("GROQ_MODEL", "mistral-saba-24b"),
		WebhookURL:         envStr("WEBHOOK_URL", ""),
		AppName:            envStr("APP_NAME", "StockForecast"),
		APIKey:             envStr("API_KEY", ""),
		CORSAllowOrigin:    envStr("CORS_ALLOW_ORIGIN", "*"),

		// Server
		Port:     envInt("PORT", 3001),
		LogLevel: envStr("LOG_LEVEL", "info"),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "stock_forecast"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Outbound HTTP policy
		MaxRetries:       envInt("MAX_RETRIES", 3),
		BackoffBaseMs:    envInt("BACKOFF_BASE_MS", 1000),
		RequestTimeoutMs: envInt("REQUEST_TIMEOUT_MS", 10000),

		// Actuals updater
		ActualsWorkers:      envInt("ACTUALS_WORKERS", 4),
		ActualsRefreshHours: envInt("ACTUALS_REFRESH_HOURS", 0),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.DBUser == "" {
		errs = append(errs, "DB_USER is required")
	}
	if c.GroqAPIKey == "" {
		fmt.Println("[WARN] GROQ_API_KEY not set — POST /predict will fail until configured")
	}
	if c.FMPAPIKey == "" {
		fmt.Println("[WARN] FMP_API_KEY not set — price history falls back to cache only")
	}
	if c.AlphaVantageAPIKey == "" {
		fmt.Println("[WARN] ALPHA_API_KEY not set — automatic actuals updates will fail")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set — REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Stock Forecast Dashboard Configuration ===")
	fmt.Printf("Port: %d\n", c.Port)
	fmt.Printf("Model: %s (%s)\n", c.GroqModel, keyLabel(c.GroqAPIKey))
	fmt.Printf("Price history provider: FMP (%s)\n", keyLabel(c.FMPAPIKey))
	fmt.Printf("Actuals provider: Alpha Vantage (%s)\n", keyLabel(c.AlphaVantageAPIKey))
	fmt.Println("----------------------------------------------")
	fmt.Println("Outbound HTTP policy:")
	fmt.Printf("  Max retries: %d\n", c.MaxRetries)
	fmt.Printf("  Backoff base: %dms\n", c.BackoffBaseMs)
	fmt.Printf("  Request timeout: %dms\n", c.RequestTimeoutMs)
	fmt.Println("----------------------------------------------")
	fmt.Println("Actuals updater:")
	fmt.Printf("  Workers: %d\n", c.ActualsWorkers)
	if c.ActualsRefreshHours > 0 {
		fmt.Printf("  Scheduled refresh: every %d hours\n", c.ActualsRefreshHours)
	} else {
		fmt.Println("  Scheduled refresh: disabled (trigger via GET /update-actuals)")
	}
	fmt.Println("==============================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// RetryConfig maps the env-driven policy onto the outbound retry helper.
func (c *Config) RetryConfig() httputil.RetryConfig {
	return httputil.RetryConfig{
		MaxRetries:  c.MaxRetries,
		BackoffBase: time.Duration(c.BackoffBaseMs) * time.Millisecond,
		MaxBackoff:  10 * time.Second,
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func keyLabel(key string) string {
	if key != "" {
		return "key configured"
	}
	return "no key"
}
