package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"

	BatchModeAtomic  = "atomic"
	BatchModePartial = "partial"
)

const (
	defaultOpenRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel = "google/gemini-2.0-flash-lite-001"
	defaultGeminiModel     = "gemini-2.0-flash-lite"
	defaultMaxTokens       = 1024
	defaultLLMTimeout      = 300 * time.Second
	defaultDatabasePath    = "data/planner.db"
	defaultPort            = "8080"
)

// Config holds the configuration for the application.
type Config struct {
	LLMProvider      string
	OpenRouterAPIKey string
	OpenRouterURL    string
	GeminiAPIKey     string
	LLMModel         string
	LLMMaxTokens     int
	LLMTimeout       time.Duration

	DatabasePath  string
	Port          string
	JWTSecret     string
	MealBatchMode string
	LogLevel      string
	LogFormat     string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := strings.ToLower(os.Getenv("LLM_PROVIDER"))
	if provider == "" {
		provider = ProviderOpenRouter
	}

	cfg := &Config{
		LLMProvider:      provider,
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterURL:    getEnv("OPENROUTER_URL", defaultOpenRouterURL),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		LLMMaxTokens:     defaultMaxTokens,
		LLMTimeout:       defaultLLMTimeout,
		DatabasePath:     getEnv("DATABASE_PATH", defaultDatabasePath),
		Port:             getEnv("PORT", defaultPort),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		MealBatchMode:    strings.ToLower(getEnv("MEAL_BATCH_MODE", BatchModeAtomic)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "json")),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	switch provider {
	case ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
		}
		if cfg.LLMModel == "" {
			cfg.LLMModel = defaultOpenRouterModel
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
		if cfg.LLMModel == "" {
			cfg.LLMModel = defaultGeminiModel
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > math.MaxInt32 {
			return nil, fmt.Errorf("invalid LLM_MAX_TOKENS %q", v)
		}
		cfg.LLMMaxTokens = n
	}

	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid LLM_TIMEOUT %q", v)
		}
		cfg.LLMTimeout = d
	}

	if cfg.MealBatchMode != BatchModeAtomic && cfg.MealBatchMode != BatchModePartial {
		return nil, fmt.Errorf("invalid MEAL_BATCH_MODE %q", cfg.MealBatchMode)
	}

	// Telegram Config (Optional for CLI, required for Bot)
	if v := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q", part)
			}
			cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
		}
	}
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q", v)
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

// APIKey returns the credential of the configured generation provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenRouterAPIKey
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
