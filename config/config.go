package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App is the bot configuration, loaded once at startup. Missing required
// variables are a fatal startup error; everything else has a default.
type App struct {
	TelegramBotToken string
	TelegramAPIBase  string

	DatabaseURL string
	RedisAddr   string // empty disables the history cache

	// webhook mode is selected by WEBHOOK_URL being set; otherwise the
	// bot long-polls
	WebhookURL    string
	WebhookSecret string
	Port          string

	LLMProvider      string // "openrouter" (default) or "vertex"
	OpenRouterAPIKey string
	OpenRouterBase   string
	VertexProject    string
	VertexLocation   string
	VertexModel      string
	LLMTimeout       time.Duration

	RateLimitMessages int
	RateLimitWindow   time.Duration

	MaxHistoryMessages int
	MaxContextTokens   int
}

func Load() (*App, error) {
	_ = godotenv.Load()

	cfg := &App{
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAPIBase:    os.Getenv("TELEGRAM_API_BASE"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		WebhookURL:         os.Getenv("WEBHOOK_URL"),
		WebhookSecret:      os.Getenv("WEBHOOK_SECRET"),
		Port:               envDefault("PORT", "8080"),
		LLMProvider:        strings.ToLower(envDefault("LLM_PROVIDER", "openrouter")),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBase:     os.Getenv("OPENROUTER_BASE_URL"),
		VertexProject:      os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:     envDefault("VERTEX_LOCATION", "us-central1"),
		VertexModel:        os.Getenv("VERTEX_MODEL"),
		LLMTimeout:         envDuration("LLM_TIMEOUT", 60*time.Second),
		RateLimitMessages:  envInt("RATE_LIMIT_MESSAGES", 30),
		RateLimitWindow:    envDuration("RATE_LIMIT_WINDOW", time.Hour),
		MaxHistoryMessages: envInt("MAX_HISTORY_MESSAGES", 10),
		MaxContextTokens:   envInt("MAX_CONTEXT_TOKENS", 3000),
	}

	var missing []string
	if cfg.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	switch cfg.LLMProvider {
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			missing = append(missing, "OPENROUTER_API_KEY")
		}
	case "vertex":
		if cfg.VertexProject == "" {
			missing = append(missing, "VERTEX_PROJECT_ID")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
