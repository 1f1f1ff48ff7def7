package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	TelegramToken   string
	TelegramBaseURL string

	// BotUsername is the bot's @name, used to match commands like
	// /start@name in group chats.
	BotUsername string

	// HookToken and CallbackToken are secret path segments; inbound requests
	// carrying anything else are dropped.
	HookToken     string
	CallbackToken string

	// PublicBaseURL is the externally reachable base of this service, used to
	// build the webhook URL and the trainer callback URL.
	PublicBaseURL string

	SupportChatID int64

	TrainerBaseURL string
	TrainerAPIKey  string
	TrainerProject string
	TrainerTimeout time.Duration

	StoragePath string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		TelegramBaseURL:  getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		BotUsername:      getEnv("BOT_USERNAME", "stylebot"),
		HookToken:        os.Getenv("HOOK_TOKEN"),
		CallbackToken:    os.Getenv("CALLBACK_TOKEN"),
		PublicBaseURL:    os.Getenv("PUBLIC_BASE_URL"),
		SupportChatID:    getEnvInt64("SUPPORT_CHAT_ID", 0),
		TrainerBaseURL:   getEnv("TRAINER_BASE_URL", "http://localhost:9090"),
		TrainerAPIKey:    os.Getenv("TRAINER_API_KEY"),
		TrainerProject:   getEnv("TRAINER_PROJECT", "stylebot"),
		TrainerTimeout:   time.Second * time.Duration(getEnvInt("TRAINER_TIMEOUT_SECONDS", 60)),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.HookToken == "" {
		return nil, fmt.Errorf("HOOK_TOKEN is required")
	}
	if cfg.CallbackToken == "" {
		return nil, fmt.Errorf("CALLBACK_TOKEN is required")
	}

	return cfg, nil
}

// WebhookURL is the address Telegram posts updates to.
func (c *Config) WebhookURL() string {
	return c.PublicBaseURL + "/webhook/" + c.HookToken
}

// CallbackURL is the address the trainer reports job events to.
func (c *Config) CallbackURL() string {
	return c.PublicBaseURL + "/callback/" + c.CallbackToken
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}
