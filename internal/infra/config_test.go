package infra

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("HOOK_TOKEN", "hook-secret")
	t.Setenv("CALLBACK_TOKEN", "cb-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("TELEGRAM_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.TelegramBaseURL != "https://api.telegram.org" {
		t.Fatalf("TelegramBaseURL mismatch: got %q", cfg.TelegramBaseURL)
	}
	if cfg.TrainerTimeout.Seconds() != 60 {
		t.Fatalf("TrainerTimeout mismatch: got %v", cfg.TrainerTimeout)
	}
}

func TestLoadConfigRequiresTelegramToken(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_TOKEN", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted empty TELEGRAM_TOKEN")
	}
}

func TestCallbackURL(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLIC_BASE_URL", "https://bot.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "https://bot.example.com/callback/cb-secret"
	if cfg.CallbackURL() != expected {
		t.Fatalf("CallbackURL mismatch: got %q want %q", cfg.CallbackURL(), expected)
	}
	if cfg.WebhookURL() != "https://bot.example.com/webhook/hook-secret" {
		t.Fatalf("WebhookURL mismatch: got %q", cfg.WebhookURL())
	}
}
