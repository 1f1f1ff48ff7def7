package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"stylebot/internal/bot"
	"stylebot/internal/telegram"
)

// Updater consumes inbound platform updates.
type Updater interface {
	Process(ctx context.Context, u *telegram.Update) error
}

// Notifier consumes trainer job notifications.
type Notifier interface {
	OnProgress(ctx context.Context, chatID int64, jobName string, iteration int) error
	OnCompleted(ctx context.Context, chatID int64, jobName, resultPath string) error
	OnError(ctx context.Context, chatID int64, jobName, message string) error
}

// App bundles the handler dependencies.
type App struct {
	HookToken     string
	CallbackToken string
	WebhookURL    string

	Processor  Updater
	Reconciler Notifier
	Telegram   *telegram.Client
	Logger     zerolog.Logger
}

var (
	_ Updater  = (*bot.Processor)(nil)
	_ Notifier = (*bot.Reconciler)(nil)
)

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
