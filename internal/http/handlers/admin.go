package handlers

import (
	"net/http"
)

// SetWebhook points the platform at this service's webhook URL.
func (a *App) SetWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := a.Telegram.SetWebhook(r.Context(), a.WebhookURL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("set webhook failed")
		a.json(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// WebhookInfo proxies the platform's current webhook registration.
func (a *App) WebhookInfo(w http.ResponseWriter, r *http.Request) {
	a.passthrough(w, r, "getWebhookInfo")
}

// Me proxies the bot's own identity, a quick token sanity check.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	a.passthrough(w, r, "getMe")
}

func (a *App) passthrough(w http.ResponseWriter, r *http.Request, method string) {
	raw, err := a.Telegram.Call(r.Context(), method)
	if err != nil {
		a.Logger.Error().Err(err).Str("method", method).Msg("telegram call failed")
		a.json(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
