package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stylebot/internal/telegram"
)

// Webhook receives Telegram update posts. The platform retries on non-200, so
// processing failures are logged and acknowledged anyway: a poison update must
// not wedge the queue.
func (a *App) Webhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != a.HookToken {
		a.Logger.Warn().Str("remote", r.RemoteAddr).Msg("webhook call with bad token")
		a.json(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		a.Logger.Warn().Err(err).Msg("undecodable webhook body")
		a.json(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}

	if err := a.Processor.Process(r.Context(), &update); err != nil {
		a.Logger.Error().Err(err).Int64("update_id", update.UpdateID).Msg("process update failed")
	}
	a.json(w, http.StatusOK, map[string]bool{"ok": true})
}
