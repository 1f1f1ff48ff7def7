package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Callback receives trainer job notifications as query parameters: chat_id,
// job_name and exactly one of step, result_path, or error.
func (a *App) Callback(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != a.CallbackToken {
		a.Logger.Warn().Str("remote", r.RemoteAddr).Msg("callback call with bad token")
		a.json(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	q := r.URL.Query()
	chatID, err := strconv.ParseInt(q.Get("chat_id"), 10, 64)
	if err != nil {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "bad chat_id"})
		return
	}
	jobName := q.Get("job_name")
	if jobName == "" {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "job_name is required"})
		return
	}

	ctx := r.Context()
	switch {
	case q.Get("step") != "":
		iteration, err := strconv.Atoi(q.Get("step"))
		if err != nil {
			a.json(w, http.StatusBadRequest, map[string]string{"error": "bad step"})
			return
		}
		err = a.Reconciler.OnProgress(ctx, chatID, jobName, iteration)
		a.finish(w, jobName, err)
	case q.Get("result_path") != "":
		err := a.Reconciler.OnCompleted(ctx, chatID, jobName, q.Get("result_path"))
		a.finish(w, jobName, err)
	case q.Get("error") != "":
		err := a.Reconciler.OnError(ctx, chatID, jobName, q.Get("error"))
		a.finish(w, jobName, err)
	default:
		a.json(w, http.StatusBadRequest, map[string]string{"error": "one of step, result_path, error is required"})
	}
}

func (a *App) finish(w http.ResponseWriter, jobName string, err error) {
	if err != nil {
		a.Logger.Error().Err(err).Str("job_name", jobName).Msg("reconcile callback failed")
		a.json(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"ok": true})
}
