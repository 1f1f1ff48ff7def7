package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"stylebot/internal/http/handlers"
	"stylebot/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
	)

	r.Get("/healthz", app.Health)

	r.Post("/webhook/{token}", app.Webhook)
	r.Get("/callback/{token}", app.Callback)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/set-webhook", app.SetWebhook)
		r.Get("/webhook-info", app.WebhookInfo)
		r.Get("/me", app.Me)
	})

	return r
}
