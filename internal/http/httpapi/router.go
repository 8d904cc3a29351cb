package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"photostudio/internal/http/handlers"
	"photostudio/internal/middleware"
)

func NewRouter(app *handlers.App, allowedOrigins []string, rateLimitPerMin int, countryLookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.CORS(allowedOrigins),
		middleware.Locale(countryLookup),
		middleware.Logger(app.Logger, countryLookup),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		if rateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(rateLimitPerMin))
		}

		r.Get("/v1/state", app.State)
		r.Post("/v1/images/upload", app.Upload)

		r.Route("/v1/edit", func(r chi.Router) {
			r.Post("/mode", app.EnterMode)
			r.Post("/crop", app.ApplyCrop)
			r.Post("/expand", app.ApplyExpand)
			r.Post("/cancel", app.CancelEdit)
		})

		r.Put("/v1/prompt", app.SetPrompt)
		r.Post("/v1/enhance", app.Enhance)
		r.Post("/v1/reset", app.Reset)

		r.Route("/v1/sessions", func(r chi.Router) {
			r.Get("/", app.ListSessions)
			r.Get("/export", app.ExportSessions)
			r.Post("/{id}/load", app.LoadSession)
			r.Delete("/{id}", app.DeleteSession)
		})

		r.Get("/v1/presets", app.Presets)
	})

	if app.Events != nil {
		r.Handle("/v1/events", app.Events)
	}

	return r
}
