package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

// registerAPI mounts the JSON API. It sits outside the CSRF group: it
// only accepts JSON bodies, which a cross-site form cannot send.
func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalogue", handlers.ListCatalogue(d))
		r.Get("/catalogue/{id}", handlers.GetCatalogueEntry(d))
		r.Get("/observations", handlers.ListObservations(d))
		r.With(
			mw.RequireJSON,
			mw.RateLimit(submitLimit(d)),
		).Post("/observations", handlers.CreateObservation(d))
	})
}

func submitLimit(d deps.Deps) mw.RateLimitConfig {
	return mw.RateLimitConfig{
		Burst:             d.SubmitBurst,
		RefillPerIPPerMin: d.SubmitPerMinute,
		MaxEntries:        10_000,
		TrustProxy:        d.TrustProxy,
		Logger:            d.Logger,
	}
}
