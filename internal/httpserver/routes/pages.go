package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/mw"
)

func init() { Register(registerPages) }

// formOverhead is added to the photo cap for the other form fields.
const formOverhead = 64 << 10

func registerPages(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.SecurityHeaders)
		r.Use(mw.ParseForm(d.MaxPhotoBytes + formOverhead))
		r.Use(mw.CSRF(mw.CSRFOptions{
			Key:            d.CSRFKey,
			Secure:         d.SecureCookies,
			TrustedOrigins: d.AllowedHosts,
			Logger:         d.Logger,
		}))

		r.Get("/", handlers.Index(d))
		r.With(mw.RateLimit(submitLimit(d))).Post("/observations", handlers.SubmitObservation(d))
		r.Post("/theme", handlers.Theme(d))
		r.Get("/calendar", handlers.Calendar(d))
		r.Get("/catalogue/{id}/wiki", handlers.Wiki(d))
	})
}
