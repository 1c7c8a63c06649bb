package mw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/MrSnakeDoc/skylog/internal/logger"
)

// SecurityHeaders sets the headers every HTML page is served with. Photos
// are inline data URLs, hence img-src data:.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; script-src 'none'; form-action 'self'; frame-ancestors 'none'")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// CSRFOptions configures CSRF.
type CSRFOptions struct {
	Key            []byte // 32 bytes
	Secure         bool   // false when served over plain HTTP
	TrustedOrigins []string
	Logger         logger.Logger
}

// CSRF protects form posts with gorilla/csrf. Over plain HTTP the request is
// flagged as such so that the Referer check meant for TLS is skipped.
func CSRF(opts CSRFOptions) func(http.Handler) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	protect := csrf.Protect(
		opts.Key,
		csrf.Secure(opts.Secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(opts.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("csrf check failed",
				logger.String("path", r.URL.Path),
				logger.Error(csrf.FailureReason(r)))
			http.Error(w, "Forbidden - invalid or missing CSRF token", http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !opts.Secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// ParseForm caps the request body at maxBytes and parses url-encoded and
// multipart forms up front, so later middlewares (CSRF) and handlers read
// the already-parsed values. Oversized bodies get 413.
func ParseForm(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			var err error
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				err = r.ParseMultipartForm(maxBytes)
			} else {
				err = r.ParseForm()
			}
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, "malformed form", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
