package mw

import (
	"mime"
	"net/http"
)

// RequireJSON answers 415 unless the request body is declared as JSON.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_, _ = w.Write([]byte(`{"error":"unsupported_media_type","message":"expected application/json"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
