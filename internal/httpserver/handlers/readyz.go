package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/logger"
)

const slotPingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Slot  string `json:"slot"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once the durable slot answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot := d.Store.Slot()

		ctx, cancel := context.WithTimeout(r.Context(), slotPingTimeout)
		defer cancel()

		if err := slot.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed",
				logger.String("slot", slot.Name()),
				logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Slot: slot.Name(), Error: "slot unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Slot: slot.Name()})
	}
}
