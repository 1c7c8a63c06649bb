package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend,omitempty"`
	Slot    string `json:"slot,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Catalogue.Len()
		observations := d.Store.Len()

		components := map[string]componentStatus{
			"storage":      checkStorage(r.Context(), d),
			"catalogue":    {OK: entries > 0, Count: &entries},
			"observations": {OK: true, Count: &observations},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode summarises the components: "critical" without a
// catalogue, "degraded" when the slot is down (submissions fail), else
// "operational".
func determineMode(components map[string]componentStatus) string {
	if c, ok := components["catalogue"]; ok && !c.OK {
		return "critical"
	}
	if s, ok := components["storage"]; ok && !s.OK {
		return "degraded"
	}
	return "operational"
}

func checkStorage(ctx context.Context, d deps.Deps) componentStatus {
	slot := d.Store.Slot()
	status := componentStatus{Backend: d.StorageBackend, Slot: slot.Name()}

	ctx, cancel := context.WithTimeout(ctx, slotPingTimeout)
	defer cancel()

	if err := slot.Ping(ctx); err != nil {
		status.Impact = "submissions-failing"
		status.Error = err.Error()
		return status
	}
	status.OK = true
	return status
}
