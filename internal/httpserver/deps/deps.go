package deps

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/skylog/internal/catalogue"
	"github.com/MrSnakeDoc/skylog/internal/logger"
	"github.com/MrSnakeDoc/skylog/internal/observation"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time     // for testing, defaults to time.Now
	AllowedHosts    []string             // Host headers allowed to access the server
	AllowedCIDRS    []string             // IPs allowed to access the ops endpoints
	TrustProxy      bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Store           *observation.Store   // the observation log
	Catalogue       *catalogue.Catalogue // read-only reference objects
	StorageBackend  string               // "sqlite" | "redis" | "memory", reported by /infra
	Gatherer        prometheus.Gatherer  // served on /metrics; nil disables the route
	CalendarURL     string               // target of GET /calendar
	MaxPhotoBytes   int64                // upload cap for the form and the JSON API
	SubmitBurst     int                  // rate limit on observation submission
	SubmitPerMinute int                  // refill per client IP
	CSRFKey         []byte               // 32 bytes
	SecureCookies   bool                 // serve cookies with Secure (TLS only)
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
