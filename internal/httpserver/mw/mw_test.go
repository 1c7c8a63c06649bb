package mw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/skylog/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.Nop())(okHandler)

	tests := []struct {
		remote string
		want   int
	}{
		{"10.2.3.4:5555", http.StatusNoContent},
		{"192.0.2.1:5555", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.RemoteAddr = tt.remote
		if got := serve(h, r).Code; got != tt.want {
			t.Errorf("remote %s: status = %d, want %d", tt.remote, got, tt.want)
		}
	}
}

func TestAllowOnlyCIDRSEmptyIsPassthrough(t *testing.T) {
	h := AllowOnlyCIDRS(nil, false, logger.Nop())(okHandler)
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.RemoteAddr = "203.0.113.1:1"
	if got := serve(h, r).Code; got != http.StatusNoContent {
		t.Errorf("status = %d, want passthrough", got)
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"sky.example.com", "*.lan"}, logger.Nop())(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"sky.example.com", http.StatusNoContent},
		{"SKY.example.com:8080", http.StatusNoContent},
		{"pi.lan", http.StatusNoContent},
		{".lan", http.StatusMisdirectedRequest},
		{"evil.com", http.StatusMisdirectedRequest},
		{"example.com", http.StatusMisdirectedRequest},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = tt.host
		if got := serve(h, r).Code; got != tt.want {
			t.Errorf("host %s: status = %d, want %d", tt.host, got, tt.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 60,
		Now:               func() time.Time { return now },
	})(okHandler)

	req := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/observations", nil)
		r.RemoteAddr = remote
		return serve(h, r)
	}

	for i := 0; i < 2; i++ {
		if rec := req("192.0.2.1:1"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := req("192.0.2.1:2")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}

	// other clients have their own bucket
	if rec := req("192.0.2.2:1"); rec.Code != http.StatusNoContent {
		t.Errorf("other client: status = %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := req("192.0.2.1:1"); rec.Code != http.StatusNoContent {
		t.Errorf("after refill: status = %d", rec.Code)
	}
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newLimiter(RateLimitConfig{IdleTTL: time.Minute, SweepInterval: time.Minute, Now: func() time.Time { return now }})

	l.take("a", now)
	l.take("b", now)
	if l.size() != 2 {
		t.Fatalf("size = %d, want 2", l.size())
	}
	now = now.Add(2 * time.Minute)
	l.take("c", now)
	if l.size() != 1 {
		t.Errorf("size = %d after sweep, want 1", l.size())
	}
}

func TestParseForm(t *testing.T) {
	h := ParseForm(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.PostForm.Get("date")))
	}))

	r := httptest.NewRequest(http.MethodPost, "/observations", strings.NewReader("date=2024-05-01"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := serve(h, r); rec.Code != http.StatusOK || rec.Body.String() != "2024-05-01" {
		t.Errorf("small form: %d %q", rec.Code, rec.Body.String())
	}

	r = httptest.NewRequest(http.MethodPost, "/observations", strings.NewReader("comment="+strings.Repeat("x", 64)))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := serve(h, r); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized form: status = %d, want 413", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(SecurityHeaders(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "img-src 'self' data:") {
		t.Error("CSP must allow data: images")
	}
}

func TestLogRecordsStatus(t *testing.T) {
	h := Log(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	h := RequireJSON(okHandler)

	tests := []struct {
		ct   string
		want int
	}{
		{"application/json", http.StatusNoContent},
		{"application/json; charset=utf-8", http.StatusNoContent},
		{"text/plain", http.StatusUnsupportedMediaType},
		{"application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/api/observations", strings.NewReader("{}"))
		if tt.ct != "" {
			r.Header.Set("Content-Type", tt.ct)
		}
		if got := serve(h, r).Code; got != tt.want {
			t.Errorf("Content-Type %q: status = %d, want %d", tt.ct, got, tt.want)
		}
	}
}
