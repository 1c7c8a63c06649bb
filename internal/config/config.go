package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends for the observation snapshot slot.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout, uploads included

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	CatalogueFile   string // optional YAML catalogue replacing the embedded one
	EncyclopediaURL string // fmt template, %s is the escaped object name
	CalendarURL     string // target of the "open my calendar" link

	Storage    string // "sqlite" | "redis" | "memory"
	SlotName   string // name of the durable snapshot slot
	SQLitePath string // database file for the sqlite backend

	// Redis (only read when Storage == "redis")
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, doubles up to RedisMaxWait
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration

	MaxPhotoBytes   int64  // upload limit for the observation form
	SubmitBurst     int    // rate limit burst for POST /observations
	SubmitPerMinute int    // rate limit refill per client IP
	CSRFKey         []byte // 32 bytes; random per process when unset
	SecureCookies   bool   // mark csrf/theme cookies Secure (behind TLS)

	AllowedHosts []string // Host headers accepted; empty = any, "*.example.com" allowed
	AllowedCIDRS []string // restricts /healthz, /readyz, /infra, /metrics; empty = open
	TrustProxy   bool     // resolve client IP from X-Forwarded-For & co
}

func Load() *Config {
	cfg := &Config{
		ListenPort:      getenv("SKYLOG_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SKYLOG_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("SKYLOG_REQUEST_TIMEOUT", 15*time.Second),

		LogLevel:  getenv("SKYLOG_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SKYLOG_PRETTY_LOG", true),

		CatalogueFile:   getenv("SKYLOG_CATALOGUE_FILE", ""),
		EncyclopediaURL: getenv("SKYLOG_ENCYCLOPEDIA_URL", "https://en.wikipedia.org/wiki/%s"),
		CalendarURL:     getenv("SKYLOG_CALENDAR_URL", "https://calendar.google.com"),

		Storage:    strings.ToLower(getenv("SKYLOG_STORAGE", StorageSQLite)),
		SlotName:   getenv("SKYLOG_SLOT_NAME", "observations"),
		SQLitePath: getenv("SKYLOG_SQLITE_PATH", "skylog.db"),

		MaxPhotoBytes:   int64(getenvInt("SKYLOG_MAX_PHOTO_BYTES", 10<<20)),
		SubmitBurst:     getenvInt("SKYLOG_SUBMIT_BURST", 10),
		SubmitPerMinute: getenvInt("SKYLOG_SUBMIT_PER_MINUTE", 30),
		CSRFKey:         []byte(getenv("SKYLOG_CSRF_KEY", "")),
		SecureCookies:   mustBool("SKYLOG_SECURE_COOKIES", false),

		AllowedHosts: splitAndTrim(getenv("SKYLOG_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("SKYLOG_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SKYLOG_TRUST_PROXY", false),
	}

	switch cfg.Storage {
	case StorageSQLite, StorageMemory:
	case StorageRedis:
		cfg.loadRedis()
	default:
		panic(fmt.Sprintf("❌ FATAL: unknown SKYLOG_STORAGE %q (want sqlite, redis or memory)", cfg.Storage))
	}

	if n := len(cfg.CSRFKey); n != 0 && n != 32 {
		panic(fmt.Sprintf("❌ FATAL: SKYLOG_CSRF_KEY must be exactly 32 bytes, got %d", n))
	}

	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func (c *Config) loadRedis() {
	c.RedisAddr = requireEnv("SKYLOG_REDIS_ADDR")
	c.RedisUser = getenv("SKYLOG_REDIS_USERNAME", "")
	c.RedisPassword = getenv("SKYLOG_REDIS_PASSWORD", "")
	c.RedisDB = getenvInt("SKYLOG_REDIS_DB", 0)
	c.RedisDT = mustDuration("SKYLOG_REDIS_DIAL_TIMEOUT", 5*time.Second)
	c.RedisRT = mustDuration("SKYLOG_REDIS_READ_TIMEOUT", 3*time.Second)
	c.RedisWT = mustDuration("SKYLOG_REDIS_WRITE_TIMEOUT", 3*time.Second)
	c.RedisPoolSize = getenvInt("SKYLOG_REDIS_POOL_SIZE", 4)
	c.RedisConnectTimeout = mustDuration("SKYLOG_REDIS_CONNECT_TIMEOUT", 30*time.Second)
	c.RedisRetryInterval = mustDuration("SKYLOG_REDIS_RETRY_INTERVAL", 1*time.Second)
	c.RedisMaxWait = mustDuration("SKYLOG_REDIS_MAX_WAIT", 10*time.Second)
	c.RedisPingTimeout = mustDuration("SKYLOG_REDIS_PING_TIMEOUT", 3*time.Second)
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if len(cp.CSRFKey) > 0 {
		cp.CSRFKey = []byte("***REDACTED***")
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		// quotes survive some .env loaders
		trimmed := strings.Trim(strings.TrimSpace(part), `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
