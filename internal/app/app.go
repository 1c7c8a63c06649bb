package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrSnakeDoc/skylog/internal/config"
	"github.com/MrSnakeDoc/skylog/internal/httpserver"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/logger"
	"github.com/MrSnakeDoc/skylog/internal/metrics"
	"github.com/MrSnakeDoc/skylog/internal/observation"
	"github.com/MrSnakeDoc/skylog/internal/utils"
	"github.com/MrSnakeDoc/skylog/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	storage io.Closer
}

// New wires the catalogue, the observation store, metrics and the HTTP
// server. It fails fast when the catalogue or the storage backend cannot
// be opened.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	cat, err := LoadCatalogue(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogue: %w", err)
	}
	loggerClient.Info("catalogue loaded", logger.Int("entries", cat.Len()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	store, closer, err := OpenStore(ctx, cfg, loggerClient, observation.WithMetrics(recorder))
	if err != nil {
		return nil, err
	}

	csrfKey := cfg.CSRFKey
	if len(csrfKey) == 0 {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			utils.CloseLogged(closer, "storage", loggerClient)
			return nil, fmt.Errorf("failed to generate csrf key: %w", err)
		}
		loggerClient.Warn("SKYLOG_CSRF_KEY not set, using a per-process key (open forms break on restart)")
	}

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		Store:           store,
		Catalogue:       cat,
		StorageBackend:  cfg.Storage,
		Gatherer:        registry,
		CalendarURL:     cfg.CalendarURL,
		MaxPhotoBytes:   cfg.MaxPhotoBytes,
		SubmitBurst:     cfg.SubmitBurst,
		SubmitPerMinute: cfg.SubmitPerMinute,
		CSRFKey:         csrfKey,
		SecureCookies:   cfg.SecureCookies,
	}

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  httpserver.New(cfg, loggerClient, d),
		storage: closer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting skylog v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.closeStorage()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.closeStorage()
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.closeStorage()
	a.logger.Info("✅ skylog stopped cleanly")
	return nil
}

func (a *App) closeStorage() {
	if err := a.storage.Close(); err != nil {
		a.logger.Warnf("failed to close %s storage: %v", a.cfg.Storage, err)
		return
	}
	a.logger.Info("✅ storage closed cleanly", logger.String("backend", a.cfg.Storage))
}
