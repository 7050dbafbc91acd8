package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/brainpanel/internal/adapter/driven/geo"
	"github.com/ericfisherdev/brainpanel/internal/adapter/driven/notify"
	sqliteadapter "github.com/ericfisherdev/brainpanel/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/brainpanel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/brainpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/config"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"telemetry_interval", cfg.TelemetryInterval,
		"geo_enabled", cfg.GeoURL != "",
		"services", cfg.Services,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	key, err := cfg.EncryptionKey()
	if err != nil {
		return err
	}
	if key == nil {
		slog.Warn("BRAINPANEL_SECRET_KEY not set, credentials cannot be saved")
	}
	credentialStore := sqliteadapter.NewCredentialRepo(db, key)
	messageStore := sqliteadapter.NewMessageRepo(db, cfg.MessageLimit)
	notifications := notify.NewQueue(notify.DefaultCapacity, slog.Default())

	var locator driven.Locator
	if cfg.GeoURL != "" {
		locator = geo.NewClient(cfg.GeoURL, cfg.GeoTimeout, slog.Default())
	} else {
		slog.Info("no geolocation endpoint configured, location reports unsupported")
	}

	// 6. Wire application services.
	credentialSvc := application.NewCredentialService(credentialStore, notifications, nil, slog.Default())
	resolver := application.NewCredentialResolver(credentialStore, cfg.FallbackCredentials())
	poller := application.NewTelemetryPoller(cfg.TelemetryInterval, nil, slog.Default())
	composer := application.NewContextComposer(messageStore, slog.Default())
	panels := application.NewPanelService(credentialSvc, poller, locator, composer, cfg.Services, slog.Default())
	panels.SetLimits(application.PanelLimits{IdleTTL: cfg.PanelIdleTTL, MaxPanels: cfg.MaxPanels})
	defer panels.CloseAll()

	for _, name := range cfg.Services {
		secret, err := resolver.Resolve(ctx, name)
		if err != nil {
			slog.Warn("credential check failed", "service", name, "error", err)
			continue
		}
		slog.Info("service credential", "service", name, "configured", secret != "", "fallback", resolver.HasFallback(name))
	}

	// 7. Create HTTP handlers and register routes.
	mux := http.NewServeMux()
	apiHandler := httphandler.NewHandler(panels, credentialSvc, resolver, messageStore, notifications, slog.Default())
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	webHandler := webhandler.NewHandler(panels, notifications, poller.Interval(), slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Sessions whose browser went away are closed after the idle TTL.
	g.Go(func() error {
		return panels.RunReaper(gctx, cfg.PanelIdleTTL/4)
	})

	// 8. Wait for shutdown signal (or a server failure) and drain.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	slog.Info("brainpanel started", "listen_addr", cfg.ListenAddr)

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}
