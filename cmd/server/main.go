package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fanout/internal/config"
	"fanout/internal/domain/notification"
	"fanout/internal/infra/channel"
	"fanout/internal/infra/directory"
	"fanout/internal/infra/metrics"
	"fanout/internal/infra/store"
	"fanout/internal/router"
)

func main() {
	// Bootstrap logger until the configured level is known
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"store", cfg.Store.Driver,
		"parallel", cfg.Dispatch.Parallel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	recipients, err := buildDirectory(ctx, cfg.Directory)
	if err != nil {
		return err
	}

	auditStore, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer auditStore.Close()

	registry, err := notification.NewRegistry(channel.All(buildTransport(cfg.Email), notification.SystemClock)...)
	if err != nil {
		return fmt.Errorf("building strategy registry: %w", err)
	}
	slog.Info("strategy registry initialized", "channels", registry.Channels())

	var prom *metrics.Prometheus
	opts := []notification.DispatcherOption{}
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		opts = append(opts, notification.WithRecorder(prom))
	}
	if cfg.Dispatch.Parallel {
		opts = append(opts, notification.WithParallel(cfg.Dispatch.MaxConcurrency))
	}

	dispatcher := notification.NewDispatcher(recipients, registry, auditStore, opts...)
	notificationService := notification.NewService(dispatcher, recipients)
	notificationHandler := notification.NewHandler(notificationService)

	r := router.New(cfg, notificationHandler, prom)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// buildDirectory loads recipients from the configured YAML file, or the
// built-in fixture when no path is set.
func buildDirectory(ctx context.Context, cfg config.DirectoryConfig) (*directory.Memory, error) {
	if cfg.Path == "" {
		dir := directory.NewMemory(directory.Fixture()...)
		slog.Info("recipient directory initialized", "source", "fixture", "recipients", len(directory.Fixture()))
		return dir, nil
	}

	rs, err := directory.LoadFile(cfg.Path)
	if err != nil {
		return nil, err
	}
	dir := directory.NewMemory(rs...)
	slog.Info("recipient directory initialized", "source", cfg.Path, "recipients", len(rs))

	if cfg.Watch {
		if err := directory.Watch(ctx, cfg.Path, dir); err != nil {
			return nil, err
		}
		slog.Info("recipient directory watcher started", "path", cfg.Path)
	}
	return dir, nil
}

// buildTransport routes email through Resend when configured. Every other
// channel is simulated.
func buildTransport(cfg config.EmailConfig) channel.Transport {
	if cfg.Provider != config.EmailResend {
		return channel.SimulatedTransport{}
	}
	slog.Info("email transport initialized", "provider", cfg.Provider, "from", cfg.FromAddress)
	return channel.NewRouter(map[notification.Channel]channel.Transport{
		notification.ChannelEmail: channel.NewResendTransport(cfg.APIKey, cfg.FromAddress, cfg.FromName),
	}, nil)
}
