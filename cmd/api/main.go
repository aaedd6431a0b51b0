package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/josh-kwaku/user-directory/api"
	"github.com/josh-kwaku/user-directory/internal/config"
	"github.com/josh-kwaku/user-directory/internal/domain"
	"github.com/josh-kwaku/user-directory/internal/handler"
	"github.com/josh-kwaku/user-directory/internal/logging"
	"github.com/josh-kwaku/user-directory/internal/middleware"
	"github.com/josh-kwaku/user-directory/internal/repository"
	"github.com/josh-kwaku/user-directory/internal/service"
	"github.com/josh-kwaku/user-directory/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("user-directory", cfg.LogLevel, cfg.AppEnv)

	client := service.NewPlaceholderClient(cfg.PlaceholderBaseURL, cfg.FetchTimeout)
	directory := store.NewUserStore(client)
	directory.Subscribe(statusLogger(logger))

	idempotency := repository.NewIdempotencyRepository()

	mux := handler.Routes(
		handler.NewUserHandler(directory),
		handler.NewHealthHandler(directory),
		handler.NewDocsHandler(api.OpenAPI),
		middleware.Idempotency(idempotency, cfg.IdempotencyTTL),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Chain(mux, middleware.Tracing, middleware.Logging(logger), middleware.Recovery),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go service.NewRefresher(directory, logger, cfg.RefreshInterval).Start(ctx)
	go purgeIdempotency(ctx, idempotency, cfg.IdempotencyTTL)

	go func() {
		slog.Info("server started", "addr", addr, "placeholder_base_url", cfg.PlaceholderBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// statusLogger logs fetch status transitions observed on the store.
func statusLogger(logger *slog.Logger) func(store.Snapshot) {
	var (
		mu   sync.Mutex
		last domain.FetchStatus
	)
	return func(s store.Snapshot) {
		mu.Lock()
		changed := s.Status != last
		last = s.Status
		mu.Unlock()

		if !changed {
			return
		}
		logger.Info("directory status changed", "status", s.Status, "count", len(s.Items), "error", s.Error)
	}
}

func purgeIdempotency(ctx context.Context, repo *repository.IdempotencyRepository, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := repo.Purge(ctx); n > 0 {
				slog.Debug("purged idempotency entries", "count", n)
			}
		}
	}
}
