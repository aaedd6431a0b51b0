package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/josh-kwaku/user-directory/internal/domain"
	"github.com/josh-kwaku/user-directory/internal/logging"
	"github.com/josh-kwaku/user-directory/internal/store"
)

type directoryStore interface {
	Snapshot() store.Snapshot
	FetchAll(ctx context.Context) error
}

// Refresher loads the directory when it is first started in the idle state
// and, with a positive interval, refetches on a ticker.
type Refresher struct {
	store    directoryStore
	logger   *slog.Logger
	interval time.Duration
}

func NewRefresher(directory directoryStore, logger *slog.Logger, interval time.Duration) *Refresher {
	return &Refresher{
		store:    directory,
		logger:   logger,
		interval: interval,
	}
}

func (r *Refresher) Start(ctx context.Context) {
	ctx = logging.WithLogger(ctx, r.logger)

	if r.store.Snapshot().Status == domain.FetchStatusIdle {
		r.refresh(ctx)
	}

	if r.interval <= 0 {
		return
	}

	r.logger.Info("directory refresher started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("directory refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	if err := r.store.FetchAll(ctx); err != nil {
		r.logger.Error("failed to refresh directory", "error", err)
	}
}
