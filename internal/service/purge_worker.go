package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Tombstone defaults.
const (
	DefaultTombstoneRetention = 30 * 24 * time.Hour
	DefaultPurgeInterval      = time.Hour
)

// Purger removes soft-deleted bookmarks. Implemented by
// repository.BookmarkRepo.
type Purger interface {
	PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeWorker is a periodic background job that drops deletion tombstones
// once they are older than the retention window. Clients that have not
// delta-synced within the window must fall back to a full sync.
type PurgeWorker struct {
	store     Purger
	interval  time.Duration
	retention time.Duration
	logger    zerolog.Logger
	now       func() time.Time
	stopCh    chan struct{}
}

// NewPurgeWorker creates a worker that ticks every interval.
func NewPurgeWorker(store Purger, interval, retention time.Duration, logger zerolog.Logger) *PurgeWorker {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	if retention <= 0 {
		retention = DefaultTombstoneRetention
	}
	return &PurgeWorker{
		store:     store,
		interval:  interval,
		retention: retention,
		logger:    logger.With().Str("component", "purge-worker").Logger(),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic purge loop. It runs one tick immediately, then
// every interval, until ctx ends or Stop is called.
func (w *PurgeWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("starting")

	// Run once immediately on startup
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.logger.Info().Msg("stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info().Msg("stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *PurgeWorker) Stop() {
	close(w.stopCh)
}

// tick runs one purge cycle.
func (w *PurgeWorker) tick(ctx context.Context) {
	start := time.Now()
	cutoff := w.now().Add(-w.retention)

	purged, err := w.store.PurgeDeleted(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("purge failed")
		}
		return
	}

	w.logger.Info().
		Int64("purged", purged).
		Time("cutoff", cutoff).
		Dur("elapsed", time.Since(start)).
		Msg("tick complete")
}
