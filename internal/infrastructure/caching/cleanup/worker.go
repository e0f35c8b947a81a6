// Package cleanup provides the background maintenance worker: cache TTL
// purging, stale payment expiry and performance marker pruning.
package cleanup

import (
	"context"
	"time"

	"github.com/pixpage/pixpage/internal/infrastructure/caching/interfaces"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
)

// PaymentExpirer marks pending payments past their expiry as expired.
type PaymentExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

// Report summarizes one cleanup pass.
type Report struct {
	PagesPurged     int
	ChunksPurged    int
	PaymentsExpired int
	MarkersPruned   int
	Duration        time.Duration
}

// Total is the number of items removed or updated.
func (r Report) Total() int {
	return r.PagesPurged + r.ChunksPurged + r.PaymentsExpired + r.MarkersPruned
}

// Worker handles background cleanup operations
type Worker struct {
	cache    interfaces.Cache
	payments PaymentExpirer
	tracker  *performance.Tracker
	config   *Config
	logger   *logging.ChanneledLogger
}

// NewWorker creates a cleanup worker. payments and tracker may be nil.
func NewWorker(cache interfaces.Cache, payments PaymentExpirer, tracker *performance.Tracker, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:    cache,
		payments: payments,
		tracker:  tracker,
		config:   config,
		logger:   logger,
	}
}

// Start runs the cleanup loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cleanup worker started",
		"interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown().Info("Cleanup worker stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass.
func (w *Worker) RunOnce(ctx context.Context) Report {
	start := time.Now()
	var report Report

	report.PagesPurged = w.cache.PurgeExpiredPages(w.config.PageCacheTTL)
	report.ChunksPurged = w.cache.PurgeExpiredChunks(w.config.FragmentCacheTTL)

	if w.payments != nil {
		expired, err := w.payments.ExpireStale(ctx, time.Now().UTC())
		if err != nil {
			w.logger.LogError(logging.ChannelPayment, "expire_stale_payments", err, nil)
		}
		report.PaymentsExpired = expired
	}

	if w.tracker != nil {
		report.MarkersPruned = w.tracker.Cleanup()
		if report.MarkersPruned > 0 {
			w.logger.Perf().Debug("Performance markers pruned", "count", report.MarkersPruned)
		}
	}

	report.Duration = time.Since(start)

	if report.Total() > 0 {
		w.logger.Cache().Info("Cleanup finished",
			"pagesPurged", report.PagesPurged,
			"chunksPurged", report.ChunksPurged,
			"paymentsExpired", report.PaymentsExpired,
			"markersPruned", report.MarkersPruned,
			"duration", report.Duration)
	} else if w.config.VerboseReporting {
		w.logger.Cache().Info("Cleanup completed, nothing expired",
			"stats", w.cache.Stats(), "duration", report.Duration)
	}

	return report
}
