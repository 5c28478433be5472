package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/truegold/internal/domain"
)

// RateRefresher fetches live exchange rates and stores them in the rate cache.
type RateRefresher interface {
	Refresh(ctx context.Context) (domain.RateTable, error)
}

// RateWorker keeps the exchange-rate cache warm.
type RateWorker struct {
	refresher RateRefresher
	interval  time.Duration
}

// NewRateWorker creates a new RateWorker.
func NewRateWorker(refresher RateRefresher, interval time.Duration) *RateWorker {
	return &RateWorker{
		refresher: refresher,
		interval:  interval,
	}
}

func (w *RateWorker) refresh(ctx context.Context) {
	table, err := w.refresher.Refresh(ctx)
	if err != nil {
		slog.Error("RateWorker: refresh failed", "error", err)
		return
	}
	slog.Info("RateWorker: refresh completed", "currencies", len(table))
}

// Run starts the rate worker loop. It blocks until the context is cancelled.
func (w *RateWorker) Run(ctx context.Context) {
	slog.Info("RateWorker: starting", "interval", w.interval)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RateWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}
