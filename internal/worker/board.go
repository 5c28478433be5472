package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/market"
	"github.com/mtlprog/truegold/internal/pricing"
)

// Quoter fetches quotes for several kinds at once.
type Quoter interface {
	QuoteAll(ctx context.Context, kinds []domain.MetalKind) []market.KindResult
}

// QuoteStore persists the latest quote per kind.
type QuoteStore interface {
	SaveQuote(ctx context.Context, q domain.Quote) error
}

// BoardBuilder turns fetched quotes into a market board.
type BoardBuilder interface {
	BoardFromResults(ctx context.Context, results []market.KindResult, target domain.CurrencyCode, unit domain.WeightUnit) (pricing.Board, error)
}

// AfterBoardHook is called after each successful board refresh.
type AfterBoardHook interface {
	Export(ctx context.Context, board pricing.Board) error
}

// BoardWorker periodically refreshes the latest-quote snapshot and exports the board.
type BoardWorker struct {
	quoter   Quoter
	store    QuoteStore
	builder  BoardBuilder
	currency domain.CurrencyCode
	interval time.Duration
	hooks    []AfterBoardHook
}

// NewBoardWorker creates a new BoardWorker. Hooks are optional.
func NewBoardWorker(quoter Quoter, store QuoteStore, builder BoardBuilder, currency domain.CurrencyCode, interval time.Duration, hooks ...AfterBoardHook) *BoardWorker {
	return &BoardWorker{
		quoter:   quoter,
		store:    store,
		builder:  builder,
		currency: currency,
		interval: interval,
		hooks:    hooks,
	}
}

// RefreshOnce fetches all kinds, stores every quote and runs the export hooks.
func (w *BoardWorker) RefreshOnce(ctx context.Context) error {
	results := w.quoter.QuoteAll(ctx, domain.MetalKinds)

	stored := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if err := w.store.SaveQuote(ctx, r.Quote); err != nil {
			slog.Error("BoardWorker: saving quote failed", "kind", r.Kind, "error", err)
			continue
		}
		stored++
	}

	board, err := w.builder.BoardFromResults(ctx, results, w.currency, domain.Gram)
	if err != nil {
		return err
	}
	slog.Info("BoardWorker: refresh completed", "stored", stored, "rate_source", board.RateSource)

	for _, hook := range w.hooks {
		if err := hook.Export(ctx, board); err != nil {
			slog.Error("BoardWorker: export hook failed", "error", err)
		} else {
			slog.Info("BoardWorker: export hook completed")
		}
	}
	return nil
}

// Run starts the board worker loop. It blocks until the context is cancelled.
func (w *BoardWorker) Run(ctx context.Context) {
	slog.Info("BoardWorker: starting", "interval", w.interval, "currency", w.currency)

	if err := w.RefreshOnce(ctx); err != nil {
		slog.Error("BoardWorker: initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("BoardWorker: shutting down")
			return
		case <-ticker.C:
			if err := w.RefreshOnce(ctx); err != nil {
				slog.Error("BoardWorker: refresh failed", "error", err)
			}
		}
	}
}
