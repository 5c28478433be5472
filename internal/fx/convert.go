package fx

import (
	"context"
	"log/slog"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/metrics"
)

// Convert converts amount between currencies through the table's USD base.
// Equal currencies return amount unchanged without consulting the table.
// A missing rate for either side yields 0.0.
func Convert(amount float64, from, to domain.CurrencyCode, table domain.RateTable) float64 {
	if from == to {
		return amount
	}
	fromRate, okFrom := table[from]
	toRate, okTo := table[to]
	if !okFrom || !okTo {
		slog.Debug("Convert: missing rate", "from", from, "to", to)
		metrics.RecordDegradedConversion()
		return 0.0
	}
	return amount / fromRate * toRate
}

// RateSource is what Converter needs from a resolver.
type RateSource interface {
	Resolve(ctx context.Context) domain.RateTable
}

// Converter converts against whatever table the resolver currently yields.
type Converter struct {
	rates RateSource
}

func NewConverter(rates RateSource) *Converter {
	if rates == nil {
		panic("fx.NewConverter: rate source must not be nil")
	}
	return &Converter{rates: rates}
}

// Convert resolves the current table and converts amount.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to domain.CurrencyCode) float64 {
	return Convert(amount, from, to, c.rates.Resolve(ctx))
}

// Rate returns how many units of to one unit of from buys. ok is false when the
// table lacks either currency, which Convert would report as 0.0.
func (c *Converter) Rate(ctx context.Context, from, to domain.CurrencyCode) (float64, bool) {
	if from == to {
		return 1, true
	}
	table := c.rates.Resolve(ctx)
	if !table.Has(from) || !table.Has(to) {
		return 0, false
	}
	return Convert(1, from, to, table), true
}
