// Package pricing composes market quotes with exchange rates into per-gram prices
// in any supported currency.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/fx"
	"github.com/mtlprog/truegold/internal/market"
	"github.com/mtlprog/truegold/internal/netstate"
)

const offlineNotice = "Offline: showing cached exchange rates if available; live spot prices may be unavailable."

// Quoter is the part of market.Aggregator the engine needs.
type Quoter interface {
	Quote(ctx context.Context, kind domain.MetalKind) (domain.Quote, error)
	QuoteAll(ctx context.Context, kinds []domain.MetalKind) []market.KindResult
}

// RateResolver is the part of fx.Resolver the engine needs.
type RateResolver interface {
	ResolveWithSource(ctx context.Context) (domain.RateTable, fx.Source)
}

// Price is a per-gram price with its provenance.
type Price struct {
	Kind        domain.MetalKind    `json:"kind"`
	PerGram     float64             `json:"perGram"`
	Currency    domain.CurrencyCode `json:"currency"`
	QuoteSource domain.QuoteSource  `json:"quoteSource"`
	RateSource  fx.Source           `json:"rateSource"`
	// Available is false when the conversion degraded to 0.0 for lack of a rate.
	Available bool      `json:"available"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// BoardRow is one line of the market board.
type BoardRow struct {
	Kind      domain.MetalKind    `json:"kind"`
	Title     string              `json:"title"`
	Currency  domain.CurrencyCode `json:"currency"`
	PerGram   float64             `json:"perGram"`
	PerUnit   float64             `json:"perUnit"`
	Source    domain.QuoteSource  `json:"source"`
	Available bool                `json:"available"`
	Error     string              `json:"error,omitempty"`
}

// Board is the market overview for every metal kind.
type Board struct {
	Currency    domain.CurrencyCode `json:"currency"`
	Unit        domain.WeightUnit   `json:"unit"`
	RateSource  fx.Source           `json:"rateSource"`
	Notice      string              `json:"notice,omitempty"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Rows        []BoardRow          `json:"rows"`
}

// Engine orchestrates quotes and conversion. It adds no pricing policy of its own.
type Engine struct {
	quotes  Quoter
	rates   RateResolver
	network netstate.Signal
	now     func() time.Time
}

func NewEngine(quotes Quoter, rates RateResolver, network netstate.Signal) *Engine {
	if quotes == nil {
		panic("pricing.NewEngine: quoter must not be nil")
	}
	if rates == nil {
		panic("pricing.NewEngine: rate resolver must not be nil")
	}
	if network == nil {
		network = netstate.Static(true)
	}
	return &Engine{quotes: quotes, rates: rates, network: network, now: time.Now}
}

// PricePerGram returns the price of one gram of kind in target. A missing exchange
// rate yields 0.0, not an error.
func (e *Engine) PricePerGram(ctx context.Context, kind domain.MetalKind, target domain.CurrencyCode) (float64, error) {
	p, err := e.Price(ctx, kind, target)
	if err != nil {
		return 0, err
	}
	return p.PerGram, nil
}

// Price is PricePerGram with provenance attached.
func (e *Engine) Price(ctx context.Context, kind domain.MetalKind, target domain.CurrencyCode) (Price, error) {
	if !target.Supported() {
		return Price{}, fmt.Errorf("%w: unsupported currency %q", domain.ErrInvalidInput, target)
	}
	q, err := e.quotes.Quote(ctx, kind)
	if err != nil {
		return Price{}, err
	}
	table, rateSource := e.rates.ResolveWithSource(ctx)
	perGram, ok := convert(q.PricePerGram(), q.Currency, target, table)
	return Price{
		Kind:        kind,
		PerGram:     perGram,
		Currency:    target,
		QuoteSource: q.Source,
		RateSource:  rateSource,
		Available:   ok,
		FetchedAt:   q.FetchedAt,
	}, nil
}

// Board prices every kind in target, expressed per gram and per unit. Only grams
// and troy ounces are offered as board units.
func (e *Engine) Board(ctx context.Context, target domain.CurrencyCode, unit domain.WeightUnit) (Board, error) {
	if err := validateBoard(target, unit); err != nil {
		return Board{}, err
	}

	return e.BoardFromResults(ctx, e.quotes.QuoteAll(ctx, domain.MetalKinds), target, unit)
}

// BoardFromResults builds a board from quotes the caller already fetched.
func (e *Engine) BoardFromResults(ctx context.Context, results []market.KindResult, target domain.CurrencyCode, unit domain.WeightUnit) (Board, error) {
	if err := validateBoard(target, unit); err != nil {
		return Board{}, err
	}

	table, rateSource := e.rates.ResolveWithSource(ctx)

	rows := lo.Map(results, func(r market.KindResult, _ int) BoardRow {
		row := BoardRow{Kind: r.Kind, Title: r.Kind.DisplayName(), Currency: target}
		if r.Err != nil {
			row.Error = r.Err.Error()
			return row
		}
		perGram, ok := convert(r.Quote.PricePerGram(), r.Quote.Currency, target, table)
		row.PerGram = perGram
		row.PerUnit = perGram * unit.Grams
		row.Source = r.Quote.Source
		row.Available = ok
		return row
	})

	board := Board{
		Currency:    target,
		Unit:        unit,
		RateSource:  rateSource,
		GeneratedAt: e.now(),
		Rows:        rows,
	}
	if !e.network.IsOnline() {
		board.Notice = offlineNotice
	}
	return board, nil
}

func validateBoard(target domain.CurrencyCode, unit domain.WeightUnit) error {
	if !target.Supported() {
		return fmt.Errorf("%w: unsupported currency %q", domain.ErrInvalidInput, target)
	}
	if unit != domain.Gram && unit != domain.TroyOunce {
		return fmt.Errorf("%w: board unit must be gram or ozt, got %q", domain.ErrInvalidInput, unit.Name)
	}
	return nil
}

// convert reports ok=false when the amount could not be converted and fx.Convert
// degraded to 0.0.
func convert(amount float64, from, to domain.CurrencyCode, table domain.RateTable) (float64, bool) {
	v := fx.Convert(amount, from, to, table)
	if from == to {
		return v, true
	}
	return v, table.Has(from) && table.Has(to)
}
