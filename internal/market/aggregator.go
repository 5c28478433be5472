// Package market turns provider feeds into per-kind quotes, substituting fixed
// fallback prices when a provider is unavailable.
package market

//go:generate mockgen -source=aggregator.go -destination=mock_providers_test.go -package=market

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/metrics"
	"github.com/mtlprog/truegold/internal/regional"
)

// SpotProvider returns a midpoint price per troy ounce.
type SpotProvider interface {
	FetchMidPrice(ctx context.Context, symbol string, quoteCurrency domain.CurrencyCode) (float64, error)
}

// RegionalProvider returns the Thai gold market quote.
type RegionalProvider interface {
	FetchQuote(ctx context.Context) (regional.Quote, error)
}

// Fallbacks are the prices used when a provider fails, in USD per troy ounce.
type Fallbacks struct {
	GoldUSDPerOz      float64
	SilverUSDPerOz    float64
	PlatinumUSDPerOz  float64
	PalladiumUSDPerOz float64
	// RegionalFineness scales the gold per-gram price when the regional feed fails.
	RegionalFineness float64
}

func DefaultFallbacks() Fallbacks {
	return Fallbacks{
		GoldUSDPerOz:      2400,
		SilverUSDPerOz:    30,
		PlatinumUSDPerOz:  1000,
		PalladiumUSDPerOz: 1000,
		RegionalFineness:  0.965,
	}
}

// withDefaults replaces every non-positive or non-finite price, and any fineness
// outside (0, 1], with the value from DefaultFallbacks.
func (f Fallbacks) withDefaults() Fallbacks {
	def := DefaultFallbacks()
	for _, p := range []struct{ v, d *float64 }{
		{&f.GoldUSDPerOz, &def.GoldUSDPerOz},
		{&f.SilverUSDPerOz, &def.SilverUSDPerOz},
		{&f.PlatinumUSDPerOz, &def.PlatinumUSDPerOz},
		{&f.PalladiumUSDPerOz, &def.PalladiumUSDPerOz},
	} {
		if !(*p.v > 0) || math.IsInf(*p.v, 0) {
			*p.v = *p.d
		}
	}
	if !(f.RegionalFineness > 0) || f.RegionalFineness > 1 {
		f.RegionalFineness = def.RegionalFineness
	}
	return f
}

func (f Fallbacks) perOunce(m domain.Metal) float64 {
	switch m {
	case domain.Gold:
		return f.GoldUSDPerOz
	case domain.Silver:
		return f.SilverUSDPerOz
	case domain.Platinum:
		return f.PlatinumUSDPerOz
	case domain.Palladium:
		return f.PalladiumUSDPerOz
	default:
		return 0
	}
}

// KindResult is the outcome of one kind within QuoteAll.
type KindResult struct {
	Kind  domain.MetalKind
	Quote domain.Quote
	Err   error
}

// Aggregator produces a positive quote for every known kind.
type Aggregator struct {
	spot        SpotProvider
	regional    RegionalProvider
	fallbacks   Fallbacks
	concurrency int
	now         func() time.Time
}

func NewAggregator(spot SpotProvider, regional RegionalProvider, fallbacks Fallbacks, concurrency int) *Aggregator {
	if spot == nil {
		panic("market.NewAggregator: spot provider must not be nil")
	}
	if regional == nil {
		panic("market.NewAggregator: regional provider must not be nil")
	}
	if concurrency <= 0 {
		concurrency = len(domain.MetalKinds)
	}
	fallbacks = fallbacks.withDefaults()
	return &Aggregator{
		spot:        spot,
		regional:    regional,
		fallbacks:   fallbacks,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Quote returns the current quote for kind. Provider failures never surface here;
// the only error is an unknown kind.
func (a *Aggregator) Quote(ctx context.Context, kind domain.MetalKind) (domain.Quote, error) {
	if !kind.Valid() {
		return domain.Quote{}, fmt.Errorf("%w: unknown metal kind %q", domain.ErrInvalidInput, kind)
	}

	var q domain.Quote
	if kind.IsRegional() {
		q = a.regionalQuote(ctx, kind)
	} else {
		q = a.spotQuote(ctx, kind)
	}
	metrics.RecordQuote(string(kind), string(q.Source))
	return q, nil
}

// QuoteAll fetches kinds concurrently. Each kind is isolated: results come back in
// input order and one kind's error never cancels the others.
func (a *Aggregator) QuoteAll(ctx context.Context, kinds []domain.MetalKind) []KindResult {
	results := make([]KindResult, len(kinds))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, kind := range kinds {
		g.Go(func() error {
			q, err := a.Quote(ctx, kind)
			if err != nil {
				slog.Warn("MarketAggregator: quote failed", "kind", kind, "error", err)
			}
			results[i] = KindResult{Kind: kind, Quote: q, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (a *Aggregator) spotQuote(ctx context.Context, kind domain.MetalKind) domain.Quote {
	mid, err := a.spot.FetchMidPrice(ctx, kind.Symbol(), domain.ReferenceCurrency)
	if err == nil {
		q := domain.Quote{
			Kind:         kind,
			PricePerUnit: mid,
			Unit:         domain.TroyOunce,
			Currency:     domain.ReferenceCurrency,
			Source:       domain.SourceLive,
			FetchedAt:    a.now(),
		}
		if err = q.Validate(); err == nil {
			return q
		}
	}

	metrics.RecordProviderFailure("spot")
	fallback := a.fallbacks.perOunce(kind.Metal())
	slog.Warn("MarketAggregator: spot unavailable, using fallback",
		"kind", kind, "fallback_usd_per_oz", fallback, "error", err)
	return domain.Quote{
		Kind:         kind,
		PricePerUnit: fallback,
		Unit:         domain.TroyOunce,
		Currency:     domain.ReferenceCurrency,
		Source:       domain.SourceFallback,
		FetchedAt:    a.now(),
	}
}

func (a *Aggregator) regionalQuote(ctx context.Context, kind domain.MetalKind) domain.Quote {
	rq, err := a.regional.FetchQuote(ctx)
	if err == nil {
		q := domain.Quote{
			Kind:         kind,
			PricePerUnit: rq.BarSell.InexactFloat64(),
			Unit:         domain.ThaiBahtWeight,
			Currency:     domain.THB,
			Source:       domain.SourceLive,
			FetchedAt:    rq.FetchedAt,
		}
		if err = q.Validate(); err == nil {
			return q
		}
	}

	metrics.RecordProviderFailure("regional")
	gold := a.spotQuote(ctx, domain.GoldSpot)
	perGram := gold.PricePerGram() * a.fallbacks.RegionalFineness
	slog.Warn("MarketAggregator: regional unavailable, deriving from gold spot",
		"gold_source", gold.Source, "fineness", a.fallbacks.RegionalFineness, "error", err)
	return domain.Quote{
		Kind:         kind,
		PricePerUnit: perGram,
		Unit:         domain.Gram,
		Currency:     domain.ReferenceCurrency,
		Source:       domain.SourceFallback,
		FetchedAt:    a.now(),
	}
}
