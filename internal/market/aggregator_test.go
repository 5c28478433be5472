package market

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/regional"
)

var errDown = fmt.Errorf("%w: provider down", domain.ErrUnavailable)

func newAggregator(t *testing.T) (*Aggregator, *MockSpotProvider, *MockRegionalProvider) {
	t.Helper()
	ctrl := gomock.NewController(t)
	spot := NewMockSpotProvider(ctrl)
	reg := NewMockRegionalProvider(ctrl)
	return NewAggregator(spot, reg, DefaultFallbacks(), 2), spot, reg
}

func TestQuoteSpotLive(t *testing.T) {
	agg, spot, _ := newAggregator(t)
	spot.EXPECT().FetchMidPrice(gomock.Any(), "XAU", domain.USD).Return(2488.0, nil)

	q, err := agg.Quote(context.Background(), domain.GoldSpot)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceLive, q.Source)
	assert.Equal(t, domain.USD, q.Currency)
	assert.Equal(t, domain.TroyOunce, q.Unit)
	assert.InDelta(t, 2488.0/domain.GramsPerTroyOunce, q.PricePerGram(), 1e-9)
}

func TestQuoteSpotFallbackPerKind(t *testing.T) {
	tests := []struct {
		kind   domain.MetalKind
		symbol string
		perOz  float64
	}{
		{domain.GoldSpot, "XAU", 2400},
		{domain.SilverSpot, "XAG", 30},
		{domain.PlatinumSpot, "XPT", 1000},
		{domain.PalladiumSpot, "XPD", 1000},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			agg, spot, _ := newAggregator(t)
			spot.EXPECT().FetchMidPrice(gomock.Any(), tt.symbol, domain.USD).Return(0.0, errDown)

			q, err := agg.Quote(context.Background(), tt.kind)
			require.NoError(t, err)

			assert.Equal(t, domain.SourceFallback, q.Source)
			assert.Equal(t, domain.USD, q.Currency)
			assert.Greater(t, q.PricePerGram(), 0.0)
			assert.InDelta(t, tt.perOz/domain.GramsPerTroyOunce, q.PricePerGram(), 1e-9)
		})
	}
}

func TestQuoteGoldFallbackPerGram(t *testing.T) {
	agg, spot, _ := newAggregator(t)
	spot.EXPECT().FetchMidPrice(gomock.Any(), "XAU", domain.USD).Return(0.0, errDown)

	q, err := agg.Quote(context.Background(), domain.GoldSpot)
	require.NoError(t, err)

	assert.InDelta(t, 77.16, q.PricePerGram(), 0.01)
}

func TestQuoteRegionalUsesCorrectedBarSell(t *testing.T) {
	agg, _, reg := newAggregator(t)
	fetched := time.Date(2026, 9, 15, 9, 12, 0, 0, time.UTC)
	reg.EXPECT().FetchQuote(gomock.Any()).Return(regional.Quote{
		BarSell:   decimal.NewFromInt(20000), // upstream "buy"
		BarBuy:    decimal.NewFromInt(19900), // upstream "sell"
		FetchedAt: fetched,
	}, nil)

	q, err := agg.Quote(context.Background(), domain.GoldThai965)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceLive, q.Source)
	assert.Equal(t, domain.THB, q.Currency)
	assert.Equal(t, domain.ThaiBahtWeight, q.Unit)
	assert.Equal(t, 20000.0, q.PricePerUnit)
	assert.InDelta(t, 20000.0/15.244, q.PricePerGram(), 1e-9)
	assert.NotEqual(t, 19900.0/15.244, q.PricePerGram())
	assert.True(t, q.FetchedAt.Equal(fetched))
}

func TestQuoteRegionalFallback(t *testing.T) {
	t.Run("live gold spot", func(t *testing.T) {
		agg, spot, reg := newAggregator(t)
		reg.EXPECT().FetchQuote(gomock.Any()).Return(regional.Quote{}, errDown)
		spot.EXPECT().FetchMidPrice(gomock.Any(), "XAU", domain.USD).Return(3110.34768, nil)

		q, err := agg.Quote(context.Background(), domain.GoldThai965)
		require.NoError(t, err)

		assert.Equal(t, domain.SourceFallback, q.Source)
		assert.Equal(t, domain.USD, q.Currency)
		assert.Equal(t, domain.Gram, q.Unit)
		assert.InDelta(t, 100*0.965, q.PricePerGram(), 1e-6)
	})

	t.Run("gold fallback constant", func(t *testing.T) {
		agg, spot, reg := newAggregator(t)
		reg.EXPECT().FetchQuote(gomock.Any()).Return(regional.Quote{}, errDown)
		spot.EXPECT().FetchMidPrice(gomock.Any(), "XAU", domain.USD).Return(0.0, errDown)

		q, err := agg.Quote(context.Background(), domain.GoldThai965)
		require.NoError(t, err)

		assert.Equal(t, domain.SourceFallback, q.Source)
		assert.InDelta(t, 2400/domain.GramsPerTroyOunce*0.965, q.PricePerGram(), 1e-9)
	})
}

func TestQuoteUnknownKind(t *testing.T) {
	agg, _, _ := newAggregator(t)

	_, err := agg.Quote(context.Background(), domain.MetalKind("copper"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuoteAllIsolatesFailures(t *testing.T) {
	agg, spot, reg := newAggregator(t)

	spot.EXPECT().FetchMidPrice(gomock.Any(), "XAU", domain.USD).Return(2500.0, nil).AnyTimes()
	spot.EXPECT().FetchMidPrice(gomock.Any(), "XAG", domain.USD).Return(0.0, errDown)
	spot.EXPECT().FetchMidPrice(gomock.Any(), "XPT", domain.USD).Return(980.0, nil)
	spot.EXPECT().FetchMidPrice(gomock.Any(), "XPD", domain.USD).Return(0.0, errDown)
	reg.EXPECT().FetchQuote(gomock.Any()).Return(regional.Quote{}, errDown)

	kinds := append([]domain.MetalKind{}, domain.MetalKinds...)
	kinds = append(kinds, "copper")
	results := agg.QuoteAll(context.Background(), kinds)

	require.Len(t, results, len(kinds))
	for i, r := range results {
		assert.Equal(t, kinds[i], r.Kind, "results keep input order")
	}

	byKind := make(map[domain.MetalKind]KindResult)
	for _, r := range results {
		byKind[r.Kind] = r
	}
	assert.Equal(t, domain.SourceLive, byKind[domain.GoldSpot].Quote.Source)
	assert.Equal(t, domain.SourceFallback, byKind[domain.SilverSpot].Quote.Source)
	assert.Equal(t, domain.SourceLive, byKind[domain.PlatinumSpot].Quote.Source)
	assert.Equal(t, domain.SourceFallback, byKind[domain.PalladiumSpot].Quote.Source)
	assert.Equal(t, domain.SourceFallback, byKind[domain.GoldThai965].Quote.Source)
	assert.ErrorIs(t, byKind["copper"].Err, domain.ErrInvalidInput)

	for _, k := range domain.MetalKinds {
		assert.NoError(t, byKind[k].Err)
		assert.Greater(t, byKind[k].Quote.PricePerGram(), 0.0, "kind %s", k)
	}
}

type countingSpot struct {
	inFlight, peak atomic.Int32
}

func (c *countingSpot) FetchMidPrice(context.Context, string, domain.CurrencyCode) (float64, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return 100, nil
}

type okRegional struct{}

func (okRegional) FetchQuote(context.Context) (regional.Quote, error) {
	return regional.Quote{BarSell: decimal.NewFromInt(40000), FetchedAt: time.Now()}, nil
}

func TestQuoteAllRespectsConcurrencyLimit(t *testing.T) {
	spot := &countingSpot{}
	agg := NewAggregator(spot, okRegional{}, DefaultFallbacks(), 2)

	kinds := []domain.MetalKind{domain.GoldSpot, domain.SilverSpot, domain.PlatinumSpot, domain.PalladiumSpot,
		domain.GoldSpot, domain.SilverSpot}
	results := agg.QuoteAll(context.Background(), kinds)

	require.Len(t, results, len(kinds))
	assert.LessOrEqual(t, spot.peak.Load(), int32(2))
}

func TestNewAggregatorClampsFineness(t *testing.T) {
	fb := DefaultFallbacks()
	fb.RegionalFineness = 1.5
	agg := NewAggregator(&countingSpot{}, okRegional{}, fb, 0)

	assert.Equal(t, 0.965, agg.fallbacks.RegionalFineness)
	assert.Equal(t, len(domain.MetalKinds), agg.concurrency)
}

func TestNewAggregatorDefaultsNonPositiveFallbacks(t *testing.T) {
	ctrl := gomock.NewController(t)
	spot := NewMockSpotProvider(ctrl)
	reg := NewMockRegionalProvider(ctrl)
	spot.EXPECT().FetchMidPrice(gomock.Any(), gomock.Any(), gomock.Any()).Return(0.0, errDown).AnyTimes()
	reg.EXPECT().FetchQuote(gomock.Any()).Return(regional.Quote{}, errDown).AnyTimes()

	agg := NewAggregator(spot, reg, Fallbacks{SilverUSDPerOz: -5}, 0)
	assert.Equal(t, DefaultFallbacks(), agg.fallbacks)

	for _, kind := range domain.MetalKinds {
		q, err := agg.Quote(context.Background(), kind)
		require.NoError(t, err)
		assert.Greater(t, q.PricePerGram(), 0.0, "kind %s", kind)
		assert.NoError(t, q.Validate(), "kind %s", kind)
	}
}

func TestQuoteNonPositiveLivePriceFallsBack(t *testing.T) {
	agg, spot, reg := newAggregator(t)
	spot.EXPECT().FetchMidPrice(gomock.Any(), "XAU", domain.USD).Return(0.0, nil).Times(2)
	reg.EXPECT().FetchQuote(gomock.Any()).Return(regional.Quote{BarSell: decimal.Zero, FetchedAt: time.Now()}, nil)

	q, err := agg.Quote(context.Background(), domain.GoldSpot)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFallback, q.Source)
	assert.InDelta(t, 2400/domain.GramsPerTroyOunce, q.PricePerGram(), 1e-9)

	q, err = agg.Quote(context.Background(), domain.GoldThai965)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFallback, q.Source)
	assert.InDelta(t, 2400/domain.GramsPerTroyOunce*0.965, q.PricePerGram(), 1e-9)
}
