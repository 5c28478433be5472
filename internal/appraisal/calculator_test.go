package appraisal

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/fx"
	"github.com/mtlprog/truegold/internal/market"
	"github.com/mtlprog/truegold/internal/netstate"
	"github.com/mtlprog/truegold/internal/pricing"
	"github.com/mtlprog/truegold/internal/regional"
)

type fixedPrice struct {
	perGram float64
	calls   int
}

func (f *fixedPrice) PricePerGram(context.Context, domain.MetalKind, domain.CurrencyCode) (float64, error) {
	f.calls++
	return f.perGram, nil
}

func TestAppraiseAppliesPurity(t *testing.T) {
	c := NewCalculator(&fixedPrice{perGram: 100})

	res, err := c.Appraise(context.Background(), domain.GoldSpot, 0.75, 4, domain.EUR)
	require.NoError(t, err)

	assert.InDelta(t, 75.0, res.PerGram, 1e-9)
	assert.InDelta(t, 300.0, res.Total, 1e-9)
	assert.Equal(t, domain.EUR, res.Currency)
	assert.Equal(t, "Spot × purity (75%) in EUR", res.Note)
}

func TestAppraiseRegionalIgnoresPurity(t *testing.T) {
	c := NewCalculator(&fixedPrice{perGram: 1312.5})

	for _, factor := range []float64{0.5, 0.965, 1.0, 0, -3, math.NaN()} {
		res, err := c.Appraise(context.Background(), domain.GoldThai965, factor, 2, domain.THB)
		require.NoError(t, err, "factor %v", factor)
		assert.Equal(t, 1312.5, res.PerGram)
		assert.Equal(t, 2625.0, res.Total)
		assert.Equal(t, "Thai 96.5% price (per gram) in THB", res.Note)
	}
}

func TestAppraiseRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		grams  float64
		purity float64
	}{
		{"zero grams", 0, 0.999},
		{"negative grams", -1, 0.999},
		{"nan grams", math.NaN(), 0.999},
		{"infinite grams", math.Inf(1), 0.999},
		{"zero purity", 1, 0},
		{"purity above one", 1, 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fixedPrice{perGram: 100}
			_, err := NewCalculator(src).Appraise(context.Background(), domain.GoldSpot, tt.purity, tt.grams, domain.USD)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, src.calls, "no price lookup on invalid input")
		})
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"10", 10, false},
		{" 2,5 ", 2.5, false},
		{"0.75", 0.75, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-1", 0, true},
		{"NaN", 0, true},
		{"1,234.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeight(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppraiseWeight(t *testing.T) {
	c := NewCalculator(&fixedPrice{perGram: 100})

	res, err := c.AppraiseWeight(context.Background(), Request{
		Kind: "gold-spot", Purity: "k18", Weight: "1,5", Unit: "baht", Currency: "thb",
	})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, res.PerGram, 1e-9)
	assert.InDelta(t, 75.0*1.5*15.244, res.Total, 1e-9)
	assert.Equal(t, domain.THB, res.Currency)

	res, err = c.AppraiseWeight(context.Background(), Request{
		Kind: "silver-spot", Weight: "2", Unit: "ozt", Currency: "USD",
	})
	require.NoError(t, err)
	assert.InDelta(t, 99.9, res.PerGram, 1e-9, "default silver purity is .999")
	assert.InDelta(t, 99.9*2*domain.GramsPerTroyOunce, res.Total, 1e-9)
}

func TestAppraiseWeightValidation(t *testing.T) {
	c := NewCalculator(&fixedPrice{perGram: 100})

	tests := []struct {
		name string
		req  Request
	}{
		{"unknown kind", Request{Kind: "copper", Weight: "1", Currency: "USD"}},
		{"unknown currency", Request{Kind: "gold-spot", Weight: "1", Currency: "BTC"}},
		{"unknown unit", Request{Kind: "gold-spot", Weight: "1", Unit: "stone", Currency: "USD"}},
		{"unit not offered for silver", Request{Kind: "silver-spot", Weight: "1", Unit: "baht", Currency: "USD"}},
		{"purity not offered for silver", Request{Kind: "silver-spot", Purity: "k24", Weight: "1", Currency: "USD"}},
		{"bad weight", Request{Kind: "gold-spot", Weight: "lots", Currency: "USD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.AppraiseWeight(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

type downSpot struct{}

func (downSpot) FetchMidPrice(context.Context, string, domain.CurrencyCode) (float64, error) {
	return 0, fmt.Errorf("%w: spot down", domain.ErrUnavailable)
}

type downRegional struct{}

func (downRegional) FetchQuote(context.Context) (regional.Quote, error) {
	return regional.Quote{}, fmt.Errorf("%w: regional down", domain.ErrUnavailable)
}

type usdOnly struct{}

func (usdOnly) ResolveWithSource(context.Context) (domain.RateTable, fx.Source) {
	return domain.RateTable{domain.USD: 1.0, domain.THB: 35.0}, fx.SourceCache
}

func TestAppraiseGoldFallbackEndToEnd(t *testing.T) {
	agg := market.NewAggregator(downSpot{}, downRegional{}, market.DefaultFallbacks(), 0)
	engine := pricing.NewEngine(agg, usdOnly{}, netstate.Static(true))
	c := NewCalculator(engine)

	perGram, err := engine.PricePerGram(context.Background(), domain.GoldSpot, domain.USD)
	require.NoError(t, err)
	assert.InDelta(t, 2400/31.1034768, perGram, 1e-9)
	assert.InDelta(t, 77.16, perGram, 0.01)

	res, err := c.Appraise(context.Background(), domain.GoldSpot, 0.999, 10, domain.USD)
	require.NoError(t, err)
	assert.InDelta(t, 2400/31.1034768*0.999*10, res.Total, 1e-9)
	assert.InDelta(t, 770.85, res.Total, 0.01)
	assert.Equal(t, "Spot × purity (99.9%) in USD", res.Note)
}
