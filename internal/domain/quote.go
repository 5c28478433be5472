package domain

import (
	"fmt"
	"math"
	"time"
)

// QuoteSource tells whether a quote came from a live provider or a fallback constant.
type QuoteSource string

const (
	SourceLive     QuoteSource = "live"
	SourceFallback QuoteSource = "fallback"
)

// Quote is a price for one unit of a metal kind in a currency.
type Quote struct {
	Kind         MetalKind    `json:"kind"`
	PricePerUnit float64      `json:"pricePerUnit"`
	Unit         WeightUnit   `json:"unit"`
	Currency     CurrencyCode `json:"currency"`
	Source       QuoteSource  `json:"source"`
	FetchedAt    time.Time    `json:"fetchedAt"`
}

// PricePerGram normalizes the quote to one gram.
func (q Quote) PricePerGram() float64 {
	return q.PricePerUnit / q.Unit.Grams
}

// Validate checks the positive-price invariant.
func (q Quote) Validate() error {
	if q.PricePerUnit <= 0 || math.IsNaN(q.PricePerUnit) || math.IsInf(q.PricePerUnit, 0) {
		return fmt.Errorf("%w: non-positive price %v for %s", ErrMalformedResponse, q.PricePerUnit, q.Kind)
	}
	if q.Unit.Grams <= 0 {
		return fmt.Errorf("%w: unit %q has no gram ratio", ErrMalformedResponse, q.Unit.Name)
	}
	return nil
}

// AppraisalResult is a derived valuation for a user-entered weight.
type AppraisalResult struct {
	PerGram  float64      `json:"perGram"`
	Total    float64      `json:"total"`
	Currency CurrencyCode `json:"currency"`
	Note     string       `json:"note"`
}
