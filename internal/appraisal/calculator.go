// Package appraisal values a weight of metal at the current market price.
package appraisal

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/truegold/internal/domain"
)

// PriceSource yields a per-gram price in a target currency.
type PriceSource interface {
	PricePerGram(ctx context.Context, kind domain.MetalKind, target domain.CurrencyCode) (float64, error)
}

// Calculator applies purity and weight to a per-gram price.
type Calculator struct {
	prices PriceSource
}

func NewCalculator(prices PriceSource) *Calculator {
	if prices == nil {
		panic("appraisal.NewCalculator: price source must not be nil")
	}
	return &Calculator{prices: prices}
}

// Appraise values grams of kind at purityFactor in target. The regional kind's
// price already reflects its fineness, so purityFactor is ignored for it.
func (c *Calculator) Appraise(ctx context.Context, kind domain.MetalKind, purityFactor, grams float64, target domain.CurrencyCode) (domain.AppraisalResult, error) {
	if math.IsNaN(grams) || math.IsInf(grams, 0) || grams <= 0 {
		return domain.AppraisalResult{}, fmt.Errorf("%w: weight must be a positive number", domain.ErrInvalidInput)
	}
	if !kind.IsRegional() && (math.IsNaN(purityFactor) || purityFactor <= 0 || purityFactor > 1) {
		return domain.AppraisalResult{}, fmt.Errorf("%w: purity factor must be in (0, 1], got %v", domain.ErrInvalidInput, purityFactor)
	}

	basePerGram, err := c.prices.PricePerGram(ctx, kind, target)
	if err != nil {
		return domain.AppraisalResult{}, fmt.Errorf("pricing %s in %s: %w", kind, target, err)
	}

	var perGram float64
	var note string
	if kind.IsRegional() {
		perGram = basePerGram
		note = fmt.Sprintf("Thai 96.5%% price (per gram) in %s", target)
	} else {
		perGram = basePerGram * purityFactor
		note = fmt.Sprintf("Spot × purity (%s%%) in %s", formatPercent(purityFactor), target)
	}

	return domain.AppraisalResult{
		PerGram:  perGram,
		Total:    perGram * grams,
		Currency: target,
		Note:     note,
	}, nil
}

// Request is a user-facing appraisal form: weight as typed, in a named unit, with a
// purity preset ID. Purity may be empty to use the metal's default preset.
type Request struct {
	Kind     string `json:"kind"`
	Purity   string `json:"purity"`
	Weight   string `json:"weight"`
	Unit     string `json:"unit"`
	Currency string `json:"currency"`
}

// AppraiseWeight validates a Request against the metal's offered units and purities,
// normalizes the weight to grams and appraises it.
func (c *Calculator) AppraiseWeight(ctx context.Context, req Request) (domain.AppraisalResult, error) {
	kind, err := domain.ParseMetalKind(req.Kind)
	if err != nil {
		return domain.AppraisalResult{}, err
	}
	target, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return domain.AppraisalResult{}, err
	}
	unit, err := domain.ParseWeightUnit(req.Unit)
	if err != nil {
		return domain.AppraisalResult{}, err
	}
	if !unitAllowed(kind.Metal(), unit) {
		return domain.AppraisalResult{}, fmt.Errorf("%w: unit %q not offered for %s", domain.ErrInvalidInput, unit.Name, kind.Metal())
	}

	purity := domain.DefaultPurity(kind.Metal())
	if kind.IsRegional() {
		purity = domain.Thai965
	} else if req.Purity != "" {
		purity, err = domain.ParsePurity(kind.Metal(), req.Purity)
		if err != nil {
			return domain.AppraisalResult{}, err
		}
	}

	weight, err := ParseWeight(req.Weight)
	if err != nil {
		return domain.AppraisalResult{}, err
	}

	return c.Appraise(ctx, kind, purity.Factor, unit.ToGrams(weight), target)
}

// ParseWeight reads a user-typed positive number. A comma is accepted as the
// decimal separator.
func ParseWeight(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if cleaned == "" {
		return 0, fmt.Errorf("%w: weight is empty", domain.ErrInvalidInput)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: weight %q is not a number", domain.ErrInvalidInput, s)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: weight must be greater than zero", domain.ErrInvalidInput)
	}
	return d.InexactFloat64(), nil
}

func unitAllowed(m domain.Metal, u domain.WeightUnit) bool {
	return lo.Contains(domain.AllowedUnits(m), u)
}

// formatPercent renders 0.999 as "99.9" and 0.75 as "75".
func formatPercent(factor float64) string {
	pct := math.Round(factor*1000) / 10
	return strconv.FormatFloat(pct, 'f', -1, 64)
}
