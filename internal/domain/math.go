package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyPrecision = 2

// ParseGrouped parses a number that may carry comma thousands separators, e.g. "43,250.00".
func ParseGrouped(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty number", ErrMalformedResponse)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: parsing %q: %v", ErrMalformedResponse, value, err)
	}
	return d, nil
}

// RoundMoney rounds a price to two decimal places for presentation.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(moneyPrecision).Float64()
	return f
}

// FormatMoney renders a price with two decimals and comma thousands grouping.
func FormatMoney(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(moneyPrecision)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
