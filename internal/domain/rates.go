package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"
)

// DefaultRateTTL is how long a fetched rate table stays fresh.
const DefaultRateTTL = 12 * time.Hour

// RateTable maps a currency to units of that currency per 1 unit of ReferenceCurrency.
type RateTable map[CurrencyCode]float64

// RateTableFromStrings builds a table from a decoded JSON mapping, dropping entries with
// non-positive or non-finite values.
func RateTableFromStrings(raw map[string]float64) RateTable {
	t := make(RateTable, len(raw))
	for code, v := range raw {
		if !validRate(v) {
			continue
		}
		t[CurrencyCode(code)] = v
	}
	return t
}

// Validate returns an error wrapping ErrMalformedResponse if the table is empty or holds
// an unusable value.
func (t RateTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty rate table", ErrMalformedResponse)
	}
	for code, v := range t {
		if !validRate(v) {
			return fmt.Errorf("%w: invalid rate %v for %s", ErrMalformedResponse, v, code)
		}
	}
	return nil
}

// Clone returns an independent copy.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Codes returns the table's currency codes sorted alphabetically.
func (t RateTable) Codes() []CurrencyCode {
	codes := lo.Keys(t)
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Has reports whether the table carries a rate for code.
func (t RateTable) Has(code CurrencyCode) bool {
	_, ok := t[code]
	return ok
}

// CachedRateTable is a rate table with the time it was retrieved.
type CachedRateTable struct {
	Rates     RateTable
	FetchedAt time.Time
}

// Expired reports whether the snapshot is stale. A snapshot exactly ttl old is expired,
// so a zero ttl always forces a refetch.
func (c CachedRateTable) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.FetchedAt) >= ttl
}

func validRate(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
