package fx

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/mtlprog/truegold/internal/domain"
)

//go:embed default_exchange_rates.json
var bundledRatesJSON []byte

// Hardcoded returns the last-resort table. It is a fresh copy on every call.
func Hardcoded() domain.RateTable {
	return domain.RateTable{
		domain.USD: 1.0,
		domain.THB: 35.0,
		domain.EUR: 0.91,
		domain.VND: 23000.0,
		domain.LAK: 21000.0,
		domain.KHR: 4100.0,
	}
}

// Bundled decodes the rate table shipped inside the binary.
func Bundled() (domain.RateTable, error) {
	return parseBundled(bundledRatesJSON)
}

func parseBundled(data []byte) (domain.RateTable, error) {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: bundled rates: %w", domain.ErrMalformedResponse, err)
	}
	table := domain.RateTableFromStrings(raw)
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: bundled rates are empty", domain.ErrNoData)
	}
	return table, nil
}
