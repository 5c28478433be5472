package fx

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/httpx"
	"github.com/mtlprog/truegold/internal/metrics"
)

// LiveSource fetches the current rate table from an upstream feed.
type LiveSource interface {
	FetchRates(ctx context.Context) (domain.RateTable, error)
}

// Client fetches USD-based rates from an open.er-api.com compatible endpoint.
type Client struct {
	url  string
	http *httpx.Client
}

func NewClient(url string, timeout time.Duration, maxRetries int) *Client {
	h := httpx.New(timeout)
	h.Headers = httpx.NoCacheHeaders
	h.MaxRetries = maxRetries
	return &Client{url: url, http: h}
}

type latestResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

// FetchRates returns the validated table. Every failure wraps domain.ErrUnavailable.
func (c *Client) FetchRates(ctx context.Context) (domain.RateTable, error) {
	start := time.Now()
	var resp latestResponse
	err := c.http.GetJSON(ctx, c.url, &resp)
	metrics.ObserveUpstream("fx", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: fetching exchange rates: %w", domain.ErrUnavailable, err)
	}

	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("%w: %w: response has no rates (result %q)",
			domain.ErrUnavailable, domain.ErrMalformedResponse, resp.Result)
	}

	table := domain.RateTable{}
	for code, v := range resp.Rates {
		table[domain.CurrencyCode(code)] = v
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return table, nil
}
