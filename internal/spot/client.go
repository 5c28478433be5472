// Package spot fetches metal spot prices from a public bid/ask venue feed.
package spot

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/httpx"
	"github.com/mtlprog/truegold/internal/metrics"
)

// DefaultTierPreference lists spread profiles from tightest to widest.
var DefaultTierPreference = []string{"elite", "prime", "premium", "standard"}

type spreadProfilePrice struct {
	SpreadProfile string  `json:"spreadProfile"`
	BidSpread     float64 `json:"bidSpread"`
	AskSpread     float64 `json:"askSpread"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
}

type venueQuote struct {
	Topo struct {
		Platform string `json:"platform"`
		Server   string `json:"server"`
	} `json:"topo"`
	SpreadProfilePrices []spreadProfilePrice `json:"spreadProfilePrices"`
	TS                  int64                `json:"ts"`
}

// Client fetches midpoint prices per troy ounce.
type Client struct {
	baseURL string
	tiers   []string
	http    *httpx.Client
}

func NewClient(baseURL string, timeout time.Duration, tiers []string) *Client {
	if len(tiers) == 0 {
		tiers = DefaultTierPreference
	}
	h := httpx.New(timeout)
	h.Headers = httpx.NoCacheHeaders
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tiers:   tiers,
		http:    h,
	}
}

// FetchMidPrice returns (bid+ask)/2 for one troy ounce of symbol priced in quoteCurrency.
// Every failure wraps domain.ErrUnavailable.
func (c *Client) FetchMidPrice(ctx context.Context, symbol string, quoteCurrency domain.CurrencyCode) (float64, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, symbol, quoteCurrency)

	start := time.Now()
	var venues []venueQuote
	err := c.http.GetJSON(ctx, url, &venues)
	metrics.ObserveUpstream("spot", time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("%w: spot %s/%s: %w", domain.ErrUnavailable, symbol, quoteCurrency, err)
	}

	best, ok := pickBest(venues, c.tiers)
	if !ok {
		return 0, fmt.Errorf("%w: spot %s/%s: %w: no quotes", domain.ErrUnavailable, symbol, quoteCurrency, domain.ErrMalformedResponse)
	}

	mid := (best.Bid + best.Ask) / 2
	if mid <= 0 || math.IsNaN(mid) || math.IsInf(mid, 0) {
		return 0, fmt.Errorf("%w: spot %s/%s: %w: mid price %v", domain.ErrUnavailable, symbol, quoteCurrency, domain.ErrMalformedResponse, mid)
	}
	return mid, nil
}

// pickBest returns the first quote whose spread profile matches the highest-ranked
// tier across all venues, or else the first quote of the first venue.
func pickBest(venues []venueQuote, tiers []string) (spreadProfilePrice, bool) {
	for _, tier := range tiers {
		for _, v := range venues {
			for _, p := range v.SpreadProfilePrices {
				if strings.EqualFold(p.SpreadProfile, tier) {
					return p, true
				}
			}
		}
	}
	if len(venues) > 0 && len(venues[0].SpreadProfilePrices) > 0 {
		return venues[0].SpreadProfilePrices[0], true
	}
	return spreadProfilePrice{}, false
}
