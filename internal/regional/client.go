// Package regional fetches the Thai gold association's 96.5% bar and jewelry prices.
package regional

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/httpx"
	"github.com/mtlprog/truegold/internal/metrics"
)

// Quote holds customer-facing prices in THB per baht weight.
//
// The upstream feed labels prices from the shop's point of view, so its "buy" is
// what a customer pays. Fields here are already swapped to the customer's view.
type Quote struct {
	BarSell     decimal.Decimal // customer pays for a bar
	BarBuy      decimal.Decimal // shop buys a bar back
	JewelrySell decimal.Decimal // customer pays for jewelry
	JewelryBuy  decimal.Decimal // shop buys jewelry back
	FetchedAt   time.Time
}

// Suspicious reports a buy-back price above the selling price.
func (q Quote) Suspicious() bool {
	return q.BarBuy.GreaterThan(q.BarSell)
}

type buySell struct {
	Buy  string `json:"buy"`
	Sell string `json:"sell"`
}

type latestResponse struct {
	Status   string `json:"status"`
	Response struct {
		Date       string `json:"date"`
		UpdateTime string `json:"update_time"`
		Price      struct {
			GoldBar buySell `json:"gold_bar"`
			Gold    buySell `json:"gold"`
		} `json:"price"`
	} `json:"response"`
}

// Client talks to a chnwt thai-gold-api compatible endpoint.
type Client struct {
	url  string
	http *httpx.Client
	now  func() time.Time
}

func NewClient(url string, timeout time.Duration, userAgent string) *Client {
	h := httpx.New(timeout)
	if userAgent != "" {
		h.UserAgent = userAgent
	}
	return &Client{url: url, http: h, now: time.Now}
}

// FetchQuote returns the corrected quote. Every failure wraps domain.ErrUnavailable.
func (c *Client) FetchQuote(ctx context.Context) (Quote, error) {
	start := time.Now()
	var resp latestResponse
	err := c.http.GetJSON(ctx, c.url, &resp)
	metrics.ObserveUpstream("regional", time.Since(start).Seconds())
	if err != nil {
		return Quote{}, fmt.Errorf("%w: regional gold: %w", domain.ErrUnavailable, err)
	}

	price := resp.Response.Price
	rawBarBuy, err := parsePrice("gold_bar.buy", price.GoldBar.Buy)
	if err != nil {
		return Quote{}, err
	}
	rawBarSell, err := parsePrice("gold_bar.sell", price.GoldBar.Sell)
	if err != nil {
		return Quote{}, err
	}
	rawJewelryBuy, err := parsePrice("gold.buy", price.Gold.Buy)
	if err != nil {
		return Quote{}, err
	}
	rawJewelrySell, err := parsePrice("gold.sell", price.Gold.Sell)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{
		BarSell:     rawBarBuy,
		BarBuy:      rawBarSell,
		JewelrySell: rawJewelryBuy,
		JewelryBuy:  rawJewelrySell,
		FetchedAt:   c.now(),
	}

	slog.Debug("RegionalClient: quote fetched",
		"bar_sell", q.BarSell.String(), "bar_buy", q.BarBuy.String(),
		"jewelry_sell", q.JewelrySell.String(), "updated", resp.Response.UpdateTime)

	if q.Suspicious() {
		slog.Warn("RegionalClient: suspicious quote, bar buy-back above bar sell",
			"bar_buy", q.BarBuy.String(), "bar_sell", q.BarSell.String())
	}
	return q, nil
}

func parsePrice(field, raw string) (decimal.Decimal, error) {
	d, err := domain.ParseGrouped(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: regional gold %s: %w", domain.ErrUnavailable, field, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: regional gold %s: %w: non-positive price %s",
			domain.ErrUnavailable, field, domain.ErrMalformedResponse, raw)
	}
	return d, nil
}
