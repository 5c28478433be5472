package ratecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/truegold/internal/domain"
)

// DefaultKey is the key prefix the rate table snapshot is stored under.
const DefaultKey = "ExchangeRateCache_ALL"

// RateCache reads and writes a CachedRateTable as two Store entries:
// "<key>_rates" holding the JSON table and "<key>_timestamp" holding the fetch time.
type RateCache struct {
	store Store
	key   string
}

func New(store Store, key string) *RateCache {
	if store == nil {
		panic("ratecache.New: store must not be nil")
	}
	if key == "" {
		key = DefaultKey
	}
	return &RateCache{store: store, key: key}
}

func (c *RateCache) ratesKey() string     { return c.key + "_rates" }
func (c *RateCache) timestampKey() string { return c.key + "_timestamp" }

// Load returns the stored snapshot. ok is false when either entry is missing or
// cannot be decoded; store errors are logged and treated the same way.
func (c *RateCache) Load(ctx context.Context) (domain.CachedRateTable, bool) {
	rawRates, ok, err := c.store.Get(ctx, c.ratesKey())
	if err != nil {
		slog.Warn("RateCache: reading rates failed", "key", c.ratesKey(), "error", err)
		return domain.CachedRateTable{}, false
	}
	if !ok {
		return domain.CachedRateTable{}, false
	}

	rawTS, ok, err := c.store.Get(ctx, c.timestampKey())
	if err != nil {
		slog.Warn("RateCache: reading timestamp failed", "key", c.timestampKey(), "error", err)
		return domain.CachedRateTable{}, false
	}
	if !ok {
		return domain.CachedRateTable{}, false
	}

	var decoded map[string]float64
	if err := json.Unmarshal(rawRates, &decoded); err != nil {
		slog.Warn("RateCache: undecodable rates entry", "key", c.ratesKey(), "error", err)
		return domain.CachedRateTable{}, false
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, string(rawTS))
	if err != nil {
		slog.Warn("RateCache: undecodable timestamp entry", "key", c.timestampKey(), "error", err)
		return domain.CachedRateTable{}, false
	}

	return domain.CachedRateTable{
		Rates:     domain.RateTableFromStrings(decoded),
		FetchedAt: fetchedAt,
	}, true
}

// Save writes the table and its fetch time.
func (c *RateCache) Save(ctx context.Context, snapshot domain.CachedRateTable) error {
	data, err := json.Marshal(snapshot.Rates)
	if err != nil {
		return fmt.Errorf("encoding rate table: %w", err)
	}
	if err := c.store.Set(ctx, c.ratesKey(), data); err != nil {
		return fmt.Errorf("saving rate table: %w", err)
	}
	ts := snapshot.FetchedAt.UTC().Format(time.RFC3339Nano)
	if err := c.store.Set(ctx, c.timestampKey(), []byte(ts)); err != nil {
		return fmt.Errorf("saving rate timestamp: %w", err)
	}
	return nil
}

// Clear removes both entries.
func (c *RateCache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.ratesKey()); err != nil {
		return fmt.Errorf("clearing rate table: %w", err)
	}
	if err := c.store.Delete(ctx, c.timestampKey()); err != nil {
		return fmt.Errorf("clearing rate timestamp: %w", err)
	}
	return nil
}
