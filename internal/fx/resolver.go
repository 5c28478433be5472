// Package fx resolves the current exchange-rate table through an ordered chain of
// sources and converts amounts between currencies.
package fx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/metrics"
	"github.com/mtlprog/truegold/internal/netstate"
	"github.com/mtlprog/truegold/internal/ratecache"
)

// Source names the tier that produced a resolved table.
type Source string

const (
	SourceMock       Source = "mock"
	SourceCache      Source = "cache"
	SourceLive       Source = "live"
	SourceStaleCache Source = "stale-cache"
	SourceBundled    Source = "bundled"
	SourceHardcoded  Source = "hardcoded"
)

// errSkip means a strategy does not apply; resolution continues with the next one.
var errSkip = errors.New("strategy not applicable")

type strategy struct {
	source Source
	run    func(ctx context.Context) (domain.RateTable, error)
}

// ResolverConfig holds the knobs that shape the fallback chain.
type ResolverConfig struct {
	TTL     time.Duration
	UseMock bool
	Bundled func() (domain.RateTable, error)
	Now     func() time.Time
}

// Resolver produces a rate table on every call and never fails.
type Resolver struct {
	live    LiveSource
	cache   *ratecache.RateCache
	network netstate.Signal
	ttl     time.Duration
	mock    bool
	bundled func() (domain.RateTable, error)
	now     func() time.Time
}

func NewResolver(live LiveSource, cache *ratecache.RateCache, network netstate.Signal, cfg ResolverConfig) *Resolver {
	if live == nil {
		panic("fx.NewResolver: live source must not be nil")
	}
	if cache == nil {
		panic("fx.NewResolver: cache must not be nil")
	}
	if network == nil {
		network = netstate.Static(true)
	}
	r := &Resolver{
		live:    live,
		cache:   cache,
		network: network,
		ttl:     cfg.TTL,
		mock:    cfg.UseMock,
		bundled: cfg.Bundled,
		now:     cfg.Now,
	}
	if r.bundled == nil {
		r.bundled = Bundled
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Resolve returns the best available rate table.
func (r *Resolver) Resolve(ctx context.Context) domain.RateTable {
	table, _ := r.ResolveWithSource(ctx)
	return table
}

// ResolveWithSource returns the best available table and the tier that answered.
//
// Order: mock flag, fresh cache, then either the offline chain (any cache, bundled,
// hardcoded) or a live fetch followed by the same chain on failure. Only a
// successful live fetch writes to the cache.
func (r *Resolver) ResolveWithSource(ctx context.Context) (domain.RateTable, Source) {
	var chain []strategy
	switch {
	case r.mock:
		chain = []strategy{{SourceMock, r.hardcoded}}
	default:
		chain = append(chain, strategy{SourceCache, r.freshCache})
		if r.network.IsOnline() {
			chain = append(chain, strategy{SourceLive, r.fetchLive})
		} else {
			slog.Info("RateResolver: offline, skipping live fetch")
		}
		chain = append(chain,
			strategy{SourceStaleCache, r.anyCache},
			strategy{SourceBundled, r.bundledTable},
			strategy{SourceHardcoded, r.hardcoded},
		)
	}

	for _, s := range chain {
		table, err := s.run(ctx)
		if err != nil {
			if !errors.Is(err, errSkip) {
				slog.Warn("RateResolver: tier failed", "source", s.source, "error", err)
			}
			continue
		}
		slog.Info("RateResolver: resolved rates", "source", s.source, "currencies", len(table))
		metrics.RecordRateSource(string(s.source))
		return table, s.source
	}

	// Unreachable while the hardcoded tier is last in every chain.
	return Hardcoded(), SourceHardcoded
}

func (r *Resolver) hardcoded(context.Context) (domain.RateTable, error) {
	return Hardcoded(), nil
}

func (r *Resolver) bundledTable(context.Context) (domain.RateTable, error) {
	return r.bundled()
}

func (r *Resolver) freshCache(ctx context.Context) (domain.RateTable, error) {
	snap, ok := r.cache.Load(ctx)
	if !ok || len(snap.Rates) == 0 {
		return nil, errSkip
	}
	if snap.Expired(r.now(), r.ttl) {
		return nil, errSkip
	}
	return snap.Rates, nil
}

func (r *Resolver) anyCache(ctx context.Context) (domain.RateTable, error) {
	snap, ok := r.cache.Load(ctx)
	if !ok || len(snap.Rates) == 0 {
		return nil, errSkip
	}
	return snap.Rates, nil
}

func (r *Resolver) fetchLive(ctx context.Context) (domain.RateTable, error) {
	table, err := r.live.FetchRates(ctx)
	if err != nil {
		metrics.RecordProviderFailure("fx")
		return nil, err
	}
	if err := table.Validate(); err != nil {
		metrics.RecordProviderFailure("fx")
		return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	snap := domain.CachedRateTable{Rates: table, FetchedAt: r.now()}
	if err := r.cache.Save(ctx, snap); err != nil {
		slog.Warn("RateResolver: caching live rates failed", "error", err)
	}
	return table, nil
}

// Refresh bypasses the fresh-cache tier and attempts a live fetch, storing the result.
// It is used by the background rate worker to keep the cache warm.
func (r *Resolver) Refresh(ctx context.Context) (domain.RateTable, error) {
	if r.mock {
		return Hardcoded(), nil
	}
	if !r.network.IsOnline() {
		return nil, fmt.Errorf("%w: offline", domain.ErrNetwork)
	}
	return r.fetchLive(ctx)
}
