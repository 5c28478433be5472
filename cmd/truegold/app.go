package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/truegold/internal/api"
	"github.com/mtlprog/truegold/internal/appraisal"
	"github.com/mtlprog/truegold/internal/config"
	"github.com/mtlprog/truegold/internal/database"
	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/export"
	"github.com/mtlprog/truegold/internal/fx"
	"github.com/mtlprog/truegold/internal/market"
	"github.com/mtlprog/truegold/internal/netstate"
	"github.com/mtlprog/truegold/internal/pricing"
	"github.com/mtlprog/truegold/internal/quotes"
	"github.com/mtlprog/truegold/internal/ratecache"
	"github.com/mtlprog/truegold/internal/regional"
	"github.com/mtlprog/truegold/internal/spot"
	"github.com/mtlprog/truegold/internal/worker"
)

// app holds every service, constructed once and passed down explicitly.
type app struct {
	cfg config.Config

	network    netstate.Signal
	monitor    *netstate.Monitor
	resolver   *fx.Resolver
	aggregator *market.Aggregator
	engine     *pricing.Engine
	calculator *appraisal.Calculator
	quotes     quotes.Repository

	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { p.Close(); return nil })

		migrationsSub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
		}
		if err := database.RunMigrations(ctx, p, migrationsSub); err != nil {
			a.Close()
			return nil, err
		}
		pool = p
	}

	store, err := a.openCacheStore(ctx, pool)
	if err != nil {
		a.Close()
		return nil, err
	}
	cache := ratecache.New(store, ratecache.DefaultKey)
	if cfg.ClearCache {
		if err := cache.Clear(ctx); err != nil {
			slog.Warn("failed to clear rate cache", "error", err)
		} else {
			slog.Info("rate cache cleared")
		}
	}

	a.network = netstate.Static(true)
	if cfg.ConnectivityProbeURL != "" {
		a.monitor = netstate.NewMonitor(cfg.ConnectivityProbeURL, cfg.ConnectivityInterval)
		a.network = a.monitor
	}

	a.resolver = fx.NewResolver(
		fx.NewClient(cfg.FXURL, cfg.FXTimeout, cfg.HTTPRetryMax),
		cache,
		a.network,
		fx.ResolverConfig{TTL: cfg.RateCacheTTL, UseMock: cfg.UseMockData},
	)

	a.aggregator = market.NewAggregator(
		spot.NewClient(cfg.SpotURL, cfg.SpotTimeout, cfg.SpotTierPreference),
		regional.NewClient(cfg.RegionalURL, cfg.RegionalTimeout, cfg.RegionalUserAgent),
		market.Fallbacks{
			GoldUSDPerOz:      cfg.FallbackGoldUSDPerOz,
			SilverUSDPerOz:    cfg.FallbackSilverUSDPerOz,
			PlatinumUSDPerOz:  cfg.FallbackPlatinumUSDPerOz,
			PalladiumUSDPerOz: cfg.FallbackPalladiumUSDPerOz,
			RegionalFineness:  cfg.RegionalFineness,
		},
		cfg.QuoteConcurrency,
	)
	a.engine = pricing.NewEngine(a.aggregator, a.resolver, a.network)
	a.calculator = appraisal.NewCalculator(a.engine)

	if pool != nil {
		a.quotes = quotes.NewPgRepository(pool)
	} else {
		a.quotes = quotes.NewMemoryRepository()
	}

	return a, nil
}

func (a *app) openCacheStore(ctx context.Context, pool *pgxpool.Pool) (ratecache.Store, error) {
	switch a.cfg.CacheBackend {
	case "", "memory":
		return ratecache.NewMemoryStore(), nil
	case "sqlite":
		db, err := database.OpenSQLite(ctx, a.cfg.CacheSQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		store, err := ratecache.NewSQLiteStore(ctx, db)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		if pool == nil {
			return nil, errors.New("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
		return ratecache.NewPgStore(pool), nil
	case "redis":
		if a.cfg.RedisURL == "" {
			return nil, errors.New("CACHE_BACKEND=redis requires REDIS_URL")
		}
		store, err := ratecache.NewRedisStoreFromURL(a.cfg.RedisURL, "truegold:")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", a.cfg.CacheBackend)
	}
}

// exportHooks builds the board exporters enabled by configuration.
func (a *app) exportHooks(ctx context.Context) []worker.AfterBoardHook {
	var hooks []worker.AfterBoardHook
	if a.cfg.XLSXExportPath != "" {
		hooks = append(hooks, export.NewXLSXWriter(a.cfg.XLSXExportPath))
	}
	if a.cfg.GoogleSheetsID != "" && a.cfg.GoogleCredentialsJSON != "" {
		w, err := export.NewSheetsWriter(ctx, a.cfg.GoogleSheetsID, a.cfg.GoogleCredentialsJSON)
		if err != nil {
			slog.Error("failed to create sheets writer, Google Sheets export disabled", "error", err)
		} else {
			hooks = append(hooks, w)
		}
	}
	return hooks
}

func (a *app) boardCurrency() domain.CurrencyCode {
	c, err := domain.ParseCurrency(a.cfg.BoardCurrency)
	if err != nil {
		slog.Warn("invalid BOARD_CURRENCY, using USD", "value", a.cfg.BoardCurrency)
		return domain.USD
	}
	return c
}

func (a *app) handler() *api.Handler {
	return api.NewHandler(a.resolver, a.engine, a.calculator, a.quotes, a.network)
}

// startBackground launches the connectivity monitor and any workers whose interval is set.
func (a *app) startBackground(ctx context.Context) {
	if a.monitor != nil {
		go a.monitor.Run(ctx)
	}
	if a.cfg.RateWorkerInterval > 0 {
		go worker.NewRateWorker(a.resolver, a.cfg.RateWorkerInterval).Run(ctx)
	}
	if a.cfg.BoardWorkerInterval > 0 {
		bw := worker.NewBoardWorker(a.aggregator, a.quotes, a.engine, a.boardCurrency(), a.cfg.BoardWorkerInterval, a.exportHooks(ctx)...)
		go bw.Run(ctx)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.LogJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
