package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPPort    string
	AdminAPIKey string
	LogLevel    string
	LogJSON     bool

	DatabaseURL     string
	RedisURL        string
	CacheBackend    string
	CacheSQLitePath string

	RateCacheTTL   time.Duration
	ForceLiveRates bool
	UseMockData    bool
	ClearCache     bool

	FXURL        string
	FXTimeout    time.Duration
	HTTPRetryMax int

	SpotURL            string
	SpotTimeout        time.Duration
	SpotTierPreference []string

	RegionalURL       string
	RegionalTimeout   time.Duration
	RegionalUserAgent string
	RegionalFineness  float64

	FallbackGoldUSDPerOz      float64
	FallbackSilverUSDPerOz    float64
	FallbackPlatinumUSDPerOz  float64
	FallbackPalladiumUSDPerOz float64
	QuoteConcurrency          int

	ConnectivityProbeURL string
	ConnectivityInterval time.Duration

	RateWorkerInterval  time.Duration
	BoardWorkerInterval time.Duration
	BoardCurrency       string

	GoogleSheetsID        string
	GoogleCredentialsJSON string
	XLSXExportPath        string
}

const defaultRegionalUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey: envOrDefault("ADMIN_API_KEY", ""),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogJSON:     envOrDefault("LOG_FORMAT", "text") == "json",

		DatabaseURL:     envOrDefault("DATABASE_URL", ""),
		RedisURL:        envOrDefault("REDIS_URL", ""),
		CacheBackend:    envOrDefault("CACHE_BACKEND", "memory"),
		CacheSQLitePath: envOrDefault("CACHE_SQLITE_PATH", "data/truegold-cache.db"),

		RateCacheTTL:   envOrDefaultDuration("RATE_CACHE_TTL", 12*time.Hour),
		ForceLiveRates: envOrDefaultBool("FORCE_LIVE_RATES", false),
		UseMockData:    envOrDefaultBool("USE_MOCK_DATA", false),
		ClearCache:     envOrDefaultBool("CLEAR_CACHE", false),

		FXURL:        envOrDefault("FX_URL", "https://open.er-api.com/v6/latest/USD"),
		FXTimeout:    envOrDefaultDuration("FX_TIMEOUT", 10*time.Second),
		HTTPRetryMax: envOrDefaultInt("HTTP_RETRY_MAX", 0),

		SpotURL:            envOrDefault("SPOT_URL", "https://forex-data-feed.swissquote.com/public-quotes/bboquotes/instrument"),
		SpotTimeout:        envOrDefaultDuration("SPOT_TIMEOUT", 8*time.Second),
		SpotTierPreference: envOrDefaultList("SPOT_TIER_PREFERENCE", []string{"elite", "prime", "premium", "standard"}),

		RegionalURL:       envOrDefault("REGIONAL_URL", "https://api.chnwt.dev/thai-gold-api/latest"),
		RegionalTimeout:   envOrDefaultDuration("REGIONAL_TIMEOUT", 10*time.Second),
		RegionalUserAgent: envOrDefault("REGIONAL_USER_AGENT", defaultRegionalUserAgent),
		RegionalFineness:  envOrDefaultFloat("REGIONAL_FINENESS", 0.965),

		FallbackGoldUSDPerOz:      envOrDefaultFloat("FALLBACK_GOLD_USD_OZ", 2400),
		FallbackSilverUSDPerOz:    envOrDefaultFloat("FALLBACK_SILVER_USD_OZ", 30),
		FallbackPlatinumUSDPerOz:  envOrDefaultFloat("FALLBACK_PLATINUM_USD_OZ", 1000),
		FallbackPalladiumUSDPerOz: envOrDefaultFloat("FALLBACK_PALLADIUM_USD_OZ", 1000),
		QuoteConcurrency:          envOrDefaultInt("QUOTE_CONCURRENCY", 4),

		ConnectivityProbeURL: envOrDefault("CONNECTIVITY_PROBE_URL", ""),
		ConnectivityInterval: envOrDefaultDuration("CONNECTIVITY_INTERVAL", 30*time.Second),

		RateWorkerInterval:  envOrDefaultDuration("RATE_WORKER_INTERVAL", 0),
		BoardWorkerInterval: envOrDefaultDuration("BOARD_WORKER_INTERVAL", 0),
		BoardCurrency:       envOrDefault("BOARD_CURRENCY", "USD"),

		GoogleSheetsID:        envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		XLSXExportPath:        envOrDefault("XLSX_EXPORT_PATH", ""),
	}

	// Forcing live rates means nothing cached is ever fresh.
	if cfg.ForceLiveRates {
		cfg.RateCacheTTL = 0
	}

	switch cfg.CacheBackend {
	case "postgres":
		envOrDefaultWarn("DATABASE_URL", cfg.DatabaseURL)
	case "redis":
		envOrDefaultWarn("REDIS_URL", cfg.RedisURL)
	}

	return cfg
}

// SlogLevel maps LogLevel onto slog levels, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			slog.Warn("invalid positive number env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return f
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
