package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/truegold/internal/metrics"
)

// NewServer creates an HTTP server with all routes configured.
// When adminAPIKey is set, the rate refresh endpoint requires it as a bearer token.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(handler, adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter registers every route on a fresh ServeMux.
func NewRouter(handler *Handler, adminAPIKey string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/currencies", handler.ListCurrencies)
	mux.HandleFunc("GET /api/v1/rates", handler.GetRates)
	mux.HandleFunc("GET /api/v1/convert", handler.Convert)
	mux.HandleFunc("GET /api/v1/quotes/latest", handler.GetLatestQuotes)
	mux.HandleFunc("GET /api/v1/quotes/{kind}", handler.GetQuote)
	mux.HandleFunc("GET /api/v1/market", handler.GetMarket)
	mux.HandleFunc("GET /api/v1/market.xlsx", handler.GetMarketWorkbook)
	mux.HandleFunc("POST /api/v1/appraise", handler.Appraise)

	refresh := http.HandlerFunc(handler.RefreshRates)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/rates/refresh", requireAuth(adminAPIKey, refresh))
	} else {
		mux.Handle("POST /api/v1/rates/refresh", refresh)
	}

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
