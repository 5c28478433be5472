package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/truegold/internal/appraisal"
	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/export"
	"github.com/mtlprog/truegold/internal/fx"
	"github.com/mtlprog/truegold/internal/netstate"
	"github.com/mtlprog/truegold/internal/pricing"
)

const maxAppraiseBody = 64 << 10

// RateService resolves and refreshes the exchange-rate table.
type RateService interface {
	ResolveWithSource(ctx context.Context) (domain.RateTable, fx.Source)
	Refresh(ctx context.Context) (domain.RateTable, error)
}

// PriceService prices single kinds and the whole market board.
type PriceService interface {
	Price(ctx context.Context, kind domain.MetalKind, target domain.CurrencyCode) (pricing.Price, error)
	Board(ctx context.Context, target domain.CurrencyCode, unit domain.WeightUnit) (pricing.Board, error)
}

// Appraiser values a user-entered weight.
type Appraiser interface {
	AppraiseWeight(ctx context.Context, req appraisal.Request) (domain.AppraisalResult, error)
}

// QuoteSnapshots reads the latest stored quote per kind.
type QuoteSnapshots interface {
	GetAllQuotes(ctx context.Context) ([]domain.Quote, error)
}

// Handler provides HTTP endpoints for the pricing API.
type Handler struct {
	rates     RateService
	prices    PriceService
	appraiser Appraiser
	snapshots QuoteSnapshots
	network   netstate.Signal
}

// NewHandler creates a new API handler. snapshots may be nil when no quote store is configured.
func NewHandler(rates RateService, prices PriceService, appraiser Appraiser, snapshots QuoteSnapshots, network netstate.Signal) *Handler {
	if rates == nil || prices == nil || appraiser == nil {
		panic("api.NewHandler: rates, prices and appraiser must not be nil")
	}
	if network == nil {
		network = netstate.Static(true)
	}
	return &Handler{rates: rates, prices: prices, appraiser: appraiser, snapshots: snapshots, network: network}
}

// ListCurrencies handles GET /api/v1/currencies.
func (h *Handler) ListCurrencies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Currencies)
}

type ratesResponse struct {
	Source fx.Source        `json:"source"`
	Rates  domain.RateTable `json:"rates"`
}

// GetRates handles GET /api/v1/rates.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	table, source := h.rates.ResolveWithSource(r.Context())
	writeJSON(w, http.StatusOK, ratesResponse{Source: source, Rates: table})
}

// RefreshRates handles POST /api/v1/rates/refresh.
func (h *Handler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	table, err := h.rates.Refresh(r.Context())
	if err != nil {
		slog.Warn("rate refresh failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "exchange rates unavailable")
		return
	}
	writeJSON(w, http.StatusOK, ratesResponse{Source: fx.SourceLive, Rates: table})
}

type convertResponse struct {
	Amount     float64             `json:"amount"`
	From       domain.CurrencyCode `json:"from"`
	To         domain.CurrencyCode `json:"to"`
	Result     float64             `json:"result"`
	Available  bool                `json:"available"`
	RateSource fx.Source           `json:"rateSource"`
}

// Convert handles GET /api/v1/convert?amount=&from=&to=.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(strings.TrimSpace(q.Get("amount")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	from, err := domain.ParseCurrency(q.Get("from"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	to, err := domain.ParseCurrency(q.Get("to"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	table, source := h.rates.ResolveWithSource(r.Context())
	value := amount.InexactFloat64()
	writeJSON(w, http.StatusOK, convertResponse{
		Amount:     value,
		From:       from,
		To:         to,
		Result:     fx.Convert(value, from, to, table),
		Available:  from == to || (table.Has(from) && table.Has(to)),
		RateSource: source,
	})
}

// GetQuote handles GET /api/v1/quotes/{kind}?currency=.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseMetalKind(r.PathValue("kind"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	target, err := currencyParam(r, domain.USD)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	p, err := h.prices.Price(r.Context(), kind, target)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetLatestQuotes handles GET /api/v1/quotes/latest.
func (h *Handler) GetLatestQuotes(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusNotFound, "quote snapshots are not enabled")
		return
	}
	quotes, err := h.snapshots.GetAllQuotes(r.Context())
	if err != nil {
		slog.Error("failed to list latest quotes", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if quotes == nil {
		quotes = []domain.Quote{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

// GetMarket handles GET /api/v1/market?currency=&unit=gram|ozt.
func (h *Handler) GetMarket(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// GetMarketWorkbook handles GET /api/v1/market.xlsx with the same parameters as GetMarket.
func (h *Handler) GetMarketWorkbook(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="market.xlsx"`)
	if err := export.WriteWorkbook(w, board); err != nil {
		slog.Warn("failed to write market workbook", "error", err)
	}
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) (pricing.Board, bool) {
	target, err := currencyParam(r, domain.USD)
	if err != nil {
		writeDomainError(w, err)
		return pricing.Board{}, false
	}
	unit := domain.Gram
	if u := r.URL.Query().Get("unit"); u != "" {
		unit, err = domain.ParseWeightUnit(u)
		if err != nil {
			writeDomainError(w, err)
			return pricing.Board{}, false
		}
	}

	board, err := h.prices.Board(r.Context(), target, unit)
	if err != nil {
		writeDomainError(w, err)
		return pricing.Board{}, false
	}
	return board, true
}

// Appraise handles POST /api/v1/appraise.
func (h *Handler) Appraise(w http.ResponseWriter, r *http.Request) {
	var req appraisal.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAppraiseBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.appraiser.AppraiseWeight(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "online": h.network.IsOnline()})
}

func currencyParam(r *http.Request, def domain.CurrencyCode) (domain.CurrencyCode, error) {
	c := r.URL.Query().Get("currency")
	if c == "" {
		return def, nil
	}
	return domain.ParseCurrency(c)
}

// writeDomainError maps invalid input to 400 and anything else to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
