// Package quotes keeps the most recent quote per metal kind.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/truegold/internal/domain"
)

// ErrNotFound is returned when no quote has been stored for a kind.
var ErrNotFound = errors.New("quote not found")

// Repository defines persistent storage for the latest quote of each kind.
type Repository interface {
	SaveQuote(ctx context.Context, q domain.Quote) error
	GetQuote(ctx context.Context, kind domain.MetalKind) (domain.Quote, error)
	GetAllQuotes(ctx context.Context) ([]domain.Quote, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	if pool == nil {
		panic("quotes.NewPgRepository: pool must not be nil")
	}
	return &PgRepository{pool: pool}
}

func (r *PgRepository) SaveQuote(ctx context.Context, q domain.Quote) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO latest_quotes (kind, price_per_unit, unit, currency, source, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (kind) DO UPDATE SET
		   price_per_unit = $2, unit = $3, currency = $4, source = $5, fetched_at = $6`,
		string(q.Kind), decimal.NewFromFloat(q.PricePerUnit), q.Unit.Name,
		string(q.Currency), string(q.Source), q.FetchedAt)
	if err != nil {
		return fmt.Errorf("saving quote for %s: %w", q.Kind, err)
	}
	return nil
}

func (r *PgRepository) GetQuote(ctx context.Context, kind domain.MetalKind) (domain.Quote, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT kind, price_per_unit, unit, currency, source, fetched_at
		 FROM latest_quotes WHERE kind = $1`, string(kind))
	q, err := scanQuote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quote{}, fmt.Errorf("getting quote for %s: %w", kind, ErrNotFound)
	}
	if err != nil {
		return domain.Quote{}, fmt.Errorf("getting quote for %s: %w", kind, err)
	}
	return q, nil
}

func (r *PgRepository) GetAllQuotes(ctx context.Context) ([]domain.Quote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT kind, price_per_unit, unit, currency, source, fetched_at
		 FROM latest_quotes ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("getting all quotes: %w", err)
	}
	defer rows.Close()

	var out []domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuote(row pgx.Row) (domain.Quote, error) {
	var (
		kind, unit, currency, source string
		price                        decimal.Decimal
		fetchedAt                    time.Time
	)
	if err := row.Scan(&kind, &price, &unit, &currency, &source, &fetchedAt); err != nil {
		return domain.Quote{}, err
	}
	u, err := domain.ParseWeightUnit(unit)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		Kind:         domain.MetalKind(kind),
		PricePerUnit: price.InexactFloat64(),
		Unit:         u,
		Currency:     domain.CurrencyCode(currency),
		Source:       domain.QuoteSource(source),
		FetchedAt:    fetchedAt,
	}, nil
}

// MemoryRepository is a process-local Repository used when no database is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	quotes map[domain.MetalKind]domain.Quote
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{quotes: make(map[domain.MetalKind]domain.Quote)}
}

func (r *MemoryRepository) SaveQuote(_ context.Context, q domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes[q.Kind] = q
	return nil
}

func (r *MemoryRepository) GetQuote(_ context.Context, kind domain.MetalKind) (domain.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotes[kind]
	if !ok {
		return domain.Quote{}, fmt.Errorf("getting quote for %s: %w", kind, ErrNotFound)
	}
	return q, nil
}

func (r *MemoryRepository) GetAllQuotes(_ context.Context) ([]domain.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := lo.Values(r.quotes)
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}
