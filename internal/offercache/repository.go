package offercache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// ErrNotFound is returned when no offer is cached for a resource.
var ErrNotFound = errors.New("cached offer not found")

// Repository provides operations on the offers table.
type Repository interface {
	Upsert(ctx context.Context, e *Entry) error
	Get(ctx context.Context, accountName string, res offer.Resource) (*Entry, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	ListPending(ctx context.Context, accountName string, limit int) ([]Entry, error)
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const selectColumns = `
	id, account_name, api_type, database_id, collection_id, offer_id, mode,
	throughput, minimum_throughput, offer_replace_pending, throughput_buckets,
	created_at, updated_at`

// Upsert inserts or replaces the cached offer of a resource.
func (r *PostgresRepository) Upsert(ctx context.Context, e *Entry) error {
	buckets := e.ThroughputBuckets
	if buckets == nil {
		buckets = []offer.ThroughputBucket{}
	}

	query := `
		INSERT INTO offers (account_name, api_type, database_id, collection_id, offer_id, mode,
		                    throughput, minimum_throughput, offer_replace_pending, throughput_buckets)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_name, database_id, collection_id) DO UPDATE
		SET api_type = EXCLUDED.api_type,
		    offer_id = EXCLUDED.offer_id,
		    mode = EXCLUDED.mode,
		    throughput = EXCLUDED.throughput,
		    minimum_throughput = EXCLUDED.minimum_throughput,
		    offer_replace_pending = EXCLUDED.offer_replace_pending,
		    throughput_buckets = EXCLUDED.throughput_buckets,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		e.AccountName,
		e.APIType,
		e.DatabaseID,
		e.CollectionID,
		e.OfferID,
		e.Mode,
		e.Throughput,
		e.MinimumThroughput,
		e.OfferReplacePending,
		buckets,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting offer: %w", err)
	}
	return nil
}

// Get retrieves the cached offer of a resource.
func (r *PostgresRepository) Get(ctx context.Context, accountName string, res offer.Resource) (*Entry, error) {
	query := `SELECT` + selectColumns + `
		FROM offers
		WHERE account_name = $1 AND database_id = $2 AND collection_id = $3`

	var e Entry
	err := r.pool.QueryRow(ctx, query, accountName, res.DatabaseID, res.CollectionID).Scan(scanTargets(&e)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying offer: %w", err)
	}
	return &e, nil
}

// List retrieves a paginated, filtered list of cached offers.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	var conditions []string
	var args []any
	argIdx := 1

	if filter.AccountName != nil {
		conditions = append(conditions, fmt.Sprintf("account_name = $%d", argIdx))
		args = append(args, *filter.AccountName)
		argIdx++
	}
	if filter.DatabaseID != nil {
		conditions = append(conditions, fmt.Sprintf("database_id = $%d", argIdx))
		args = append(args, *filter.DatabaseID)
		argIdx++
	}
	if filter.Pending != nil {
		conditions = append(conditions, fmt.Sprintf("offer_replace_pending = $%d", argIdx))
		args = append(args, *filter.Pending)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM offers %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting offers: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s
		FROM offers
		%s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d`, selectColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	entries, err := r.query(ctx, dataQuery, args...)
	if err != nil {
		return nil, err
	}
	return &ListResult{Entries: entries, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ListPending returns the offers of an account whose replace is still pending,
// least recently refreshed first.
func (r *PostgresRepository) ListPending(ctx context.Context, accountName string, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 100
	}
	query := `SELECT` + selectColumns + `
		FROM offers
		WHERE account_name = $1 AND offer_replace_pending
		ORDER BY updated_at ASC
		LIMIT $2`
	return r.query(ctx, query, accountName, limit)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing offers: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(scanTargets(&e)...); err != nil {
			return nil, fmt.Errorf("scanning offer row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating offer rows: %w", err)
	}
	return entries, nil
}

func scanTargets(e *Entry) []any {
	return []any{
		&e.ID, &e.AccountName, &e.APIType, &e.DatabaseID, &e.CollectionID, &e.OfferID, &e.Mode,
		&e.Throughput, &e.MinimumThroughput, &e.OfferReplacePending, &e.ThroughputBuckets,
		&e.CreatedAt, &e.UpdatedAt,
	}
}
