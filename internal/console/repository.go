package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a console entry is not found.
var ErrNotFound = errors.New("console entry not found")

// Repository persists console entries.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	Clear(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Append inserts an entry and fills in its id and creation time.
func (r *PostgresRepository) Append(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO console_entries (level, message, in_progress)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, e.Level, e.Message, e.InProgress).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting console entry: %w", err)
	}
	return nil
}

// Clear marks a progress entry as finished.
func (r *PostgresRepository) Clear(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE console_entries
		SET in_progress = FALSE, cleared_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clearing console entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves a paginated list of entries, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	filter.normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if filter.Level != nil {
		conditions = append(conditions, fmt.Sprintf("level = $%d", argIdx))
		args = append(args, *filter.Level)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM console_entries %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting console entries: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT id, level, message, in_progress, created_at, cleared_at
		FROM console_entries
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing console entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Level, &e.Message, &e.InProgress, &e.CreatedAt, &e.ClearedAt); err != nil {
			return nil, fmt.Errorf("scanning console entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating console entry rows: %w", err)
	}

	return &ListResult{Entries: entries, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
