package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/data-collector/internal/domain"
)

// SearchHistoryRepository stores finished searches.
type SearchHistoryRepository interface {
	Create(ctx context.Context, record *domain.SearchRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.SearchRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type searchHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewSearchHistoryRepository builds repository.
func NewSearchHistoryRepository(pool *pgxpool.Pool) SearchHistoryRepository {
	return &searchHistoryRepository{pool: pool}
}

func (r *searchHistoryRepository) Create(ctx context.Context, record *domain.SearchRecord) error {
	const query = `
        INSERT INTO search_history (request_id, keyword, department, contract_type, result_limit, outcome, result_count, error_message, duration_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.RequestID,
		record.Keyword,
		record.Department,
		record.ContractType,
		record.Limit,
		record.Outcome,
		record.ResultCount,
		record.ErrorMessage,
		record.DurationMS,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *searchHistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	const query = `
        SELECT id, request_id, keyword, department, contract_type, result_limit, outcome, result_count, error_message, duration_ms, created_at
        FROM search_history ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SearchRecord
	for rows.Next() {
		var record domain.SearchRecord
		if err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.Keyword,
			&record.Department,
			&record.ContractType,
			&record.Limit,
			&record.Outcome,
			&record.ResultCount,
			&record.ErrorMessage,
			&record.DurationMS,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *searchHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM search_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
