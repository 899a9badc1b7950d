package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"live-poll-service/internal/domain"
)

// ResultStore archives poll records as JSONB in Postgres.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Save(ctx context.Context, record domain.PollRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal poll record: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO poll_results (poll_id, data, archived_at) VALUES ($1, $2, $3)
		 ON CONFLICT (poll_id) DO UPDATE SET data = EXCLUDED.data, archived_at = EXCLUDED.archived_at`,
		record.PollID, raw, record.ArchivedAt)
	if err != nil {
		return fmt.Errorf("insert poll record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *ResultStore) Recent(ctx context.Context, limit int) ([]domain.PollRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `SELECT data FROM poll_results ORDER BY archived_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query poll records: %w", err)
	}
	defer rows.Close()

	var out []domain.PollRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan poll record: %w", err)
		}
		var record domain.PollRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("unmarshal poll record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
