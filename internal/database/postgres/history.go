package postgres

import (
	"context"
	"fmt"

	"github.com/barradesonido/bsops/internal/database"
)

// HistoryRepo implements the HistoryRepository interface for PostgreSQL
type HistoryRepo struct {
	client *Client
}

// NewHistoryRepo creates a new PostgreSQL history repository
func NewHistoryRepo(client *Client) *HistoryRepo {
	return &HistoryRepo{client: client}
}

// Add inserts a new history entry
func (r *HistoryRepo) Add(ctx context.Context, entry *database.OperationHistory) error {
	query := `
		INSERT INTO operation_history (action, count, details, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.client.pool.QueryRow(ctx, query,
		entry.Action, entry.Count, entry.Details, entry.StartedAt, entry.CompletedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}
	return nil
}

// GetRecent returns the most recent history entries
func (r *HistoryRepo) GetRecent(ctx context.Context, limit int) ([]*database.OperationHistory, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.client.pool.Query(ctx, `
		SELECT id, action, count, details, started_at, completed_at
		FROM operation_history ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*database.OperationHistory
	for rows.Next() {
		var e database.OperationHistory
		var details *string
		if err := rows.Scan(&e.ID, &e.Action, &e.Count, &details, &e.StartedAt, &e.CompletedAt); err != nil {
			return nil, err
		}
		if details != nil {
			e.Details = *details
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
