package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// quotaRepository implements domain.QuotaRepository on the source_quota
// table. One row per source per window key; counters only move through
// Increment and Reset.
type quotaRepository struct {
	db *DB
}

// NewQuotaRepository creates a new quota repository
func NewQuotaRepository(db *DB) domain.QuotaRepository {
	return &quotaRepository{db: db}
}

// Usage returns the counter for a source in a window, 0 when absent
func (r *quotaRepository) Usage(ctx context.Context, source, windowKey string) (int, error) {
	query := `
		SELECT used
		FROM source_quota
		WHERE source = $1 AND window_key = $2
	`

	var used int
	err := r.db.QueryRowContext(ctx, query, source, windowKey).Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get quota usage: %w", err)
	}

	return used, nil
}

// Increment adds n calls to the counter, creating the row if needed
func (r *quotaRepository) Increment(ctx context.Context, source, windowKey string, n int) error {
	query := `
		INSERT INTO source_quota (source, window_key, used)
		VALUES ($1, $2, $3)
		ON CONFLICT (source, window_key)
		DO UPDATE SET used = source_quota.used + EXCLUDED.used
	`

	_, err := r.db.ExecContext(ctx, query, source, windowKey, n)
	if err != nil {
		return fmt.Errorf("failed to increment quota usage: %w", err)
	}

	return nil
}

// Reset zeroes every counter for the given window key
func (r *quotaRepository) Reset(ctx context.Context, windowKey string) error {
	query := `
		UPDATE source_quota
		SET used = 0
		WHERE window_key = $1
	`

	_, err := r.db.ExecContext(ctx, query, windowKey)
	if err != nil {
		return fmt.Errorf("failed to reset quota counters: %w", err)
	}

	return nil
}

// List returns every tracked counter ordered by source then window
func (r *quotaRepository) List(ctx context.Context) ([]domain.QuotaState, error) {
	query := `
		SELECT source, window_key, used
		FROM source_quota
		ORDER BY source, window_key
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list quota counters: %w", err)
	}
	defer rows.Close()

	var states []domain.QuotaState
	for rows.Next() {
		var state domain.QuotaState
		if err := rows.Scan(&state.Source, &state.WindowKey, &state.Used); err != nil {
			return nil, fmt.Errorf("failed to scan quota row: %w", err)
		}
		// Window keys carry their granularity in the format
		if len(state.WindowKey) == len("2006-01-02") {
			state.Window = domain.QuotaWindowDaily
		} else {
			state.Window = domain.QuotaWindowMonthly
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quota rows: %w", err)
	}

	return states, nil
}
