package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// cacheRepository implements domain.CacheRepository on the comps_cache
// table. Comparable sets are stored as a JSONB payload keyed by the
// normalized query key; staleness is judged by the caller, so rows are
// upserted in place and never eagerly deleted.
type cacheRepository struct {
	db *DB
}

// NewCacheRepository creates a new comparables cache repository
func NewCacheRepository(db *DB) domain.CacheRepository {
	return &cacheRepository{db: db}
}

// Get retrieves the cached comparable set for a query key
func (r *cacheRepository) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	query := `
		SELECT query_key, payload, fetched_at
		FROM comps_cache
		WHERE query_key = $1
	`

	var entry domain.CacheEntry
	var payload []byte
	var fetchedAt time.Time

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&entry.Key,
		&payload,
		&fetchedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if err := json.Unmarshal(payload, &entry.Comparables); err != nil {
		return nil, fmt.Errorf("failed to decode cached comparables: %w", err)
	}
	entry.FetchedAt = fetchedAt.UTC()

	return &entry, nil
}

// Set stores a comparable set, replacing any previous entry for the key
func (r *cacheRepository) Set(ctx context.Context, key string, comps []domain.ComparableProperty, fetchedAt time.Time) error {
	payload, err := json.Marshal(comps)
	if err != nil {
		return fmt.Errorf("failed to encode comparables: %w", err)
	}

	query := `
		INSERT INTO comps_cache (query_key, payload, fetched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (query_key)
		DO UPDATE SET payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at
	`

	_, err = r.db.ExecContext(ctx, query, key, payload, fetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	return nil
}
