package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLocationRepository implements LocationRepository using PostgreSQL
type PostgresLocationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLocationRepository creates a new PostgresLocationRepository
func NewPostgresLocationRepository(pool *pgxpool.Pool) *PostgresLocationRepository {
	return &PostgresLocationRepository{pool: pool}
}

// SchoolExists reports whether a non-deleted school has id
func (r *PostgresLocationRepository) SchoolExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM schools WHERE id = $1 AND deleted_at IS NULL)`, id)
}

// BeachExists reports whether a non-deleted beach has id
func (r *PostgresLocationRepository) BeachExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM beaches WHERE id = $1 AND deleted_at IS NULL)`, id)
}

func (r *PostgresLocationRepository) exists(ctx context.Context, query, id string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return ok, nil
}

// Ensure PostgresLocationRepository implements LocationRepository
var _ LocationRepository = (*PostgresLocationRepository)(nil)
