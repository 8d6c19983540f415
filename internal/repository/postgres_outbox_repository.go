package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/database"
)

// PostgresOutboxRepository implements OutboxRepository using PostgreSQL
type PostgresOutboxRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOutboxRepository creates a new PostgresOutboxRepository
func NewPostgresOutboxRepository(pool *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{pool: pool}
}

// createOutboxTx writes msg inside the caller's transaction
func createOutboxTx(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	query := `
		INSERT INTO outbox (
			id, aggregate_type, aggregate_id, event_type,
			payload, topic, partition_key, status,
			retry_count, max_retries, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := tx.Exec(ctx, query,
		msg.ID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.Payload,
		msg.Topic,
		msg.PartitionKey,
		msg.Status.String(),
		msg.RetryCount,
		msg.MaxRetries,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox message in transaction: %w", err)
	}
	return nil
}

// ProcessBatch locks pending and retryable failed messages with SKIP LOCKED so
// several workers can run side by side, and records each publish outcome
// before the locks are released.
func (r *PostgresOutboxRepository) ProcessBatch(ctx context.Context, limit int, fn func(ctx context.Context, msg *domain.OutboxMessage) error) (int, int, error) {
	var published, failed int

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			SELECT
				id, aggregate_type, aggregate_id, event_type,
				payload, topic, partition_key, status,
				retry_count, max_retries, last_error,
				created_at, processed_at, published_at
			FROM outbox
			WHERE status = 'pending'
				OR (status = 'failed' AND retry_count < max_retries)
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`
		rows, err := tx.Query(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("failed to get pending messages: %w", err)
		}
		messages, err := scanOutboxMessages(rows)
		if err != nil {
			return err
		}

		for _, msg := range messages {
			now := time.Now()
			if pubErr := fn(ctx, msg); pubErr != nil {
				msg.MarkAsFailed(pubErr.Error(), now)
				failed++
			} else {
				msg.MarkAsPublished(now)
				published++
			}

			update := `
				UPDATE outbox SET
					status = $2, last_error = $3, retry_count = $4,
					processed_at = $5, published_at = $6
				WHERE id = $1
			`
			if _, err := tx.Exec(ctx, update,
				msg.ID, msg.Status.String(), nullString(msg.LastError), msg.RetryCount,
				msg.ProcessedAt, msg.PublishedAt,
			); err != nil {
				return fmt.Errorf("failed to record outbox result: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return published, failed, nil
}

// DeletePublished deletes old published messages for cleanup
func (r *PostgresOutboxRepository) DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM outbox
		WHERE status = 'published' AND published_at < $1
	`

	cutoff := time.Now().Add(-olderThan)
	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete published messages: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountByStatus returns message counts keyed by status
func (r *PostgresOutboxRepository) CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM outbox GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count outbox messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OutboxStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outbox count: %w", err)
		}
		counts[domain.OutboxStatus(status)] = n
	}
	return counts, rows.Err()
}

// scanOutboxMessages scans rows into OutboxMessage slice
func scanOutboxMessages(rows pgx.Rows) ([]*domain.OutboxMessage, error) {
	defer rows.Close()

	var messages []*domain.OutboxMessage
	for rows.Next() {
		msg := &domain.OutboxMessage{}
		var (
			status    string
			lastError *string
		)

		err := rows.Scan(
			&msg.ID,
			&msg.AggregateType,
			&msg.AggregateID,
			&msg.EventType,
			&msg.Payload,
			&msg.Topic,
			&msg.PartitionKey,
			&status,
			&msg.RetryCount,
			&msg.MaxRetries,
			&lastError,
			&msg.CreatedAt,
			&msg.ProcessedAt,
			&msg.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}

		msg.Status = domain.OutboxStatus(status)
		msg.LastError = derefString(lastError)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}
	return messages, nil
}

// Ensure PostgresOutboxRepository implements OutboxRepository
var _ OutboxRepository = (*PostgresOutboxRepository)(nil)
