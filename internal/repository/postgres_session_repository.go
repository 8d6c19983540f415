package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/database"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

// sessionWithReservedSelect reads sessions together with the participants of
// their non-canceled reservations in one statement
const sessionWithReservedSelect = `
	SELECT
		s.id, s.class_id, s.date, s.start_time, s.capacity, s.price,
		s.is_closed, s.created_at, s.updated_at,
		COALESCE(r.reserved, 0)
	FROM class_sessions s
	LEFT JOIN (
		SELECT session_id, SUM(participants)::int AS reserved
		FROM reservations
		WHERE status <> 'CANCELED'
		GROUP BY session_id
	) r ON r.session_id = s.id
`

// PostgresSessionRepository implements SessionRepository using PostgreSQL
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository
func NewPostgresSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// ListWithReserved returns the sessions of a class within r
func (r *PostgresSessionRepository) ListWithReserved(ctx context.Context, classID string, dr domain.DateRange) ([]domain.SessionWithReserved, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.session.list_with_reserved")
	defer span.End()

	span.SetAttributes(attribute.String("class_id", classID))

	query := sessionWithReservedSelect + `
		WHERE s.class_id = $1
			AND ($2::date IS NULL OR s.date >= $2::date)
			AND ($3::date IS NULL OR s.date <= $3::date)
		ORDER BY s.date ASC, s.start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, classID, dr.From, dr.To)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.SessionWithReserved, 0)
	for rows.Next() {
		sw, err := scanSessionWithReserved(rows)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sw)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(sessions)))
	span.SetStatus(codes.Ok, "")
	return sessions, nil
}

// GetWithReserved returns a single session with its active participant count
func (r *PostgresSessionRepository) GetWithReserved(ctx context.Context, sessionID string) (*domain.SessionWithReserved, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.session.get_with_reserved")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", sessionID))

	sw, err := scanSessionWithReserved(r.pool.QueryRow(ctx, sessionWithReservedSelect+` WHERE s.id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrSessionNotFound
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return sw, nil
}

// UpsertOverride creates the session at the override's slot with the
// template defaults, or updates the existing one. Unset override fields keep
// their current values.
func (r *PostgresSessionRepository) UpsertOverride(ctx context.Context, tpl *domain.ClassTemplate, o *domain.SessionOverride, newID string, now time.Time) (*domain.ClassSession, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.session.upsert_override")
	defer span.End()

	span.SetAttributes(
		attribute.String("class_id", tpl.ID),
		attribute.String("date", o.Date.Format(domain.DateLayout)),
		attribute.String("start_time", o.StartTime),
	)

	// New rows start from the template defaults with the override applied.
	fresh := domain.NewClassSession(newID, tpl, o.Date, o.StartTime, now)
	o.Apply(fresh, now)

	query := `
		INSERT INTO class_sessions (
			id, class_id, date, start_time, capacity, price, is_closed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT ON CONSTRAINT ` + SessionSlotConstraint + ` DO UPDATE SET
			capacity = COALESCE($9, class_sessions.capacity),
			price = COALESCE($10, class_sessions.price),
			is_closed = COALESCE($11, class_sessions.is_closed),
			updated_at = EXCLUDED.updated_at
		RETURNING id, class_id, date, start_time, capacity, price, is_closed, created_at, updated_at
	`

	var session *domain.ClassSession
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		session, err = scanSession(tx.QueryRow(ctx, query,
			fresh.ID, fresh.ClassID, fresh.Date, fresh.StartTime,
			fresh.Capacity, fresh.Price, fresh.IsClosed, now,
			o.Capacity, o.Price, o.IsClosed,
		))
		if err != nil {
			return fmt.Errorf("failed to upsert session: %w", err)
		}

		msg, err := domain.SessionOutboxEvent(session, now)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		return createOutboxTx(ctx, tx, msg)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("session_id", session.ID))
	span.SetStatus(codes.Ok, "")
	return session, nil
}

func scanSession(row pgx.Row) (*domain.ClassSession, error) {
	s := &domain.ClassSession{}
	err := row.Scan(
		&s.ID, &s.ClassID, &s.Date, &s.StartTime, &s.Capacity, &s.Price,
		&s.IsClosed, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSessionWithReserved(row pgx.Row) (*domain.SessionWithReserved, error) {
	s := &domain.ClassSession{}
	var reserved int
	err := row.Scan(
		&s.ID, &s.ClassID, &s.Date, &s.StartTime, &s.Capacity, &s.Price,
		&s.IsClosed, &s.CreatedAt, &s.UpdatedAt,
		&reserved,
	)
	if err != nil {
		return nil, err
	}
	return &domain.SessionWithReserved{Session: s, Reserved: reserved}, nil
}

// Ensure PostgresSessionRepository implements SessionRepository
var _ SessionRepository = (*PostgresSessionRepository)(nil)
