package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/database"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

const reservationSelect = `
	SELECT
		r.id, r.user_id, r.session_id, r.participants, r.special_request,
		r.status, r.created_at, r.updated_at, r.canceled_at,
		s.class_id, t.school_id
	FROM reservations r
	JOIN class_sessions s ON s.id = r.session_id
	JOIN class_templates t ON t.id = s.class_id
`

// PostgresReservationRepository implements ReservationRepository using PostgreSQL
type PostgresReservationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReservationRepository creates a new PostgresReservationRepository
func NewPostgresReservationRepository(pool *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{pool: pool}
}

// CreateIfCapacity locks the session row, re-counts active participants and
// inserts the reservation only if it still fits
func (r *PostgresReservationRepository) CreateIfCapacity(ctx context.Context, res *domain.Reservation) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.create_if_capacity")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", res.ID),
		attribute.String("session_id", res.SessionID),
		attribute.Int("participants", res.Participants),
	)

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			capacity int
			isClosed bool
			classID  string
			schoolID string
		)
		lock := `
			SELECT COALESCE(s.capacity, t.default_capacity), s.is_closed, s.class_id, t.school_id
			FROM class_sessions s
			JOIN class_templates t ON t.id = s.class_id
			WHERE s.id = $1
			FOR UPDATE OF s
		`
		err := tx.QueryRow(ctx, lock, res.SessionID).Scan(&capacity, &isClosed, &classID, &schoolID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock session: %w", err)
		}
		if isClosed {
			return domain.ErrSessionClosed
		}

		var reserved int
		count := `
			SELECT COALESCE(SUM(participants), 0)::int FROM reservations
			WHERE session_id = $1 AND status <> 'CANCELED'
		`
		if err := tx.QueryRow(ctx, count, res.SessionID).Scan(&reserved); err != nil {
			return fmt.Errorf("failed to count reservations: %w", err)
		}
		if capacity-reserved < res.Participants {
			return domain.ErrNotEnoughSpots
		}

		insert := `
			INSERT INTO reservations (
				id, user_id, session_id, participants, special_request,
				status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err = tx.Exec(ctx, insert,
			res.ID,
			res.UserID,
			res.SessionID,
			res.Participants,
			nullString(res.SpecialRequest),
			res.Status.String(),
			res.CreatedAt,
			res.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		res.ClassID = classID
		res.SchoolID = schoolID

		msg, err := domain.ReservationOutboxEvent(domain.EventReservationCreated, res, "", res.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		return createOutboxTx(ctx, tx, msg)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a reservation by ID
func (r *PostgresReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	res, err := scanReservation(r.pool.QueryRow(ctx, reservationSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrReservationNotFound
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return res, nil
}

// ListByUser retrieves a user's reservations, newest first
func (r *PostgresReservationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list_by_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	rows, err := r.pool.Query(ctx, reservationSelect+` WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// List retrieves reservations matching filter across users
func (r *PostgresReservationRepository) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list")
	defer span.End()

	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.SchoolID != "" {
		add("t.school_id = $%d", filter.SchoolID)
	}
	if filter.SessionID != "" {
		add("r.session_id = $%d", filter.SessionID)
	}
	if filter.Status != "" {
		add("r.status = $%d", filter.Status.String())
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	countQuery := `
		SELECT COUNT(*) FROM reservations r
		JOIN class_sessions s ON s.id = r.session_id
		JOIN class_templates t ON t.id = s.class_id
	` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`%s%s ORDER BY r.created_at DESC, r.id LIMIT $%d OFFSET $%d`,
		reservationSelect, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, 0, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, fmt.Errorf("error iterating reservations: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(reservations)))
	span.SetStatus(codes.Ok, "")
	return reservations, total, nil
}

// UpdateStatus applies a status transition guarded by the previous status
func (r *PostgresReservationRepository) UpdateStatus(ctx context.Context, res *domain.Reservation, previous domain.ReservationStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", res.ID),
		attribute.String("from", previous.String()),
		attribute.String("to", res.Status.String()),
	)

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE reservations SET status = $3, updated_at = $4, canceled_at = $5
			WHERE id = $1 AND status = $2
		`
		result, err := tx.Exec(ctx, query, res.ID, previous.String(), res.Status.String(), res.UpdatedAt, res.CanceledAt)
		if err != nil {
			return fmt.Errorf("failed to update reservation status: %w", err)
		}
		if result.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = $1)`, res.ID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check reservation existence: %w", err)
			}
			if !exists {
				return domain.ErrReservationNotFound
			}
			return domain.ErrInvalidTransition
		}

		msg, err := domain.ReservationOutboxEvent(domain.EventReservationStatusChanged, res, previous, res.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		return createOutboxTx(ctx, tx, msg)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	var (
		specialRequest *string
		status         string
		canceledAt     *time.Time
	)
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.SessionID,
		&res.Participants,
		&specialRequest,
		&status,
		&res.CreatedAt,
		&res.UpdatedAt,
		&canceledAt,
		&res.ClassID,
		&res.SchoolID,
	)
	if err != nil {
		return nil, err
	}
	res.SpecialRequest = derefString(specialRequest)
	res.Status = domain.ReservationStatus(status)
	res.CanceledAt = canceledAt
	return res, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure PostgresReservationRepository implements ReservationRepository
var _ ReservationRepository = (*PostgresReservationRepository)(nil)
