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

// SessionSlotConstraint is the unique (class_id, date, start_time) constraint
const SessionSlotConstraint = "class_sessions_slot_key"

const classColumns = `
	id, school_id, beach_id, title, description, duration,
	default_capacity, default_price, level, instructor, student_details,
	images, status, created_at, updated_at, deleted_at
`

// PostgresClassRepository implements ClassRepository using PostgreSQL
type PostgresClassRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresClassRepository creates a new PostgresClassRepository
func NewPostgresClassRepository(pool *pgxpool.Pool) *PostgresClassRepository {
	return &PostgresClassRepository{pool: pool}
}

// CreateWithSessions inserts the template, its sessions and the class events
// in a single transaction
func (r *PostgresClassRepository) CreateWithSessions(ctx context.Context, tpl *domain.ClassTemplate, sessions []*domain.ClassSession) ([]domain.SessionInsertOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.create_with_sessions")
	defer span.End()

	span.SetAttributes(
		attribute.String("class_id", tpl.ID),
		attribute.Int("candidates", len(sessions)),
	)

	var outcomes []domain.SessionInsertOutcome
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertTemplateTx(ctx, tx, tpl); err != nil {
			return err
		}

		var err error
		outcomes, err = insertSessionsTx(ctx, tx, sessions)
		if err != nil {
			return err
		}

		created, err := domain.ClassOutboxEvent(domain.EventClassCreated, tpl, nil, tpl.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		if err := createOutboxTx(ctx, tx, created); err != nil {
			return err
		}
		return insertGeneratedEventTx(ctx, tx, tpl, outcomes)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return outcomes, nil
}

// AppendSessions inserts sessions for an existing template
func (r *PostgresClassRepository) AppendSessions(ctx context.Context, tpl *domain.ClassTemplate, sessions []*domain.ClassSession) ([]domain.SessionInsertOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.append_sessions")
	defer span.End()

	span.SetAttributes(
		attribute.String("class_id", tpl.ID),
		attribute.Int("candidates", len(sessions)),
	)

	var outcomes []domain.SessionInsertOutcome
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Serialize with archive so no session lands on a deleted template.
		var deletedAt *time.Time
		err := tx.QueryRow(ctx, `SELECT deleted_at FROM class_templates WHERE id = $1 FOR SHARE`, tpl.ID).Scan(&deletedAt)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && deletedAt != nil) {
			return domain.ErrClassNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock class: %w", err)
		}

		outcomes, err = insertSessionsTx(ctx, tx, sessions)
		if err != nil {
			return err
		}
		return insertGeneratedEventTx(ctx, tx, tpl, outcomes)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return outcomes, nil
}

// GetByID retrieves a template by ID
func (r *PostgresClassRepository) GetByID(ctx context.Context, id string) (*domain.ClassTemplate, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("class_id", id))

	query := `SELECT ` + classColumns + ` FROM class_templates WHERE id = $1`
	tpl, err := scanClass(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrClassNotFound
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get class: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return tpl, nil
}

// List retrieves templates matching filter, newest first
func (r *PostgresClassRepository) List(ctx context.Context, filter domain.ClassFilter) ([]*domain.ClassTemplate, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.list")
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
		add("school_id = $%d", filter.SchoolID)
	}
	if filter.BeachID != "" {
		add("beach_id = $%d", filter.BeachID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status.String())
	}
	if filter.Status != domain.ClassStatusArchived {
		conds = append(conds, "deleted_at IS NULL")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM class_templates`+where, args...).Scan(&total); err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, fmt.Errorf("failed to count classes: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM class_templates%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		classColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	classes := make([]*domain.ClassTemplate, 0)
	for rows.Next() {
		tpl, err := scanClass(rows)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, 0, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, tpl)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, fmt.Errorf("error iterating classes: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(classes)))
	span.SetStatus(codes.Ok, "")
	return classes, total, nil
}

// Update writes the mutable template fields of a non-deleted template
func (r *PostgresClassRepository) Update(ctx context.Context, tpl *domain.ClassTemplate) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.update")
	defer span.End()

	span.SetAttributes(attribute.String("class_id", tpl.ID))

	query := `
		UPDATE class_templates SET
			title = $2, description = $3, duration = $4,
			default_capacity = $5, default_price = $6, level = $7,
			instructor = $8, student_details = $9, images = $10,
			status = $11, updated_at = $12
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query,
		tpl.ID,
		tpl.Title,
		tpl.Description,
		tpl.Duration,
		tpl.DefaultCapacity,
		tpl.DefaultPrice,
		string(tpl.Level),
		tpl.Instructor,
		tpl.StudentDetails,
		tpl.Images,
		tpl.Status.String(),
		tpl.UpdatedAt,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to update class: %w", err)
	}
	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrClassNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Archive soft-deletes a template. Sessions and reservations are kept.
func (r *PostgresClassRepository) Archive(ctx context.Context, id string, at time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.archive")
	defer span.End()

	span.SetAttributes(attribute.String("class_id", id))

	query := `
		UPDATE class_templates SET status = $2, deleted_at = $3, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.pool.Exec(ctx, query, id, domain.ClassStatusArchived.String(), at)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to archive class: %w", err)
	}
	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrClassNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func insertTemplateTx(ctx context.Context, tx pgx.Tx, tpl *domain.ClassTemplate) error {
	query := `
		INSERT INTO class_templates (` + classColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`
	_, err := tx.Exec(ctx, query,
		tpl.ID,
		tpl.SchoolID,
		tpl.BeachID,
		tpl.Title,
		tpl.Description,
		tpl.Duration,
		tpl.DefaultCapacity,
		tpl.DefaultPrice,
		string(tpl.Level),
		tpl.Instructor,
		tpl.StudentDetails,
		tpl.Images,
		tpl.Status.String(),
		tpl.CreatedAt,
		tpl.UpdatedAt,
		tpl.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert class: %w", err)
	}
	return nil
}

// insertSessionsTx inserts each session under its own savepoint so a slot
// collision skips that session and keeps the rest of the batch.
func insertSessionsTx(ctx context.Context, tx pgx.Tx, sessions []*domain.ClassSession) ([]domain.SessionInsertOutcome, error) {
	query := `
		INSERT INTO class_sessions (
			id, class_id, date, start_time, capacity, price, is_closed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	outcomes := make([]domain.SessionInsertOutcome, 0, len(sessions))
	for _, s := range sessions {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create savepoint: %w", err)
		}

		_, err = sp.Exec(ctx, query,
			s.ID, s.ClassID, s.Date, s.StartTime, s.Capacity, s.Price, s.IsClosed, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			_ = sp.Rollback(ctx)
			if database.IsUniqueViolation(err, SessionSlotConstraint) {
				outcomes = append(outcomes, domain.SessionInsertOutcome{Session: s})
				continue
			}
			return nil, fmt.Errorf("failed to insert session: %w", err)
		}

		if err := sp.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to release savepoint: %w", err)
		}
		outcomes = append(outcomes, domain.SessionInsertOutcome{Session: s, Inserted: true})
	}

	return outcomes, nil
}

func insertGeneratedEventTx(ctx context.Context, tx pgx.Tx, tpl *domain.ClassTemplate, outcomes []domain.SessionInsertOutcome) error {
	msg, err := domain.SessionsGeneratedEvent(tpl, outcomes)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	if msg == nil {
		return nil
	}
	return createOutboxTx(ctx, tx, msg)
}

func scanClass(row pgx.Row) (*domain.ClassTemplate, error) {
	tpl := &domain.ClassTemplate{}
	var (
		description    *string
		instructor     *string
		studentDetails *string
		level          string
		status         string
	)

	err := row.Scan(
		&tpl.ID,
		&tpl.SchoolID,
		&tpl.BeachID,
		&tpl.Title,
		&description,
		&tpl.Duration,
		&tpl.DefaultCapacity,
		&tpl.DefaultPrice,
		&level,
		&instructor,
		&studentDetails,
		&tpl.Images,
		&status,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
		&tpl.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	tpl.Description = derefString(description)
	tpl.Instructor = derefString(instructor)
	tpl.StudentDetails = derefString(studentDetails)
	tpl.Level = domain.ClassLevel(level)
	tpl.Status = domain.ClassStatus(status)
	if tpl.Images == nil {
		tpl.Images = []string{}
	}
	return tpl, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ensure PostgresClassRepository implements ClassRepository
var _ ClassRepository = (*PostgresClassRepository)(nil)
