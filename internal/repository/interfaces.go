package repository

import (
	"context"
	"time"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
)

// ClassRepository persists class templates and the sessions generated from them
type ClassRepository interface {
	// CreateWithSessions inserts the template and its candidate sessions in one
	// transaction. Candidates whose slot already exists are reported with
	// Inserted=false instead of failing the batch.
	CreateWithSessions(ctx context.Context, tpl *domain.ClassTemplate, sessions []*domain.ClassSession) ([]domain.SessionInsertOutcome, error)

	// AppendSessions inserts candidate sessions for an existing template
	AppendSessions(ctx context.Context, tpl *domain.ClassTemplate, sessions []*domain.ClassSession) ([]domain.SessionInsertOutcome, error)

	// GetByID returns the template, including soft-deleted ones
	GetByID(ctx context.Context, id string) (*domain.ClassTemplate, error)

	// List returns templates matching filter and the total count
	List(ctx context.Context, filter domain.ClassFilter) ([]*domain.ClassTemplate, int, error)

	// Update writes the mutable template fields
	Update(ctx context.Context, tpl *domain.ClassTemplate) error

	// Archive soft-deletes the template
	Archive(ctx context.Context, id string, at time.Time) error
}

// SessionRepository reads resolved session state and applies slot overrides
type SessionRepository interface {
	// ListWithReserved returns the class's sessions inside r, ordered by date
	// and start time, each with its active participant count. Sessions and
	// counts come from a single statement.
	ListWithReserved(ctx context.Context, classID string, r domain.DateRange) ([]domain.SessionWithReserved, error)

	// GetWithReserved returns one session with its active participant count
	GetWithReserved(ctx context.Context, sessionID string) (*domain.SessionWithReserved, error)

	// UpsertOverride creates or updates the session at the override's slot
	UpsertOverride(ctx context.Context, tpl *domain.ClassTemplate, o *domain.SessionOverride, newID string, now time.Time) (*domain.ClassSession, error)
}

// ReservationRepository persists reservations
type ReservationRepository interface {
	// CreateIfCapacity inserts r after locking its session and re-counting the
	// participants of active reservations
	CreateIfCapacity(ctx context.Context, r *domain.Reservation) error

	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	ListByUser(ctx context.Context, userID string) ([]*domain.Reservation, error)

	// List returns reservations matching filter, newest first, and the total count
	List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, int, error)

	// UpdateStatus moves r from previous to r.Status. It fails with
	// ErrInvalidTransition if the stored status is no longer previous.
	UpdateStatus(ctx context.Context, r *domain.Reservation, previous domain.ReservationStatus) error
}

// LocationRepository answers existence checks for schools and beaches
type LocationRepository interface {
	SchoolExists(ctx context.Context, id string) (bool, error)
	BeachExists(ctx context.Context, id string) (bool, error)
}

// OutboxRepository defines the interface for outbox data access
type OutboxRepository interface {
	// ProcessBatch locks up to limit publishable messages, hands each to fn
	// and records the outcome in the same transaction
	ProcessBatch(ctx context.Context, limit int, fn func(ctx context.Context, msg *domain.OutboxMessage) error) (published, failed int, err error)

	// DeletePublished deletes published messages older than olderThan
	DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error)

	// CountByStatus returns message counts keyed by status
	CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error)
}
