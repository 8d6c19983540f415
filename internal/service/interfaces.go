package service

import (
	"context"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
)

// ClassService defines class template and session generation logic
type ClassService interface {
	// CreateRecurringClass creates a template and one session per valid occurrence
	CreateRecurringClass(ctx context.Context, base domain.ClassBaseData, schoolID, beachID string, occurrences []domain.Occurrence) (*domain.GenerationResult, error)

	// AppendOccurrences generates more sessions for an existing template
	AppendOccurrences(ctx context.Context, classID string, occurrences []domain.Occurrence) (*domain.GenerationResult, error)

	// GetClass retrieves a non-deleted template
	GetClass(ctx context.Context, classID string) (*domain.ClassTemplate, error)

	// ListClasses lists templates and returns the total match count
	ListClasses(ctx context.Context, filter domain.ClassFilter) ([]*domain.ClassTemplate, int, error)

	// UpdateClass changes template fields; existing sessions keep their values
	UpdateClass(ctx context.Context, classID string, update *domain.ClassUpdate) (*domain.ClassTemplate, error)

	// ArchiveClass soft-deletes a template
	ArchiveClass(ctx context.Context, classID string) error

	// OverrideSlot creates or updates the session at a (date, time) slot
	OverrideSlot(ctx context.Context, classID string, override *domain.SessionOverride) (*domain.ClassSession, error)
}

// CalendarService resolves the bookable state of sessions
type CalendarService interface {
	// ResolveCalendar returns the resolved sessions of a class in date order
	ResolveCalendar(ctx context.Context, classID string, r domain.DateRange) ([]domain.SessionView, error)

	// ResolveSession resolves a single session and returns its template
	ResolveSession(ctx context.Context, sessionID string) (*domain.SessionView, *domain.ClassTemplate, error)
}

// ReservationService defines reservation business logic
type ReservationService interface {
	CreateReservation(ctx context.Context, req CreateReservationInput) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	ListUserReservations(ctx context.Context, userID string) ([]*domain.Reservation, error)

	// ListReservations lists reservations across users for managers. Callers
	// scope the filter to what the requester may see.
	ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, int, error)

	// CancelReservation cancels a reservation on behalf of its owner
	CancelReservation(ctx context.Context, id, userID string) (*domain.Reservation, error)

	UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) (*domain.Reservation, error)
}

// CreateReservationInput carries the fields of a new reservation
type CreateReservationInput struct {
	UserID         string
	SessionID      string
	Participants   int
	SpecialRequest string
}
