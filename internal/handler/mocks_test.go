package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/service"
)

// MockClassService is a mock implementation of ClassService
type MockClassService struct {
	mock.Mock
}

func (m *MockClassService) CreateRecurringClass(ctx context.Context, base domain.ClassBaseData, schoolID, beachID string, occurrences []domain.Occurrence) (*domain.GenerationResult, error) {
	args := m.Called(ctx, base, schoolID, beachID, occurrences)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}

func (m *MockClassService) AppendOccurrences(ctx context.Context, classID string, occurrences []domain.Occurrence) (*domain.GenerationResult, error) {
	args := m.Called(ctx, classID, occurrences)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}

func (m *MockClassService) GetClass(ctx context.Context, classID string) (*domain.ClassTemplate, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClassTemplate), args.Error(1)
}

func (m *MockClassService) ListClasses(ctx context.Context, filter domain.ClassFilter) ([]*domain.ClassTemplate, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.ClassTemplate), args.Int(1), args.Error(2)
}

func (m *MockClassService) UpdateClass(ctx context.Context, classID string, update *domain.ClassUpdate) (*domain.ClassTemplate, error) {
	args := m.Called(ctx, classID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClassTemplate), args.Error(1)
}

func (m *MockClassService) ArchiveClass(ctx context.Context, classID string) error {
	args := m.Called(ctx, classID)
	return args.Error(0)
}

func (m *MockClassService) OverrideSlot(ctx context.Context, classID string, override *domain.SessionOverride) (*domain.ClassSession, error) {
	args := m.Called(ctx, classID, override)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClassSession), args.Error(1)
}

// MockCalendarService is a mock implementation of CalendarService
type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) ResolveCalendar(ctx context.Context, classID string, r domain.DateRange) ([]domain.SessionView, error) {
	args := m.Called(ctx, classID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SessionView), args.Error(1)
}

func (m *MockCalendarService) ResolveSession(ctx context.Context, sessionID string) (*domain.SessionView, *domain.ClassTemplate, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.SessionView), args.Get(1).(*domain.ClassTemplate), args.Error(2)
}

// MockReservationService is a mock implementation of ReservationService
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) CreateReservation(ctx context.Context, in service.CreateReservationInput) (*domain.Reservation, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) ListUserReservations(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Reservation), args.Int(1), args.Error(2)
}

func (m *MockReservationService) CancelReservation(ctx context.Context, id, userID string) (*domain.Reservation, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) (*domain.Reservation, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

var (
	_ service.ClassService       = (*MockClassService)(nil)
	_ service.CalendarService    = (*MockCalendarService)(nil)
	_ service.ReservationService = (*MockReservationService)(nil)
)
