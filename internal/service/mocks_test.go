package service

import (
	"context"
	"sync"
	"time"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
)

const (
	testSchoolID = "5c1b8a3e-0a4f-4c52-9d7e-0c7f1d2e3a01"
	testBeachID  = "b3a1f0d2-7e6c-4b1a-8f3d-2c4e5a6b7c02"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *Config {
	return &Config{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	}
}

// mockClassRepository is an in-memory ClassRepository that enforces slot uniqueness
type mockClassRepository struct {
	mu        sync.Mutex
	templates map[string]*domain.ClassTemplate
	slots     map[string]map[string]struct{}

	createCalls int
	createError error
	// collideOnWrite reports these slot keys as already stored at write time
	collideOnWrite map[string]bool
}

func newMockClassRepository() *mockClassRepository {
	return &mockClassRepository{
		templates: make(map[string]*domain.ClassTemplate),
		slots:     make(map[string]map[string]struct{}),
	}
}

func (r *mockClassRepository) insert(classID string, sessions []*domain.ClassSession) []domain.SessionInsertOutcome {
	if r.slots[classID] == nil {
		r.slots[classID] = make(map[string]struct{})
	}
	outcomes := make([]domain.SessionInsertOutcome, 0, len(sessions))
	for _, s := range sessions {
		key := s.SlotKey()
		if _, exists := r.slots[classID][key]; exists || r.collideOnWrite[key] {
			outcomes = append(outcomes, domain.SessionInsertOutcome{Session: s})
			continue
		}
		r.slots[classID][key] = struct{}{}
		outcomes = append(outcomes, domain.SessionInsertOutcome{Session: s, Inserted: true})
	}
	return outcomes
}

func (r *mockClassRepository) CreateWithSessions(ctx context.Context, tpl *domain.ClassTemplate, sessions []*domain.ClassSession) ([]domain.SessionInsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createError != nil {
		return nil, r.createError
	}
	r.templates[tpl.ID] = tpl
	return r.insert(tpl.ID, sessions), nil
}

func (r *mockClassRepository) AppendSessions(ctx context.Context, tpl *domain.ClassTemplate, sessions []*domain.ClassSession) ([]domain.SessionInsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.templates[tpl.ID]
	if !ok || stored.IsDeleted() {
		return nil, domain.ErrClassNotFound
	}
	return r.insert(tpl.ID, sessions), nil
}

func (r *mockClassRepository) GetByID(ctx context.Context, id string) (*domain.ClassTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl, ok := r.templates[id]
	if !ok {
		return nil, domain.ErrClassNotFound
	}
	copied := *tpl
	return &copied, nil
}

func (r *mockClassRepository) List(ctx context.Context, filter domain.ClassFilter) ([]*domain.ClassTemplate, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ClassTemplate
	for _, tpl := range r.templates {
		if filter.SchoolID != "" && tpl.SchoolID != filter.SchoolID {
			continue
		}
		out = append(out, tpl)
	}
	return out, len(out), nil
}

func (r *mockClassRepository) Update(ctx context.Context, tpl *domain.ClassTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[tpl.ID]; !ok {
		return domain.ErrClassNotFound
	}
	r.templates[tpl.ID] = tpl
	return nil
}

func (r *mockClassRepository) Archive(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl, ok := r.templates[id]
	if !ok || tpl.IsDeleted() {
		return domain.ErrClassNotFound
	}
	tpl.Archive(at)
	return nil
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	ListWithReservedFunc func(ctx context.Context, classID string, r domain.DateRange) ([]domain.SessionWithReserved, error)
	GetWithReservedFunc  func(ctx context.Context, sessionID string) (*domain.SessionWithReserved, error)
	UpsertOverrideFunc   func(ctx context.Context, tpl *domain.ClassTemplate, o *domain.SessionOverride, newID string, now time.Time) (*domain.ClassSession, error)
}

func (m *MockSessionRepository) ListWithReserved(ctx context.Context, classID string, r domain.DateRange) ([]domain.SessionWithReserved, error) {
	if m.ListWithReservedFunc != nil {
		return m.ListWithReservedFunc(ctx, classID, r)
	}
	return []domain.SessionWithReserved{}, nil
}

func (m *MockSessionRepository) GetWithReserved(ctx context.Context, sessionID string) (*domain.SessionWithReserved, error) {
	if m.GetWithReservedFunc != nil {
		return m.GetWithReservedFunc(ctx, sessionID)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionRepository) UpsertOverride(ctx context.Context, tpl *domain.ClassTemplate, o *domain.SessionOverride, newID string, now time.Time) (*domain.ClassSession, error) {
	if m.UpsertOverrideFunc != nil {
		return m.UpsertOverrideFunc(ctx, tpl, o, newID, now)
	}
	s := domain.NewClassSession(newID, tpl, o.Date, o.StartTime, now)
	o.Apply(s, now)
	return s, nil
}

// MockLocationRepository is a mock implementation of LocationRepository
type MockLocationRepository struct {
	SchoolExistsFunc func(ctx context.Context, id string) (bool, error)
	BeachExistsFunc  func(ctx context.Context, id string) (bool, error)
}

func (m *MockLocationRepository) SchoolExists(ctx context.Context, id string) (bool, error) {
	if m.SchoolExistsFunc != nil {
		return m.SchoolExistsFunc(ctx, id)
	}
	return id == testSchoolID, nil
}

func (m *MockLocationRepository) BeachExists(ctx context.Context, id string) (bool, error) {
	if m.BeachExistsFunc != nil {
		return m.BeachExistsFunc(ctx, id)
	}
	return id == testBeachID, nil
}

// MockReservationRepository is a mock implementation of ReservationRepository
type MockReservationRepository struct {
	CreateIfCapacityFunc func(ctx context.Context, r *domain.Reservation) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Reservation, error)
	ListByUserFunc       func(ctx context.Context, userID string) ([]*domain.Reservation, error)
	ListFunc             func(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, int, error)
	UpdateStatusFunc     func(ctx context.Context, r *domain.Reservation, previous domain.ReservationStatus) error
}

func (m *MockReservationRepository) CreateIfCapacity(ctx context.Context, r *domain.Reservation) error {
	if m.CreateIfCapacityFunc != nil {
		return m.CreateIfCapacityFunc(ctx, r)
	}
	return nil
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrReservationNotFound
}

func (m *MockReservationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*domain.Reservation{}, nil
}

func (m *MockReservationRepository) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*domain.Reservation{}, 0, nil
}

func (m *MockReservationRepository) UpdateStatus(ctx context.Context, r *domain.Reservation, previous domain.ReservationStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, r, previous)
	}
	return nil
}
