package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/logger"
)

const (
	testClassID   = "7f3e2d1c-0b9a-4876-a543-210fedcba901"
	testSessionID = "9a8b7c6d-5e4f-4a3b-9c2d-1e0f00000001"
)

func seededClassRepo(tpl *domain.ClassTemplate) *mockClassRepository {
	repo := newMockClassRepository()
	repo.templates[tpl.ID] = tpl
	return repo
}

func calendarTemplate() *domain.ClassTemplate {
	return domain.NewClassTemplate(testClassID, testSchoolID, testBeachID, validBase(), testNow)
}

func sessionAt(t *testing.T, id, date, start string, capacity *int) *domain.ClassSession {
	t.Helper()
	d, ok := domain.ParseDate(date)
	require.True(t, ok)
	return &domain.ClassSession{ID: id, ClassID: testClassID, Date: d, StartTime: start, Capacity: capacity}
}

func TestCalendarService_ResolveCalendar(t *testing.T) {
	tpl := calendarTemplate()
	five := 5

	var gotRange domain.DateRange
	sessions := &MockSessionRepository{
		ListWithReservedFunc: func(ctx context.Context, classID string, r domain.DateRange) ([]domain.SessionWithReserved, error) {
			gotRange = r
			return []domain.SessionWithReserved{
				{Session: sessionAt(t, "s-1", "2026-05-31", "06:00", nil), Reserved: 2},
				{Session: sessionAt(t, "s-2", "2099-01-01", "06:00", &five), Reserved: 7},
				{Session: sessionAt(t, "s-3", "2099-01-01", "08:00", nil), Reserved: 0},
			}, nil
		},
	}
	svc := NewCalendarService(seededClassRepo(tpl), sessions, testConfig())

	from, _ := domain.ParseDate("2026-05-01")
	views, err := svc.ResolveCalendar(context.Background(), testClassID, domain.DateRange{From: &from})
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, &from, gotRange.From)

	assert.True(t, views[0].IsPast)
	assert.Equal(t, 6, views[0].Remaining)

	// Overbooked sessions clamp instead of going negative.
	assert.Equal(t, 5, views[1].Capacity)
	assert.Equal(t, 7, views[1].Reserved)
	assert.Equal(t, 0, views[1].Remaining)
	assert.True(t, views[1].IsFull)
	assert.True(t, views[1].HasOverride)
	assert.False(t, views[1].IsPast)

	assert.Equal(t, 8, views[2].Capacity)
	assert.Equal(t, 60.0, views[2].Price)
	assert.False(t, views[2].IsFull)
	assert.False(t, views[2].HasOverride)
}

func TestCalendarService_ResolveCalendar_Empty(t *testing.T) {
	svc := NewCalendarService(seededClassRepo(calendarTemplate()), &MockSessionRepository{}, testConfig())

	views, err := svc.ResolveCalendar(context.Background(), testClassID, domain.DateRange{})
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestCalendarService_ResolveCalendar_Errors(t *testing.T) {
	deleted := calendarTemplate()
	deleted.Archive(testNow)

	from := time.Date(2099, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		repo    *mockClassRepository
		classID string
		r       domain.DateRange
		wantErr error
	}{
		{"unknown class", newMockClassRepository(), testClassID, domain.DateRange{}, domain.ErrClassNotFound},
		{"malformed id", newMockClassRepository(), "42", domain.DateRange{}, domain.ErrClassNotFound},
		{"deleted class", seededClassRepo(deleted), testClassID, domain.DateRange{}, domain.ErrClassNotFound},
		{"inverted range", seededClassRepo(calendarTemplate()), testClassID, domain.DateRange{From: &from, To: &to}, domain.ErrInvalidDateSpan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCalendarService(tt.repo, &MockSessionRepository{}, testConfig())
			_, err := svc.ResolveCalendar(context.Background(), tt.classID, tt.r)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCalendarService_ResolveCalendar_InvertedRangeIsValidation(t *testing.T) {
	from := time.Date(2099, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewCalendarService(seededClassRepo(calendarTemplate()), &MockSessionRepository{}, testConfig())

	_, err := svc.ResolveCalendar(context.Background(), testClassID, domain.DateRange{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCalendarService_ResolveSession(t *testing.T) {
	tpl := calendarTemplate()
	sessions := &MockSessionRepository{
		GetWithReservedFunc: func(ctx context.Context, sessionID string) (*domain.SessionWithReserved, error) {
			return &domain.SessionWithReserved{Session: sessionAt(t, sessionID, "2099-01-01", "06:00", nil), Reserved: 3}, nil
		},
	}
	svc := NewCalendarService(seededClassRepo(tpl), sessions, testConfig())

	view, gotTpl, err := svc.ResolveSession(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, gotTpl.ID)
	assert.Equal(t, testSessionID, view.SessionID)
	assert.Equal(t, 5, view.Remaining)

	_, _, err = svc.ResolveSession(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCalendarService_WarnsOnOverbookedSessions(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := logger.ReplaceGlobal(logger.Wrap(zap.New(core)))
	defer restore()

	five := 5
	sessions := &MockSessionRepository{
		ListWithReservedFunc: func(ctx context.Context, classID string, r domain.DateRange) ([]domain.SessionWithReserved, error) {
			return []domain.SessionWithReserved{
				{Session: sessionAt(t, "s-1", "2099-01-01", "06:00", &five), Reserved: 7},
				{Session: sessionAt(t, "s-2", "2099-01-01", "08:00", nil), Reserved: 8},
			}, nil
		},
	}
	svc := NewCalendarService(seededClassRepo(calendarTemplate()), sessions, testConfig())

	views, err := svc.ResolveCalendar(context.Background(), testClassID, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, 0, views[0].Remaining)

	warnings := logs.FilterMessage("session overbooked").All()
	require.Len(t, warnings, 1, "a full session is not overbooked")
	fields := warnings[0].ContextMap()
	assert.Equal(t, "s-1", fields["session_id"])
	assert.EqualValues(t, 5, fields["capacity"])
	assert.EqualValues(t, 7, fields["reserved"])
}
