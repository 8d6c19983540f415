package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/repository"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/logger"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

// calendarService implements CalendarService. It holds no state: every call
// reads the sessions and their reservation counts from the store.
type calendarService struct {
	classRepo   repository.ClassRepository
	sessionRepo repository.SessionRepository
	cfg         *Config
}

// NewCalendarService creates a new calendar service
func NewCalendarService(classRepo repository.ClassRepository, sessionRepo repository.SessionRepository, cfg *Config) CalendarService {
	return &calendarService{
		classRepo:   classRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg.withDefaults(),
	}
}

// ResolveCalendar returns the resolved sessions of classID within r
func (s *calendarService) ResolveCalendar(ctx context.Context, classID string, r domain.DateRange) ([]domain.SessionView, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.resolve")
	defer span.End()

	span.SetAttributes(attribute.String("class_id", classID))

	if err := r.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, invalid(err)
	}

	tpl, err := s.template(ctx, classID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rows, err := s.sessionRepo.ListWithReserved(ctx, classID, r)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	today := domain.Today(s.cfg.Now(), s.cfg.Location)
	views := make([]domain.SessionView, 0, len(rows))
	for _, row := range rows {
		view := domain.ResolveSessionView(tpl, row.Session, row.Reserved, today)
		warnOverbooked(ctx, view)
		views = append(views, view)
	}

	span.SetAttributes(attribute.Int("sessions", len(views)))
	span.SetStatus(codes.Ok, "")
	return views, nil
}

// ResolveSession resolves one session the same way the calendar does
func (s *calendarService) ResolveSession(ctx context.Context, sessionID string) (*domain.SessionView, *domain.ClassTemplate, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.resolve_session")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", sessionID))

	if !isID(sessionID) {
		span.SetStatus(codes.Error, "not found")
		return nil, nil, domain.ErrSessionNotFound
	}

	row, err := s.sessionRepo.GetWithReserved(ctx, sessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	tpl, err := s.template(ctx, row.Session.ClassID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	view := domain.ResolveSessionView(tpl, row.Session, row.Reserved, domain.Today(s.cfg.Now(), s.cfg.Location))
	warnOverbooked(ctx, view)

	span.SetStatus(codes.Ok, "")
	return &view, tpl, nil
}

func (s *calendarService) template(ctx context.Context, classID string) (*domain.ClassTemplate, error) {
	if !isID(classID) {
		return nil, domain.ErrClassNotFound
	}
	tpl, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if tpl.IsDeleted() {
		return nil, domain.ErrClassNotFound
	}
	return tpl, nil
}

// warnOverbooked reports a session holding more participants than its
// capacity. The view itself stays clamped.
func warnOverbooked(ctx context.Context, view domain.SessionView) {
	if !view.Overbooked() {
		return
	}
	logger.Get().WithContext(ctx).Warn("session overbooked",
		zap.String("session_id", view.SessionID),
		zap.String("class_id", view.ClassID),
		zap.Int("capacity", view.Capacity),
		zap.Int("reserved", view.Reserved),
	)
}
