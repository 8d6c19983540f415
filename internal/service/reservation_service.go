package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/repository"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/logger"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

// reservationService implements ReservationService
type reservationService struct {
	reservationRepo repository.ReservationRepository
	calendar        CalendarService
	cfg             *Config
}

// NewReservationService creates a new reservation service
func NewReservationService(reservationRepo repository.ReservationRepository, calendar CalendarService, cfg *Config) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		calendar:        calendar,
		cfg:             cfg.withDefaults(),
	}
}

// CreateReservation books participants onto a session. The resolved view is
// only a pre-check; the store re-counts under a row lock before inserting.
func (s *reservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.create")
	defer span.End()

	if in.Participants == 0 {
		in.Participants = 1
	}
	span.SetAttributes(
		attribute.String("user_id", in.UserID),
		attribute.String("session_id", in.SessionID),
		attribute.Int("participants", in.Participants),
	)

	now := s.cfg.Now()
	res := &domain.Reservation{
		ID:             s.cfg.NewID(),
		UserID:         in.UserID,
		SessionID:      in.SessionID,
		Participants:   in.Participants,
		SpecialRequest: strings.TrimSpace(in.SpecialRequest),
		Status:         domain.ReservationPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := res.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	view, tpl, err := s.calendar.ResolveSession(ctx, in.SessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	switch {
	case !tpl.IsBookable():
		err = domain.ErrClassNotActive
	case view.IsPast:
		err = domain.ErrSessionPast
	case view.IsClosed:
		err = domain.ErrSessionClosed
	case view.Remaining < in.Participants:
		err = domain.ErrNotEnoughSpots
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.reservationRepo.CreateIfCapacity(ctx, res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.Get().WithContext(ctx).Info("reservation created",
		zap.String("reservation_id", res.ID),
		zap.String("session_id", res.SessionID),
		zap.Int("participants", res.Participants),
	)

	span.SetAttributes(attribute.String("reservation_id", res.ID))
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// GetReservation retrieves a reservation by ID
func (s *reservationService) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	if !isID(id) {
		span.SetStatus(codes.Error, "not found")
		return nil, domain.ErrReservationNotFound
	}

	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return res, nil
}

// ListUserReservations lists the reservations of a user
func (s *reservationService) ListUserReservations(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.list_by_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	reservations, err := s.reservationRepo.ListByUser(ctx, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// ListReservations lists reservations matching filter
func (s *reservationService) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.list")
	defer span.End()

	span.SetAttributes(
		attribute.String("school_id", filter.SchoolID),
		attribute.String("session_id", filter.SessionID),
		attribute.String("status", filter.Status.String()),
	)

	if filter.Status != "" && !filter.Status.IsValid() {
		span.SetStatus(codes.Error, "invalid status")
		return nil, 0, domain.NewValidationError("status", "must be one of PENDING, CONFIRMED, PAID, COMPLETED, CANCELED")
	}
	// ids are uuid columns; a malformed one can match nothing
	if (filter.SchoolID != "" && !isID(filter.SchoolID)) || (filter.SessionID != "" && !isID(filter.SessionID)) {
		span.SetStatus(codes.Ok, "")
		return []*domain.Reservation{}, 0, nil
	}

	reservations, total, err := s.reservationRepo.List(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("total", total))
	span.SetStatus(codes.Ok, "")
	return reservations, total, nil
}

// CancelReservation cancels a reservation owned by userID
func (s *reservationService) CancelReservation(ctx context.Context, id, userID string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.cancel")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", id),
		attribute.String("user_id", userID),
	)

	res, err := s.GetReservation(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.UserID != userID {
		span.SetStatus(codes.Error, "not owner")
		return nil, domain.ErrReservationNotOwned
	}

	if err := s.transition(ctx, res, domain.ReservationCanceled); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return res, nil
}

// UpdateReservationStatus moves a reservation along its lifecycle
func (s *reservationService) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", id),
		attribute.String("status", status.String()),
	)

	if !status.IsValid() {
		span.SetStatus(codes.Error, "invalid status")
		return nil, domain.NewValidationError("status", "must be one of PENDING, CONFIRMED, PAID, COMPLETED, CANCELED")
	}

	res, err := s.GetReservation(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.transition(ctx, res, status); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return res, nil
}

func (s *reservationService) transition(ctx context.Context, res *domain.Reservation, next domain.ReservationStatus) error {
	previous := res.Status
	if err := res.TransitionTo(next, s.cfg.Now()); err != nil {
		return err
	}
	if err := s.reservationRepo.UpdateStatus(ctx, res, previous); err != nil {
		return err
	}

	logger.Get().WithContext(ctx).Info("reservation status changed",
		zap.String("reservation_id", res.ID),
		zap.String("from", previous.String()),
		zap.String("to", next.String()),
	)
	return nil
}
