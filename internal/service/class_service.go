package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/repository"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/logger"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

// classService implements ClassService
type classService struct {
	classRepo    repository.ClassRepository
	sessionRepo  repository.SessionRepository
	locationRepo repository.LocationRepository
	cfg          *Config
}

// NewClassService creates a new class service
func NewClassService(
	classRepo repository.ClassRepository,
	sessionRepo repository.SessionRepository,
	locationRepo repository.LocationRepository,
	cfg *Config,
) ClassService {
	return &classService{
		classRepo:    classRepo,
		sessionRepo:  sessionRepo,
		locationRepo: locationRepo,
		cfg:          cfg.withDefaults(),
	}
}

// invalid marks err as a validation failure while keeping it matchable
func invalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}

// CreateRecurringClass creates a template and its sessions in one transaction.
// Top-level problems reject the request before anything is written;
// per-occurrence problems only skip that occurrence.
func (s *classService) CreateRecurringClass(ctx context.Context, base domain.ClassBaseData, schoolID, beachID string, occurrences []domain.Occurrence) (*domain.GenerationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.create_recurring")
	defer span.End()

	span.SetAttributes(
		attribute.String("school_id", schoolID),
		attribute.String("beach_id", beachID),
		attribute.Int("occurrences", len(occurrences)),
	)

	if len(occurrences) == 0 {
		span.SetStatus(codes.Error, "no occurrences")
		return nil, invalid(domain.ErrNoOccurrences)
	}
	if err := base.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := s.checkLocations(ctx, schoolID, beachID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.cfg.Now()
	tpl := domain.NewClassTemplate(s.cfg.NewID(), schoolID, beachID, base, now)

	planned, skipped := planOccurrences(occurrences, domain.Today(now, s.cfg.Location))
	sessions := buildSessions(tpl, planned, s.cfg.NewID, now)

	outcomes, err := s.classRepo.CreateWithSessions(ctx, tpl, sessions)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := collectResult(tpl, planned, outcomes, occurrences, skipped)
	s.logGeneration(ctx, "class created", result)

	span.SetAttributes(
		attribute.String("class_id", tpl.ID),
		attribute.Int("created", len(result.CreatedSessions)),
		attribute.Int("skipped", len(result.Skipped)),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// AppendOccurrences generates sessions for an existing template using its
// current defaults. Replays are safe: existing slots come back as duplicates.
func (s *classService) AppendOccurrences(ctx context.Context, classID string, occurrences []domain.Occurrence) (*domain.GenerationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.append_occurrences")
	defer span.End()

	span.SetAttributes(
		attribute.String("class_id", classID),
		attribute.Int("occurrences", len(occurrences)),
	)

	if len(occurrences) == 0 {
		span.SetStatus(codes.Error, "no occurrences")
		return nil, invalid(domain.ErrNoOccurrences)
	}

	tpl, err := s.GetClass(ctx, classID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.cfg.Now()
	planned, skipped := planOccurrences(occurrences, domain.Today(now, s.cfg.Location))
	sessions := buildSessions(tpl, planned, s.cfg.NewID, now)

	outcomes := []domain.SessionInsertOutcome{}
	if len(sessions) > 0 {
		outcomes, err = s.classRepo.AppendSessions(ctx, tpl, sessions)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	result := collectResult(tpl, planned, outcomes, occurrences, skipped)
	s.logGeneration(ctx, "sessions appended", result)

	span.SetAttributes(
		attribute.Int("created", len(result.CreatedSessions)),
		attribute.Int("skipped", len(result.Skipped)),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// GetClass retrieves a template; soft-deleted templates are not found
func (s *classService) GetClass(ctx context.Context, classID string) (*domain.ClassTemplate, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.get")
	defer span.End()

	span.SetAttributes(attribute.String("class_id", classID))

	if !isID(classID) {
		span.SetStatus(codes.Error, "not found")
		return nil, domain.ErrClassNotFound
	}

	tpl, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if tpl.IsDeleted() {
		span.SetStatus(codes.Error, "deleted")
		return nil, domain.ErrClassNotFound
	}

	span.SetStatus(codes.Ok, "")
	return tpl, nil
}

// ListClasses lists templates matching filter
func (s *classService) ListClasses(ctx context.Context, filter domain.ClassFilter) ([]*domain.ClassTemplate, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.list")
	defer span.End()

	if filter.Status != "" && !filter.Status.IsValid() {
		span.SetStatus(codes.Error, "invalid status")
		return nil, 0, domain.NewValidationError("status", "must be one of ACTIVE, INACTIVE, ARCHIVED")
	}
	if filter.SchoolID != "" && !isID(filter.SchoolID) {
		return []*domain.ClassTemplate{}, 0, nil
	}
	if filter.BeachID != "" && !isID(filter.BeachID) {
		return []*domain.ClassTemplate{}, 0, nil
	}

	classes, total, err := s.classRepo.List(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("total", total))
	span.SetStatus(codes.Ok, "")
	return classes, total, nil
}

// UpdateClass applies update to the template. Sessions keep the values they
// snapshotted when they were created.
func (s *classService) UpdateClass(ctx context.Context, classID string, update *domain.ClassUpdate) (*domain.ClassTemplate, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.update")
	defer span.End()

	span.SetAttributes(attribute.String("class_id", classID))

	tpl, err := s.GetClass(ctx, classID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := update.Apply(tpl, s.cfg.Now()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.classRepo.Update(ctx, tpl); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return tpl, nil
}

// ArchiveClass soft-deletes the template
func (s *classService) ArchiveClass(ctx context.Context, classID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.class.archive")
	defer span.End()

	span.SetAttributes(attribute.String("class_id", classID))

	if !isID(classID) {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrClassNotFound
	}

	if err := s.classRepo.Archive(ctx, classID, s.cfg.Now()); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	logger.Get().WithContext(ctx).Info("class archived", zap.String("class_id", classID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// OverrideSlot sets per-slot price, capacity or closed state, creating the
// session from the template defaults when the slot does not exist yet
func (s *classService) OverrideSlot(ctx context.Context, classID string, override *domain.SessionOverride) (*domain.ClassSession, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.override_slot")
	defer span.End()

	span.SetAttributes(
		attribute.String("class_id", classID),
		attribute.String("date", override.Date.Format(domain.DateLayout)),
		attribute.String("start_time", override.StartTime),
	)

	if err := override.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	tpl, err := s.GetClass(ctx, classID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	session, err := s.sessionRepo.UpsertOverride(ctx, tpl, override, s.cfg.NewID(), s.cfg.Now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("session_id", session.ID))
	span.SetStatus(codes.Ok, "")
	return session, nil
}

func (s *classService) checkLocations(ctx context.Context, schoolID, beachID string) error {
	if !isID(schoolID) {
		return invalid(domain.ErrSchoolNotFound)
	}
	if !isID(beachID) {
		return invalid(domain.ErrBeachNotFound)
	}

	ok, err := s.locationRepo.SchoolExists(ctx, schoolID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid(domain.ErrSchoolNotFound)
	}

	ok, err = s.locationRepo.BeachExists(ctx, beachID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid(domain.ErrBeachNotFound)
	}
	return nil
}

func (s *classService) logGeneration(ctx context.Context, msg string, result *domain.GenerationResult) {
	logger.Get().WithContext(ctx).Info(msg,
		zap.String("class_id", result.Template.ID),
		zap.String("school_id", result.Template.SchoolID),
		zap.Int("created", len(result.CreatedSessions)),
		zap.Int("skipped", len(result.Skipped)),
	)
}
