package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/dto"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/service"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/response"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

// ClassHandler handles class template and session HTTP requests
type ClassHandler struct {
	classService service.ClassService
}

// NewClassHandler creates a new class handler
func NewClassHandler(classService service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// CreateRecurringClass handles POST /classes/bulk
// Responds 201 even when some occurrences were skipped; the skips are listed in the body.
func (h *ClassHandler) CreateRecurringClass(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.create_recurring")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.CreateRecurringClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		bindFailed(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("school_id", req.SchoolID),
		attribute.String("beach_id", req.BeachID),
		attribute.Int("occurrences", len(req.Occurrences)),
	)

	if !actor.CanManageSchool(req.SchoolID) {
		span.SetStatus(codes.Error, "forbidden")
		handleError(c, domain.ErrForbidden)
		return
	}

	result, err := h.classService.CreateRecurringClass(ctx, req.BaseData.ToBaseData(), req.SchoolID, req.BeachID, dto.ToOccurrences(req.Occurrences))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("class_id", result.Template.ID),
		attribute.Int("created", len(result.CreatedSessions)),
		attribute.Int("skipped", len(result.Skipped)),
	)
	span.SetStatus(codes.Ok, "")
	response.Created(c, dto.FromGeneration(result))
}

// AppendOccurrences handles POST /classes/:id/sessions/bulk
func (h *ClassHandler) AppendOccurrences(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.append_occurrences")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	classID := c.Param("id")
	span.SetAttributes(attribute.String("class_id", classID))

	var req dto.AppendOccurrencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		bindFailed(c, err)
		return
	}

	if _, ok := h.authorize(ctx, c, classID); !ok {
		span.SetStatus(codes.Error, "not authorized")
		return
	}

	result, err := h.classService.AppendOccurrences(ctx, classID, dto.ToOccurrences(req.Occurrences))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("created", len(result.CreatedSessions)))
	span.SetStatus(codes.Ok, "")
	response.Created(c, dto.FromGeneration(result))
}

// ListClasses handles GET /classes
func (h *ClassHandler) ListClasses(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var query dto.ListClassesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		span.SetStatus(codes.Error, "invalid query")
		bindFailed(c, err)
		return
	}

	classes, total, err := h.classService.ListClasses(ctx, query.ToFilter())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.List(c, dto.FromClasses(classes), total)
}

// GetClass handles GET /classes/:id
func (h *ClassHandler) GetClass(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	classID := c.Param("id")
	span.SetAttributes(attribute.String("class_id", classID))

	tpl, err := h.classService.GetClass(ctx, classID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromClass(tpl))
}

// UpdateClass handles PUT /classes/:id
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.update")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	classID := c.Param("id")
	span.SetAttributes(attribute.String("class_id", classID))

	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		bindFailed(c, err)
		return
	}

	if _, ok := h.authorize(ctx, c, classID); !ok {
		span.SetStatus(codes.Error, "not authorized")
		return
	}

	tpl, err := h.classService.UpdateClass(ctx, classID, req.ToClassUpdate())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromClass(tpl))
}

// ArchiveClass handles DELETE /classes/:id
func (h *ClassHandler) ArchiveClass(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.archive")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	classID := c.Param("id")
	span.SetAttributes(attribute.String("class_id", classID))

	if _, ok := h.authorize(ctx, c, classID); !ok {
		span.SetStatus(codes.Error, "not authorized")
		return
	}

	if err := h.classService.ArchiveClass(ctx, classID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, gin.H{"id": classID, "status": domain.ClassStatusArchived})
}

// OverrideSlot handles POST /classes/:id/availability
func (h *ClassHandler) OverrideSlot(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.override_slot")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	classID := c.Param("id")
	span.SetAttributes(attribute.String("class_id", classID))

	var req dto.SlotOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		bindFailed(c, err)
		return
	}

	if _, ok := h.authorize(ctx, c, classID); !ok {
		span.SetStatus(codes.Error, "not authorized")
		return
	}

	session, err := h.classService.OverrideSlot(ctx, classID, req.ToOverride())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("session_id", session.ID))
	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromSession(session))
}

// authorize loads the class and checks that the caller manages its school.
// It writes the error response itself and reports false on failure.
func (h *ClassHandler) authorize(ctx context.Context, c *gin.Context, classID string) (*domain.ClassTemplate, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return nil, false
	}

	tpl, err := h.classService.GetClass(ctx, classID)
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	if !actor.CanManageSchool(tpl.SchoolID) {
		handleError(c, domain.ErrForbidden)
		return nil, false
	}
	return tpl, true
}
