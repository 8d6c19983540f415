package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/dto"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/service"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/response"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

// ReservationHandler handles reservation HTTP requests
type ReservationHandler struct {
	reservationService service.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// CreateReservation handles POST /reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		bindFailed(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("user_id", actor.UserID),
		attribute.String("session_id", req.SessionID),
		attribute.Int("participants", req.Participants),
	)

	res, err := h.reservationService.CreateReservation(ctx, service.CreateReservationInput{
		UserID:         actor.UserID,
		SessionID:      req.SessionID,
		Participants:   req.Participants,
		SpecialRequest: req.SpecialRequest,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("reservation_id", res.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, dto.FromReservation(res))
}

// ListMyReservations handles GET /reservations/me
func (h *ReservationHandler) ListMyReservations(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.list_mine")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	reservations, err := h.reservationService.ListUserReservations(ctx, actor.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.List(c, dto.FromReservations(reservations), len(reservations))
}

// ListReservations handles GET /reservations for managers. School admins only
// see reservations of their own school.
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	var query dto.ListReservationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		span.SetStatus(codes.Error, "invalid query")
		bindFailed(c, err)
		return
	}

	filter, err := actor.ScopeReservationFilter(query.ToFilter())
	if err != nil {
		span.SetStatus(codes.Error, "forbidden")
		handleError(c, err)
		return
	}
	span.SetAttributes(attribute.String("school_id", filter.SchoolID))

	reservations, total, err := h.reservationService.ListReservations(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.List(c, dto.FromReservations(reservations), total)
}

// GetReservation handles GET /reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	reservationID := c.Param("id")
	span.SetAttributes(attribute.String("reservation_id", reservationID))

	res, err := h.reservationService.GetReservation(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	if !actor.CanViewReservation(res) {
		span.SetStatus(codes.Error, "forbidden")
		handleError(c, domain.ErrForbidden)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromReservation(res))
}

// CancelReservation handles POST /reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	reservationID := c.Param("id")
	span.SetAttributes(attribute.String("reservation_id", reservationID))

	res, err := h.reservationService.CancelReservation(ctx, reservationID, actor.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromReservation(res))
}

// UpdateReservationStatus handles PATCH /reservations/:id/status
func (h *ReservationHandler) UpdateReservationStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.update_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := actorFrom(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	reservationID := c.Param("id")
	span.SetAttributes(attribute.String("reservation_id", reservationID))

	var req dto.UpdateReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		bindFailed(c, err)
		return
	}

	current, err := h.reservationService.GetReservation(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	if !actor.CanManageSchool(current.SchoolID) {
		span.SetStatus(codes.Error, "forbidden")
		handleError(c, domain.ErrForbidden)
		return
	}

	res, err := h.reservationService.UpdateReservationStatus(ctx, reservationID, domain.ReservationStatus(req.Status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("status", res.Status.String()))
	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.FromReservation(res))
}
