package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/dto"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/service"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/response"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

// CalendarHandler serves the resolved session calendar of a class
type CalendarHandler struct {
	calendarService service.CalendarService
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// GetCalendar handles GET /classes/:id/calendar?start=&end=
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.calendar.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	classID := c.Param("id")
	span.SetAttributes(attribute.String("class_id", classID))

	var query dto.CalendarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		span.SetStatus(codes.Error, "invalid query")
		bindFailed(c, err)
		return
	}
	dateRange, err := query.ToDateRange()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	views, err := h.calendarService.ResolveCalendar(ctx, classID, dateRange)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("sessions", len(views)))
	span.SetStatus(codes.Ok, "")
	response.List(c, dto.FromSessionViews(views), len(views))
}
