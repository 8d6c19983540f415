package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/dto"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/middleware"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/response"
)

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		response.ValidationFailed(c, "Validation failed", err.Error())

	case errors.Is(err, domain.ErrClassNotFound):
		response.Error(c, http.StatusNotFound, "CLASS_NOT_FOUND", "Class not found", "")
	case errors.Is(err, domain.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", "")
	case errors.Is(err, domain.ErrReservationNotFound):
		response.Error(c, http.StatusNotFound, "RESERVATION_NOT_FOUND", "Reservation not found", "")

	case errors.Is(err, domain.ErrNotEnoughSpots):
		response.Conflict(c, "NOT_ENOUGH_SPOTS", "Not enough spots available")
	case errors.Is(err, domain.ErrSessionClosed):
		response.Conflict(c, "SESSION_CLOSED", "Session is closed")
	case errors.Is(err, domain.ErrSessionPast):
		response.Conflict(c, "SESSION_PAST", "Session has already taken place")
	case errors.Is(err, domain.ErrClassNotActive):
		response.Conflict(c, "CLASS_NOT_ACTIVE", "Class is not active")
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Conflict(c, "INVALID_STATUS_TRANSITION", "Reservation cannot move to that status")

	case errors.Is(err, domain.ErrReservationNotOwned), errors.Is(err, domain.ErrForbidden):
		response.Forbidden(c, "You are not allowed to access this resource")

	default:
		response.InternalError(c, err)
	}
}

// bindFailed writes a 400 for a request that failed gin binding
func bindFailed(c *gin.Context, err error) {
	response.ValidationFailed(c, "Invalid request", dto.ValidationDetails(err))
}

// actorFrom builds the caller from the JWT middleware context
func actorFrom(c *gin.Context) (domain.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return domain.Actor{}, false
	}
	role, _ := middleware.GetRole(c)
	schoolID, _ := middleware.GetSchoolID(c)
	return domain.Actor{UserID: userID, Role: role, SchoolID: schoolID}, true
}
