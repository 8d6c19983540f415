package dto

import (
	"time"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
)

// CreateReservationRequest represents POST /reservations
type CreateReservationRequest struct {
	SessionID      string `json:"sessionId" binding:"required"`
	Participants   int    `json:"participants" binding:"omitempty,min=1,max=10"`
	SpecialRequest string `json:"specialRequest,omitempty" binding:"max=500"`
}

// UpdateReservationStatusRequest represents PATCH /reservations/:id/status
type UpdateReservationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED PAID COMPLETED CANCELED"`
}

// ListReservationsQuery represents GET /reservations query parameters
type ListReservationsQuery struct {
	SchoolID  string `form:"schoolId"`
	SessionID string `form:"sessionId"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED PAID COMPLETED CANCELED"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to a domain filter
func (q *ListReservationsQuery) ToFilter() domain.ReservationFilter {
	return domain.ReservationFilter{
		SchoolID:  q.SchoolID,
		SessionID: q.SessionID,
		Status:    domain.ReservationStatus(q.Status),
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
}

// CalendarQuery represents GET /classes/:id/calendar query parameters
type CalendarQuery struct {
	Start string `form:"start"`
	End   string `form:"end"`
}

// ReservationResponse represents a reservation in API responses
type ReservationResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	SessionID      string     `json:"sessionId"`
	Participants   int        `json:"participants"`
	SpecialRequest string     `json:"specialRequest,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	CanceledAt     *time.Time `json:"canceledAt,omitempty"`
}

// ToDateRange parses the query bounds
func (q *CalendarQuery) ToDateRange() (domain.DateRange, error) {
	var r domain.DateRange
	if q.Start != "" {
		d, ok := domain.ParseDateBound(q.Start)
		if !ok {
			return r, domain.NewValidationError("start", "must be YYYY-MM-DD or RFC3339")
		}
		r.From = &d
	}
	if q.End != "" {
		d, ok := domain.ParseDateBound(q.End)
		if !ok {
			return r, domain.NewValidationError("end", "must be YYYY-MM-DD or RFC3339")
		}
		r.To = &d
	}
	return r, nil
}

// FromReservation converts a domain reservation
func FromReservation(r *domain.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		SessionID:      r.SessionID,
		Participants:   r.Participants,
		SpecialRequest: r.SpecialRequest,
		Status:         r.Status.String(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		CanceledAt:     r.CanceledAt,
	}
}

// FromReservations converts a slice of reservations
func FromReservations(rs []*domain.Reservation) []*ReservationResponse {
	out := make([]*ReservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromReservation(r))
	}
	return out
}
