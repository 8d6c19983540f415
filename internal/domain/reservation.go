package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationPaid      ReservationStatus = "PAID"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCanceled  ReservationStatus = "CANCELED"
)

const (
	MaxParticipants      = 10
	MaxSpecialRequestLen = 500
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationPaid, ReservationCanceled},
	ReservationConfirmed: {ReservationPaid, ReservationCanceled, ReservationCompleted},
	ReservationPaid:      {ReservationCompleted, ReservationCanceled},
}

// IsValid checks if the status is a valid ReservationStatus
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationPaid, ReservationCompleted, ReservationCanceled:
		return true
	}
	return false
}

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// IsActive reports whether the reservation holds spots on its session
func (s ReservationStatus) IsActive() bool {
	return s != ReservationCanceled
}

// CanTransitionTo reports whether s may move to next
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation links a user to a class session
type Reservation struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	SessionID      string            `json:"session_id"`
	Participants   int               `json:"participants"`
	SpecialRequest string            `json:"special_request,omitempty"`
	Status         ReservationStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	CanceledAt     *time.Time        `json:"canceled_at,omitempty"`

	// Read from the session and template when loaded
	ClassID  string `json:"class_id,omitempty"`
	SchoolID string `json:"school_id,omitempty"`
}

// Validate checks the reservation request fields
func (r *Reservation) Validate() error {
	if r.UserID == "" {
		return NewValidationError("user_id", "is required")
	}
	if r.SessionID == "" {
		return NewValidationError("session_id", "is required")
	}
	if r.Participants < 1 || r.Participants > MaxParticipants {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidParticipants)
	}
	if utf8.RuneCountInString(r.SpecialRequest) > MaxSpecialRequestLen {
		return fmt.Errorf("%w: %w", ErrValidation, ErrSpecialRequestTooLong)
	}
	return nil
}

// TransitionTo moves the reservation to next if allowed
func (r *Reservation) TransitionTo(next ReservationStatus, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	r.Status = next
	r.UpdatedAt = now
	if next == ReservationCanceled {
		r.CanceledAt = &now
	}
	return nil
}

// ReservationFilter narrows manager reservation listings. Empty fields match all.
type ReservationFilter struct {
	SchoolID  string
	SessionID string
	Status    ReservationStatus
	Limit     int
	Offset    int
}
