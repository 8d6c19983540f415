package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// Class errors
	ErrClassNotFound   = errors.New("class not found")
	ErrSchoolNotFound  = errors.New("school not found")
	ErrBeachNotFound   = errors.New("beach not found")
	ErrNoOccurrences   = errors.New("at least one occurrence is required")
	ErrClassNotActive  = errors.New("class is not active")
	ErrInvalidDateSpan = errors.New("start date must not be after end date")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
	ErrSessionPast     = errors.New("session has already taken place")

	// Reservation errors
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrNotEnoughSpots        = errors.New("not enough spots available")
	ErrInvalidTransition     = errors.New("invalid reservation status transition")
	ErrReservationNotOwned   = errors.New("reservation belongs to another user")
	ErrInvalidParticipants   = errors.New("participants must be between 1 and 10")
	ErrSpecialRequestTooLong = errors.New("special request must be at most 500 characters")
)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrForbidden is returned when the caller may not act on a resource
var ErrForbidden = errors.New("forbidden")
