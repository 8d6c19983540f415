package domain

import "time"

const (
	TopicClassEvents       = "class-events"
	TopicReservationEvents = "reservation-events"

	AggregateClass       = "class"
	AggregateSession     = "session"
	AggregateReservation = "reservation"
)

// EventType names a domain event published through the outbox
type EventType string

const (
	EventClassCreated             EventType = "class.created"
	EventClassSessionsGenerated   EventType = "class.sessions_generated"
	EventSessionOverrideUpdated   EventType = "session.override_updated"
	EventReservationCreated       EventType = "reservation.created"
	EventReservationStatusChanged EventType = "reservation.status_changed"
)

// ClassEvent is the payload of class.* events
type ClassEvent struct {
	EventType  EventType `json:"event_type"`
	ClassID    string    `json:"class_id"`
	SchoolID   string    `json:"school_id"`
	BeachID    string    `json:"beach_id"`
	Title      string    `json:"title"`
	SessionIDs []string  `json:"session_ids,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SessionEvent is the payload of session.* events
type SessionEvent struct {
	EventType  EventType `json:"event_type"`
	SessionID  string    `json:"session_id"`
	ClassID    string    `json:"class_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	Capacity   *int      `json:"capacity,omitempty"`
	Price      *float64  `json:"price,omitempty"`
	IsClosed   bool      `json:"is_closed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ReservationEvent is the payload of reservation.* events
type ReservationEvent struct {
	EventType      EventType         `json:"event_type"`
	ReservationID  string            `json:"reservation_id"`
	UserID         string            `json:"user_id"`
	SessionID      string            `json:"session_id"`
	Participants   int               `json:"participants"`
	Status         ReservationStatus `json:"status"`
	PreviousStatus ReservationStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// ClassOutboxEvent builds the outbox message for a class event
func ClassOutboxEvent(eventType EventType, tpl *ClassTemplate, sessionIDs []string, now time.Time) (*OutboxMessage, error) {
	return NewOutboxMessage(AggregateClass, tpl.ID, tpl.ID, string(eventType), TopicClassEvents, ClassEvent{
		EventType:  eventType,
		ClassID:    tpl.ID,
		SchoolID:   tpl.SchoolID,
		BeachID:    tpl.BeachID,
		Title:      tpl.Title,
		SessionIDs: sessionIDs,
		OccurredAt: now,
	}, now)
}

// SessionsGeneratedEvent builds the class.sessions_generated message for the
// inserted outcomes, stamped with the sessions' creation time. It returns nil
// when nothing was inserted.
func SessionsGeneratedEvent(tpl *ClassTemplate, outcomes []SessionInsertOutcome) (*OutboxMessage, error) {
	var (
		ids []string
		at  time.Time
	)
	for _, o := range outcomes {
		if !o.Inserted {
			continue
		}
		if len(ids) == 0 {
			at = o.Session.CreatedAt
		}
		ids = append(ids, o.Session.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ClassOutboxEvent(EventClassSessionsGenerated, tpl, ids, at)
}

// SessionOutboxEvent builds the outbox message for a session override.
// Keyed by class so consumers see a class's events in order.
func SessionOutboxEvent(s *ClassSession, now time.Time) (*OutboxMessage, error) {
	return NewOutboxMessage(AggregateSession, s.ID, s.ClassID, string(EventSessionOverrideUpdated), TopicClassEvents, SessionEvent{
		EventType:  EventSessionOverrideUpdated,
		SessionID:  s.ID,
		ClassID:    s.ClassID,
		Date:       s.Date.Format(DateLayout),
		StartTime:  s.StartTime,
		Capacity:   s.Capacity,
		Price:      s.Price,
		IsClosed:   s.IsClosed,
		OccurredAt: now,
	}, now)
}

// ReservationOutboxEvent builds the outbox message for a reservation event
func ReservationOutboxEvent(eventType EventType, r *Reservation, previous ReservationStatus, now time.Time) (*OutboxMessage, error) {
	return NewOutboxMessage(AggregateReservation, r.ID, r.SessionID, string(eventType), TopicReservationEvents, ReservationEvent{
		EventType:      eventType,
		ReservationID:  r.ID,
		UserID:         r.UserID,
		SessionID:      r.SessionID,
		Participants:   r.Participants,
		Status:         r.Status,
		PreviousStatus: previous,
		OccurredAt:     now,
	}, now)
}
