package domain

import "time"

// SessionView is the resolved state of one session for calendar display and
// booking checks.
type SessionView struct {
	SessionID   string  `json:"sessionId"`
	ClassID     string  `json:"classId"`
	Date        string  `json:"date"`
	StartTime   string  `json:"time"`
	Capacity    int     `json:"capacity"`
	Price       float64 `json:"price"`
	Reserved    int     `json:"reserved"`
	Remaining   int     `json:"remainingCapacity"`
	IsFull      bool    `json:"isFull"`
	IsPast      bool    `json:"isPast"`
	IsClosed    bool    `json:"isClosed"`
	HasOverride bool    `json:"hasOverride"`
}

// Overbooked reports whether more participants hold spots than the session allows
func (v SessionView) Overbooked() bool {
	return v.Reserved > v.Capacity
}

// SessionWithReserved pairs a session with the participant count of its active reservations
type SessionWithReserved struct {
	Session  *ClassSession
	Reserved int
}

// ResolveSessionView merges template defaults with the session's own values.
// Remaining is clamped at zero; an overbooked session is reported, not corrected.
func ResolveSessionView(tpl *ClassTemplate, s *ClassSession, reserved int, today time.Time) SessionView {
	capacity := s.EffectiveCapacity(tpl)
	price := s.EffectivePrice(tpl)

	remaining := capacity - reserved
	if remaining < 0 {
		remaining = 0
	}

	return SessionView{
		SessionID:   s.ID,
		ClassID:     s.ClassID,
		Date:        s.Date.Format(DateLayout),
		StartTime:   s.StartTime,
		Capacity:    capacity,
		Price:       price,
		Reserved:    reserved,
		Remaining:   remaining,
		IsFull:      remaining == 0,
		IsPast:      s.Date.Before(today),
		IsClosed:    s.IsClosed,
		HasOverride: s.IsClosed || capacity != tpl.DefaultCapacity || price != tpl.DefaultPrice,
	}
}
