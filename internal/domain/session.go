package domain

import (
	"regexp"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format of calendar dates
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of session start times
	TimeLayout = "15:04"
)

var startTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ClassSession is one bookable date/time instance of a template.
// Capacity and Price hold the values snapshotted from the template when the
// session was created, or an explicit override set later. A nil value falls
// back to the template default.
type ClassSession struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	Date      time.Time `json:"date"` // calendar date, midnight UTC
	StartTime string    `json:"start_time"`
	Capacity  *int      `json:"capacity,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	IsClosed  bool      `json:"is_closed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewClassSession snapshots the template defaults into a new session
func NewClassSession(id string, tpl *ClassTemplate, date time.Time, startTime string, now time.Time) *ClassSession {
	capacity := tpl.DefaultCapacity
	price := tpl.DefaultPrice
	return &ClassSession{
		ID:        id,
		ClassID:   tpl.ID,
		Date:      date,
		StartTime: startTime,
		Capacity:  &capacity,
		Price:     &price,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EffectiveCapacity returns the session capacity, or the template default when unset
func (s *ClassSession) EffectiveCapacity(tpl *ClassTemplate) int {
	if s.Capacity != nil {
		return *s.Capacity
	}
	return tpl.DefaultCapacity
}

// EffectivePrice returns the session price, or the template default when unset
func (s *ClassSession) EffectivePrice(tpl *ClassTemplate) float64 {
	if s.Price != nil {
		return *s.Price
	}
	return tpl.DefaultPrice
}

// SlotKey identifies a session within its template
func (s *ClassSession) SlotKey() string {
	return SlotKey(s.Date, s.StartTime)
}

// SlotKey builds the (date, startTime) identity used for de-duplication
func SlotKey(date time.Time, startTime string) string {
	return date.Format(DateLayout) + "T" + startTime
}

// Occurrence is a requested (date, time) pair. It only exists as generation input.
type Occurrence struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC. Surrounding
// whitespace is rejected.
func ParseDate(s string) (time.Time, bool) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ParseDateBound accepts YYYY-MM-DD or an RFC3339 timestamp and keeps only
// the calendar date as written.
func ParseDateBound(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if d, ok := ParseDate(s); ok {
		return d, true
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), true
}

// IsValidStartTime reports whether s is a 24-hour HH:MM time
func IsValidStartTime(s string) bool {
	return startTimePattern.MatchString(s)
}

// Today returns the current calendar date in loc, as midnight UTC so it
// compares directly with stored session dates.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DateRange bounds a calendar query. Nil bounds are open; both ends are inclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Validate rejects inverted ranges
func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return ErrInvalidDateSpan
	}
	return nil
}

// SessionOverride changes the per-slot settings of a session
type SessionOverride struct {
	Date      time.Time
	StartTime string
	Capacity  *int
	Price     *float64
	IsClosed  *bool
}

// Validate checks the override values
func (o *SessionOverride) Validate() error {
	if !IsValidStartTime(o.StartTime) {
		return NewValidationError("time", "must be HH:MM")
	}
	if o.Capacity != nil && *o.Capacity <= 0 {
		return NewValidationError("capacity", "must be a positive integer")
	}
	if o.Price != nil && *o.Price < 0 {
		return NewValidationError("price", "must not be negative")
	}
	return nil
}

// Apply copies the set override fields onto s
func (o *SessionOverride) Apply(s *ClassSession, now time.Time) {
	if o.Capacity != nil {
		c := *o.Capacity
		s.Capacity = &c
	}
	if o.Price != nil {
		p := *o.Price
		s.Price = &p
	}
	if o.IsClosed != nil {
		s.IsClosed = *o.IsClosed
	}
	s.UpdatedAt = now
}
