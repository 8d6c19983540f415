package dto

import (
	"time"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
)

// OccurrenceRequest is one requested (date, time) pair. Its values are not
// bound strictly: malformed entries are reported as skips, not rejected.
type OccurrenceRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ClassBaseRequest holds the template fields shared by create requests
type ClassBaseRequest struct {
	Title          string   `json:"title" binding:"required,notblank,max=200"`
	Description    string   `json:"description,omitempty" binding:"max=1000"`
	Duration       int      `json:"duration" binding:"required,min=30,max=480"`
	Capacity       int      `json:"capacity" binding:"required,min=1,max=50"`
	Price          float64  `json:"price" binding:"min=0,max=10000"`
	Level          string   `json:"level,omitempty" binding:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Instructor     string   `json:"instructor,omitempty" binding:"max=100"`
	StudentDetails string   `json:"studentDetails,omitempty" binding:"max=2000"`
	Images         []string `json:"images,omitempty" binding:"omitempty,max=20,dive,url"`
}

// CreateRecurringClassRequest represents POST /classes/bulk. One request
// carries at most 100 occurrences, each written under its own savepoint.
type CreateRecurringClassRequest struct {
	BaseData    ClassBaseRequest    `json:"baseData"`
	SchoolID    string              `json:"schoolId" binding:"required"`
	BeachID     string              `json:"beachId" binding:"required"`
	Occurrences []OccurrenceRequest `json:"occurrences" binding:"required,max=100"`
}

// AppendOccurrencesRequest represents POST /classes/:id/sessions/bulk
type AppendOccurrencesRequest struct {
	Occurrences []OccurrenceRequest `json:"occurrences" binding:"required,max=100"`
}

// UpdateClassRequest represents PUT /classes/:id. Omitted fields are unchanged.
type UpdateClassRequest struct {
	Title          *string  `json:"title" binding:"omitempty,notblank,max=200"`
	Description    *string  `json:"description" binding:"omitempty,max=1000"`
	Duration       *int     `json:"duration" binding:"omitempty,min=30,max=480"`
	Capacity       *int     `json:"capacity" binding:"omitempty,min=1,max=50"`
	Price          *float64 `json:"price" binding:"omitempty,min=0,max=10000"`
	Level          *string  `json:"level" binding:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Instructor     *string  `json:"instructor" binding:"omitempty,max=100"`
	StudentDetails *string  `json:"studentDetails" binding:"omitempty,max=2000"`
	Images         []string `json:"images" binding:"omitempty,max=20,dive,url"`
	Status         *string  `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// ListClassesQuery represents GET /classes query parameters
type ListClassesQuery struct {
	SchoolID string `form:"schoolId"`
	BeachID  string `form:"beachId"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

// SlotOverrideRequest represents POST /classes/:id/availability
type SlotOverrideRequest struct {
	Date     string   `json:"date" binding:"required,calendardate"`
	Time     string   `json:"time" binding:"required,hhmm"`
	Price    *float64 `json:"price" binding:"omitempty,min=0,max=10000"`
	Capacity *int     `json:"capacity" binding:"omitempty,min=1,max=50"`
	IsClosed *bool    `json:"isClosed"`
}

// ClassResponse represents a class template in API responses
type ClassResponse struct {
	ID             string     `json:"id"`
	SchoolID       string     `json:"schoolId"`
	BeachID        string     `json:"beachId"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Duration       int        `json:"duration"`
	Capacity       int        `json:"capacity"`
	Price          float64    `json:"price"`
	Level          string     `json:"level"`
	Instructor     string     `json:"instructor,omitempty"`
	StudentDetails string     `json:"studentDetails,omitempty"`
	Images         []string   `json:"images"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
}

// SessionResponse represents a stored session in API responses
type SessionResponse struct {
	ID        string   `json:"id"`
	ClassID   string   `json:"classId"`
	Date      string   `json:"date"`
	StartTime string   `json:"time"`
	Capacity  *int     `json:"capacity,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	IsClosed  bool     `json:"isClosed"`
}

// GenerationResponse reports the outcome of a bulk create or append
type GenerationResponse struct {
	Template        *ClassResponse             `json:"template"`
	CreatedSessions []*SessionResponse         `json:"createdSessions"`
	CreatedCount    int                        `json:"createdCount"`
	Skipped         []domain.SkippedOccurrence `json:"skipped"`
}

// CalendarSlotResponse is one resolved session on the calendar
type CalendarSlotResponse struct {
	SessionID         string  `json:"sessionId"`
	ClassID           string  `json:"classId"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	Capacity          int     `json:"capacity"`
	Price             float64 `json:"price"`
	Reserved          int     `json:"reserved"`
	RemainingCapacity int     `json:"remainingCapacity"`
	Available         int     `json:"available"`
	IsFull            bool    `json:"isFull"`
	IsPast            bool    `json:"isPast"`
	IsClosed          bool    `json:"isClosed"`
	HasOverride       bool    `json:"hasOverride"`
}

// ToBaseData converts the request to domain base data
func (r *ClassBaseRequest) ToBaseData() domain.ClassBaseData {
	return domain.ClassBaseData{
		Title:          r.Title,
		Description:    r.Description,
		Duration:       r.Duration,
		Capacity:       r.Capacity,
		Price:          r.Price,
		Level:          domain.ClassLevel(r.Level),
		Instructor:     r.Instructor,
		StudentDetails: r.StudentDetails,
		Images:         r.Images,
	}
}

// ToOccurrences converts request occurrences to domain occurrences
func ToOccurrences(in []OccurrenceRequest) []domain.Occurrence {
	out := make([]domain.Occurrence, len(in))
	for i, o := range in {
		out[i] = domain.Occurrence{Date: o.Date, Time: o.Time}
	}
	return out
}

// ToClassUpdate converts the request to a domain update
func (r *UpdateClassRequest) ToClassUpdate() *domain.ClassUpdate {
	u := &domain.ClassUpdate{
		Title:          r.Title,
		Description:    r.Description,
		Duration:       r.Duration,
		Capacity:       r.Capacity,
		Price:          r.Price,
		Instructor:     r.Instructor,
		StudentDetails: r.StudentDetails,
		Images:         r.Images,
	}
	if r.Level != nil {
		level := domain.ClassLevel(*r.Level)
		u.Level = &level
	}
	if r.Status != nil {
		status := domain.ClassStatus(*r.Status)
		u.Status = &status
	}
	return u
}

// ToFilter converts the query to a domain filter
func (q *ListClassesQuery) ToFilter() domain.ClassFilter {
	return domain.ClassFilter{
		SchoolID: q.SchoolID,
		BeachID:  q.BeachID,
		Status:   domain.ClassStatus(q.Status),
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
}

// ToOverride converts the request to a domain override. Date and time are
// already checked by binding.
func (r *SlotOverrideRequest) ToOverride() *domain.SessionOverride {
	date, _ := domain.ParseDate(r.Date)
	return &domain.SessionOverride{
		Date:      date,
		StartTime: r.Time,
		Capacity:  r.Capacity,
		Price:     r.Price,
		IsClosed:  r.IsClosed,
	}
}

// FromClass converts a domain template to ClassResponse
func FromClass(t *domain.ClassTemplate) *ClassResponse {
	if t == nil {
		return nil
	}
	return &ClassResponse{
		ID:             t.ID,
		SchoolID:       t.SchoolID,
		BeachID:        t.BeachID,
		Title:          t.Title,
		Description:    t.Description,
		Duration:       t.Duration,
		Capacity:       t.DefaultCapacity,
		Price:          t.DefaultPrice,
		Level:          string(t.Level),
		Instructor:     t.Instructor,
		StudentDetails: t.StudentDetails,
		Images:         t.Images,
		Status:         t.Status.String(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		DeletedAt:      t.DeletedAt,
	}
}

// FromClasses converts a slice of templates
func FromClasses(ts []*domain.ClassTemplate) []*ClassResponse {
	out := make([]*ClassResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, FromClass(t))
	}
	return out
}

// FromSession converts a domain session to SessionResponse
func FromSession(s *domain.ClassSession) *SessionResponse {
	return &SessionResponse{
		ID:        s.ID,
		ClassID:   s.ClassID,
		Date:      s.Date.Format(domain.DateLayout),
		StartTime: s.StartTime,
		Capacity:  s.Capacity,
		Price:     s.Price,
		IsClosed:  s.IsClosed,
	}
}

// FromGeneration converts a generation result
func FromGeneration(r *domain.GenerationResult) *GenerationResponse {
	sessions := make([]*SessionResponse, 0, len(r.CreatedSessions))
	for _, s := range r.CreatedSessions {
		sessions = append(sessions, FromSession(s))
	}
	skipped := r.Skipped
	if skipped == nil {
		skipped = []domain.SkippedOccurrence{}
	}
	return &GenerationResponse{
		Template:        FromClass(r.Template),
		CreatedSessions: sessions,
		CreatedCount:    len(sessions),
		Skipped:         skipped,
	}
}

// FromSessionView converts a resolved session. Available mirrors the
// remaining capacity under the name calendar clients read.
func FromSessionView(v domain.SessionView) *CalendarSlotResponse {
	return &CalendarSlotResponse{
		SessionID:         v.SessionID,
		ClassID:           v.ClassID,
		Date:              v.Date,
		Time:              v.StartTime,
		Capacity:          v.Capacity,
		Price:             v.Price,
		Reserved:          v.Reserved,
		RemainingCapacity: v.Remaining,
		Available:         v.Remaining,
		IsFull:            v.IsFull,
		IsPast:            v.IsPast,
		IsClosed:          v.IsClosed,
		HasOverride:       v.HasOverride,
	}
}

// FromSessionViews converts a calendar
func FromSessionViews(vs []domain.SessionView) []*CalendarSlotResponse {
	out := make([]*CalendarSlotResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, FromSessionView(v))
	}
	return out
}
