package domain

import (
	"strings"
	"time"
)

// ClassStatus represents the lifecycle state of a class template
type ClassStatus string

const (
	ClassStatusActive   ClassStatus = "ACTIVE"
	ClassStatusInactive ClassStatus = "INACTIVE"
	ClassStatusArchived ClassStatus = "ARCHIVED"
)

// IsValid checks if the status is a valid ClassStatus
func (s ClassStatus) IsValid() bool {
	switch s {
	case ClassStatusActive, ClassStatusInactive, ClassStatusArchived:
		return true
	}
	return false
}

// String returns the string representation of ClassStatus
func (s ClassStatus) String() string {
	return string(s)
}

// ClassLevel is the skill level a class targets
type ClassLevel string

const (
	LevelBeginner     ClassLevel = "BEGINNER"
	LevelIntermediate ClassLevel = "INTERMEDIATE"
	LevelAdvanced     ClassLevel = "ADVANCED"
)

// IsValid checks if the level is a valid ClassLevel
func (l ClassLevel) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// ClassTemplate is the reusable class product a school sells. Sessions are
// generated from it and snapshot its defaults at creation time.
type ClassTemplate struct {
	ID              string      `json:"id"`
	SchoolID        string      `json:"school_id"`
	BeachID         string      `json:"beach_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Duration        int         `json:"duration"` // minutes
	DefaultCapacity int         `json:"default_capacity"`
	DefaultPrice    float64     `json:"default_price"`
	Level           ClassLevel  `json:"level"`
	Instructor      string      `json:"instructor,omitempty"`
	StudentDetails  string      `json:"student_details,omitempty"`
	Images          []string    `json:"images"`
	Status          ClassStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	DeletedAt       *time.Time  `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the template was soft-deleted
func (t *ClassTemplate) IsDeleted() bool {
	return t.DeletedAt != nil
}

// IsBookable reports whether new reservations may be taken
func (t *ClassTemplate) IsBookable() bool {
	return !t.IsDeleted() && t.Status == ClassStatusActive
}

// Archive soft-deletes the template
func (t *ClassTemplate) Archive(now time.Time) {
	t.Status = ClassStatusArchived
	t.DeletedAt = &now
	t.UpdatedAt = now
}

// ClassBaseData is the template payload supplied when creating a class
type ClassBaseData struct {
	Title          string
	Description    string
	Duration       int
	Capacity       int
	Price          float64
	Level          ClassLevel
	Instructor     string
	StudentDetails string
	Images         []string
}

// Validate checks the basic shape of the payload
func (b *ClassBaseData) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return NewValidationError("title", "is required")
	}
	if b.Duration <= 0 {
		return NewValidationError("duration", "must be a positive number of minutes")
	}
	if b.Capacity <= 0 {
		return NewValidationError("capacity", "must be a positive integer")
	}
	if b.Price < 0 {
		return NewValidationError("price", "must not be negative")
	}
	if b.Level != "" && !b.Level.IsValid() {
		return NewValidationError("level", "must be one of BEGINNER, INTERMEDIATE, ADVANCED")
	}
	return nil
}

// NewClassTemplate builds an ACTIVE template from base data
func NewClassTemplate(id, schoolID, beachID string, base ClassBaseData, now time.Time) *ClassTemplate {
	level := base.Level
	if level == "" {
		level = LevelBeginner
	}
	images := base.Images
	if images == nil {
		images = []string{}
	}

	return &ClassTemplate{
		ID:              id,
		SchoolID:        schoolID,
		BeachID:         beachID,
		Title:           strings.TrimSpace(base.Title),
		Description:     base.Description,
		Duration:        base.Duration,
		DefaultCapacity: base.Capacity,
		DefaultPrice:    base.Price,
		Level:           level,
		Instructor:      base.Instructor,
		StudentDetails:  base.StudentDetails,
		Images:          images,
		Status:          ClassStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ClassFilter narrows template listings
type ClassFilter struct {
	SchoolID string
	BeachID  string
	Status   ClassStatus
	Limit    int
	Offset   int
}

// ClassUpdate is a partial template update. Nil fields are left unchanged.
// Existing sessions keep their snapshotted values.
type ClassUpdate struct {
	Title          *string
	Description    *string
	Duration       *int
	Capacity       *int
	Price          *float64
	Level          *ClassLevel
	Instructor     *string
	StudentDetails *string
	Images         []string
	Status         *ClassStatus
}

// Apply validates u and copies the set fields onto t
func (u *ClassUpdate) Apply(t *ClassTemplate, now time.Time) error {
	if u.Title != nil {
		if strings.TrimSpace(*u.Title) == "" {
			return NewValidationError("title", "is required")
		}
		t.Title = strings.TrimSpace(*u.Title)
	}
	if u.Duration != nil {
		if *u.Duration <= 0 {
			return NewValidationError("duration", "must be a positive number of minutes")
		}
		t.Duration = *u.Duration
	}
	if u.Capacity != nil {
		if *u.Capacity <= 0 {
			return NewValidationError("capacity", "must be a positive integer")
		}
		t.DefaultCapacity = *u.Capacity
	}
	if u.Price != nil {
		if *u.Price < 0 {
			return NewValidationError("price", "must not be negative")
		}
		t.DefaultPrice = *u.Price
	}
	if u.Level != nil {
		if !u.Level.IsValid() {
			return NewValidationError("level", "must be one of BEGINNER, INTERMEDIATE, ADVANCED")
		}
		t.Level = *u.Level
	}
	if u.Status != nil {
		// Archiving goes through Archive so deleted_at is set with it.
		if *u.Status != ClassStatusActive && *u.Status != ClassStatusInactive {
			return NewValidationError("status", "must be ACTIVE or INACTIVE")
		}
		t.Status = *u.Status
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Instructor != nil {
		t.Instructor = *u.Instructor
	}
	if u.StudentDetails != nil {
		t.StudentDetails = *u.StudentDetails
	}
	if u.Images != nil {
		t.Images = u.Images
	}
	t.UpdatedAt = now
	return nil
}
