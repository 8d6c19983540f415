package domain

// SkipReason explains why an occurrence did not produce a session
type SkipReason string

const (
	SkipInvalidDate            SkipReason = "invalid date"
	SkipInvalidTime            SkipReason = "invalid time"
	SkipPastDate               SkipReason = "past date"
	SkipDuplicateWithinRequest SkipReason = "duplicate-within-request"
	// SkipDuplicate means the slot already exists for the template
	SkipDuplicate SkipReason = "duplicate"
)

// SkippedOccurrence records an occurrence that was not materialized.
// Index is the position of the occurrence in the request.
type SkippedOccurrence struct {
	Index  int        `json:"index"`
	Date   string     `json:"date"`
	Time   string     `json:"time"`
	Reason SkipReason `json:"reason"`
}

// GenerationResult is the complete accounting of a generation request
type GenerationResult struct {
	Template        *ClassTemplate
	CreatedSessions []*ClassSession
	Skipped         []SkippedOccurrence
}

// SessionInsertOutcome is what the store reports for one candidate session:
// either it was inserted or its slot already existed.
type SessionInsertOutcome struct {
	Session  *ClassSession
	Inserted bool
}
