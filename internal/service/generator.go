package service

import (
	"slices"
	"time"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
)

// plannedSession is an occurrence that passed the per-occurrence checks
type plannedSession struct {
	index     int
	date      time.Time
	startTime string
}

// planOccurrences applies the per-occurrence rules in input order. It never
// fails: every rejected occurrence is returned as a skip.
func planOccurrences(occurrences []domain.Occurrence, today time.Time) ([]plannedSession, []domain.SkippedOccurrence) {
	planned := make([]plannedSession, 0, len(occurrences))
	skipped := make([]domain.SkippedOccurrence, 0)
	seen := make(map[string]struct{}, len(occurrences))

	skip := func(i int, o domain.Occurrence, reason domain.SkipReason) {
		skipped = append(skipped, domain.SkippedOccurrence{Index: i, Date: o.Date, Time: o.Time, Reason: reason})
	}

	for i, o := range occurrences {
		date, ok := domain.ParseDate(o.Date)
		if !ok {
			skip(i, o, domain.SkipInvalidDate)
			continue
		}

		startTime := o.Time
		if !domain.IsValidStartTime(startTime) {
			skip(i, o, domain.SkipInvalidTime)
			continue
		}

		if date.Before(today) {
			skip(i, o, domain.SkipPastDate)
			continue
		}

		key := domain.SlotKey(date, startTime)
		if _, dup := seen[key]; dup {
			skip(i, o, domain.SkipDuplicateWithinRequest)
			continue
		}
		seen[key] = struct{}{}

		planned = append(planned, plannedSession{index: i, date: date, startTime: startTime})
	}

	return planned, skipped
}

// buildSessions materializes planned occurrences as sessions of tpl
func buildSessions(tpl *domain.ClassTemplate, planned []plannedSession, newID func() string, now time.Time) []*domain.ClassSession {
	sessions := make([]*domain.ClassSession, len(planned))
	for i, p := range planned {
		sessions[i] = domain.NewClassSession(newID(), tpl, p.date, p.startTime, now)
	}
	return sessions
}

// collectResult folds store outcomes into the result. Outcomes are in the
// order of planned; slots that already existed become duplicate skips.
func collectResult(tpl *domain.ClassTemplate, planned []plannedSession, outcomes []domain.SessionInsertOutcome, occurrences []domain.Occurrence, skipped []domain.SkippedOccurrence) *domain.GenerationResult {
	created := make([]*domain.ClassSession, 0, len(outcomes))
	for i, out := range outcomes {
		if out.Inserted {
			created = append(created, out.Session)
			continue
		}
		idx := planned[i].index
		skipped = append(skipped, domain.SkippedOccurrence{
			Index:  idx,
			Date:   occurrences[idx].Date,
			Time:   occurrences[idx].Time,
			Reason: domain.SkipDuplicate,
		})
	}

	slices.SortStableFunc(skipped, func(a, b domain.SkippedOccurrence) int {
		return a.Index - b.Index
	})

	return &domain.GenerationResult{
		Template:        tpl,
		CreatedSessions: created,
		Skipped:         skipped,
	}
}
