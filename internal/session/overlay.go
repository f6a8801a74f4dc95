package session

import (
	"go.uber.org/zap"
)

// ActivityEdit is an in-memory correction to one activity of the finalized
// itinerary. Title and Description replace the existing values; every other
// field of the activity is preserved.
type ActivityEdit struct {
	Title       string
	Description string
}

// EditActivity applies an in-memory edit to the fetched finalized itinerary.
// The day is located by its day number, not its slice position. Edits never
// reach the planning service: a fresh fetch of the same trip will not
// reflect them.
//
// A missing day number or out-of-range activity index leaves the version
// untouched. No error is raised; the returned bool reports whether the edit
// was applied.
func (s *Session) EditActivity(dayNumber, activityIndex int, edit ActivityEdit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized == nil {
		return false
	}

	for i := range s.finalized.Itinerary.Days {
		day := &s.finalized.Itinerary.Days[i]
		if day.DayNumber != dayNumber {
			continue
		}
		if activityIndex < 0 || activityIndex >= len(day.Activities) {
			s.logger.Debug("edit skipped: activity index out of range",
				zap.Int("day_number", dayNumber),
				zap.Int("activity_index", activityIndex),
			)
			return false
		}
		day.Activities[activityIndex].Title = edit.Title
		day.Activities[activityIndex].Description = edit.Description
		return true
	}

	s.logger.Debug("edit skipped: day not found", zap.Int("day_number", dayNumber))
	return false
}
