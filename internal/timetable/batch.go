package timetable

import (
	"fmt"
	"sort"
)

// Batch validation error codes.
const (
	BatchCodeInvalidDay        = "INVALID_DAY"
	BatchCodeInvalidTime       = "INVALID_TIME"
	BatchCodeInternalConflict  = "INTERNAL_CONFLICT"
	BatchCodeRoomNotFound      = "ROOM_NOT_FOUND"
	BatchCodeSectionNotFound   = "SECTION_NOT_FOUND"
	BatchCodeSubjectNotFound   = "SUBJECT_NOT_FOUND"
	BatchCodeDurationExceeded  = "DURATION_EXCEEDED"
	BatchCodePersistedConflict = "PERSISTED_CONFLICT"
)

// BatchError pinpoints the first violation in a proposed batch. Index is
// the offending session's position; OtherIndex is set (>= 0) only for
// pairwise internal conflicts.
type BatchError struct {
	Code       string
	Index      int
	OtherIndex int
	Message    string
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s at session %d: %s", e.Code, e.Index, e.Message)
}

// SubjectInfo carries the catalog facts the validator needs per subject.
type SubjectInfo struct {
	Units    int
	RoomType RoomType
}

// Catalog is the in-memory snapshot of external catalogs the validator
// checks foreign keys against.
type Catalog struct {
	Rooms    map[string]Room
	Subjects map[string]SubjectInfo
	Sections map[string]struct{}
}

// ValidateBatch validates a caller-submitted batch of proposed sessions.
// persisted must already be scoped to the relevant academic term and
// restricted to sessions sharing a room or the section with the batch.
// scheduled maps subjectID to minutes already committed for the section.
//
// Acceptance is all-or-nothing: the first violation aborts the batch and
// nothing is reported partial. A nil return means every session passed
// every step.
func ValidateBatch(proposed []Session, persisted []Session, scheduled map[string]int, catalog Catalog) *BatchError {
	for i, session := range proposed {
		if !session.Day.Valid() {
			return &BatchError{
				Code:       BatchCodeInvalidDay,
				Index:      i,
				OtherIndex: -1,
				Message:    fmt.Sprintf("day %q is not a recognised weekday", session.Day),
			}
		}
		if !IsValidRange(session.Interval.Start, session.Interval.End) {
			return &BatchError{
				Code:       BatchCodeInvalidTime,
				Index:      i,
				OtherIndex: -1,
				Message: fmt.Sprintf("range %s-%s must sit on the %d-minute grid inside %s-%s with end after start",
					FormatClock(session.Interval.Start), FormatClock(session.Interval.End),
					GridMinutes, FormatClock(DayStart), FormatClock(DayEnd)),
			}
		}
	}

	for i := 0; i < len(proposed); i++ {
		for j := i + 1; j < len(proposed); j++ {
			a, b := proposed[i], proposed[j]
			if a.Day != b.Day {
				continue
			}
			if a.RoomID != b.RoomID && a.SectionID != b.SectionID {
				continue
			}
			if a.Interval.Overlaps(b.Interval) {
				return &BatchError{
					Code:       BatchCodeInternalConflict,
					Index:      i,
					OtherIndex: j,
					Message: fmt.Sprintf("sessions %d (%s %s-%s) and %d (%s-%s) overlap within the batch",
						i, a.Day, FormatClock(a.Interval.Start), FormatClock(a.Interval.End),
						j, FormatClock(b.Interval.Start), FormatClock(b.Interval.End)),
				}
			}
		}
	}

	for i, session := range proposed {
		if _, ok := catalog.Rooms[session.RoomID]; !ok {
			return &BatchError{
				Code:       BatchCodeRoomNotFound,
				Index:      i,
				OtherIndex: -1,
				Message:    fmt.Sprintf("room %q not found", session.RoomID),
			}
		}
		if _, ok := catalog.Sections[session.SectionID]; !ok {
			return &BatchError{
				Code:       BatchCodeSectionNotFound,
				Index:      i,
				OtherIndex: -1,
				Message:    fmt.Sprintf("section %q not found", session.SectionID),
			}
		}
		if _, ok := catalog.Subjects[session.SubjectID]; !ok {
			return &BatchError{
				Code:       BatchCodeSubjectNotFound,
				Index:      i,
				OtherIndex: -1,
				Message:    fmt.Sprintf("subject %q not found", session.SubjectID),
			}
		}
	}

	// Accumulate durations as sessions pass so the whole batch together
	// stays inside each subject's unit budget.
	used := make(map[string]int, len(scheduled))
	for subjectID, minutes := range scheduled {
		used[subjectID] = minutes
	}
	for i, session := range proposed {
		info := catalog.Subjects[session.SubjectID]
		required := RequiredMinutes(info.Units)
		duration := session.Interval.Duration()
		if duration+used[session.SubjectID] > required {
			remaining := required - used[session.SubjectID]
			if remaining < 0 {
				remaining = 0
			}
			return &BatchError{
				Code:       BatchCodeDurationExceeded,
				Index:      i,
				OtherIndex: -1,
				Message: fmt.Sprintf("subject %q has %d minutes remaining of its %d-minute budget, session needs %d",
					session.SubjectID, remaining, required, duration),
			}
		}
		used[session.SubjectID] += duration
	}

	byStart := make([]Session, len(persisted))
	copy(byStart, persisted)
	sort.Slice(byStart, func(a, b int) bool {
		return byStart[a].Interval.Start < byStart[b].Interval.Start
	})
	for i, session := range proposed {
		for _, other := range byStart {
			if other.Day != session.Day {
				continue
			}
			if other.RoomID != session.RoomID && other.SectionID != session.SectionID {
				continue
			}
			if session.Interval.Overlaps(other.Interval) {
				return &BatchError{
					Code:       BatchCodePersistedConflict,
					Index:      i,
					OtherIndex: -1,
					Message: fmt.Sprintf("session %d (%s %s-%s) overlaps existing booking in room %q for section %q (%s-%s)",
						i, session.Day, FormatClock(session.Interval.Start), FormatClock(session.Interval.End),
						other.RoomID, other.SectionID,
						FormatClock(other.Interval.Start), FormatClock(other.Interval.End)),
				}
			}
		}
	}

	return nil
}
