package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func session(day Weekday, start, end int, roomID, sectionID string) Session {
	return Session{
		Day:       day,
		Interval:  Interval{Start: start, End: end},
		RoomID:    roomID,
		SectionID: sectionID,
		SubjectID: "subj",
	}
}

func TestConflictsSameRoomOverlap(t *testing.T) {
	// Monday 09:00-10:00 against existing 09:30-10:30 in the same room.
	candidate := session(Monday, 9*60, 10*60, "R", "S")
	existing := []Session{session(Monday, 9*60+30, 10*60+30, "R", "other-section")}
	assert.True(t, Conflicts(candidate, existing))
}

func TestConflictsTouchingBoundaryDoesNot(t *testing.T) {
	candidate := session(Monday, 9*60, 10*60, "R", "S")
	existing := []Session{session(Monday, 10*60, 11*60, "R", "S")}
	assert.False(t, Conflicts(candidate, existing))
}

func TestConflictsIdenticalIntervalsAlwaysConflict(t *testing.T) {
	candidate := session(Monday, 9*60, 10*60, "R", "S")
	existing := []Session{session(Monday, 9*60, 10*60, "R", "S")}
	assert.True(t, Conflicts(candidate, existing))
}

func TestConflictsSymmetric(t *testing.T) {
	a := session(Monday, 9*60, 10*60+30, "R", "S1")
	b := session(Monday, 10*60, 11*60, "R", "S2")
	assert.Equal(t, Conflicts(a, []Session{b}), Conflicts(b, []Session{a}))
}

func TestConflictsSectionDimension(t *testing.T) {
	candidate := session(Monday, 9*60, 10*60, "R1", "S")
	existing := []Session{session(Monday, 9*60+30, 10*60+30, "R2", "S")}
	assert.True(t, Conflicts(candidate, existing))
}

func TestConflictsDifferentDay(t *testing.T) {
	candidate := session(Monday, 9*60, 10*60, "R", "S")
	existing := []Session{session(Tuesday, 9*60, 10*60, "R", "S")}
	assert.False(t, Conflicts(candidate, existing))
}

func TestConflictsUnrelatedDimensions(t *testing.T) {
	candidate := session(Monday, 9*60, 10*60, "R1", "S1")
	existing := []Session{session(Monday, 9*60, 10*60, "R2", "S2")}
	assert.False(t, Conflicts(candidate, existing))
}

func TestInstructorConflictsIgnoresRoomAndSection(t *testing.T) {
	candidate := session(Monday, 9*60, 10*60, "R1", "S1")
	existing := []Session{session(Monday, 9*60+30, 10*60+30, "R2", "S2")}
	assert.True(t, InstructorConflicts(candidate, existing))
	assert.False(t, InstructorConflicts(candidate, []Session{session(Tuesday, 9*60, 10*60, "R2", "S2")}))
}
