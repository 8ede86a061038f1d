package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredMinutes(t *testing.T) {
	assert.Equal(t, 180, RequiredMinutes(3))
	assert.Equal(t, 0, RequiredMinutes(0))
}

func TestScheduledMinutesSumsDurations(t *testing.T) {
	sessions := []Session{
		session(Monday, 9*60, 10*60+30, "R", "S"),
		session(Wednesday, 14*60, 15*60, "R", "S"),
	}
	assert.Equal(t, 150, ScheduledMinutes(sessions))
	assert.Equal(t, 0, ScheduledMinutes(nil))
}

func TestRemainingMinutesFloorsAtZero(t *testing.T) {
	over := []Session{
		session(Monday, 8*60, 12*60, "R", "S"), // 240 minutes against a 60-minute budget
	}
	assert.Equal(t, 0, RemainingMinutes(1, over))
	assert.Equal(t, 120, RemainingMinutes(3, []Session{session(Monday, 9*60, 10*60, "R", "S")}))
	assert.Equal(t, 180, RemainingMinutes(3, nil))
}

func TestSubjectDemandDerivedFields(t *testing.T) {
	demand := SubjectDemand{SubjectID: "math", Units: 3, RoomType: RoomTypeLecture, ScheduledMinutes: 90}
	assert.Equal(t, 180, demand.RequiredMinutes())
	assert.Equal(t, 90, demand.RemainingMinutes())
	assert.False(t, demand.Excess())

	demand.ScheduledMinutes = 200
	assert.Equal(t, 0, demand.RemainingMinutes())
	assert.True(t, demand.Excess())
}
