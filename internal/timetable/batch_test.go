package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchCatalog() Catalog {
	return Catalog{
		Rooms: map[string]Room{
			"R1": {ID: "R1", Type: RoomTypeLecture},
			"R2": {ID: "R2", Type: RoomTypeLaboratory},
		},
		Subjects: map[string]SubjectInfo{
			"math": {Units: 3, RoomType: RoomTypeLecture},
			"chem": {Units: 2, RoomType: RoomTypeLaboratory},
		},
		Sections: map[string]struct{}{
			"BSIT-1A": {},
		},
	}
}

func proposedSession(day Weekday, start, end int, roomID, subjectID string) Session {
	return Session{
		Day:       day,
		Interval:  Interval{Start: start, End: end},
		RoomID:    roomID,
		SectionID: "BSIT-1A",
		SubjectID: subjectID,
	}
}

func TestValidateBatchAccepts(t *testing.T) {
	proposed := []Session{
		proposedSession(Monday, 9*60, 10*60+30, "R1", "math"),
		proposedSession(Wednesday, 9*60, 10*60+30, "R1", "math"),
		proposedSession(Friday, 13*60, 15*60, "R2", "chem"),
	}
	err := ValidateBatch(proposed, nil, nil, batchCatalog())
	assert.Nil(t, err)
}

func TestValidateBatchRejectsUnknownDay(t *testing.T) {
	proposed := []Session{
		{Day: "FUNDAY", Interval: Interval{Start: 9 * 60, End: 10 * 60}, RoomID: "R1", SectionID: "BSIT-1A", SubjectID: "math"},
	}
	err := ValidateBatch(proposed, nil, nil, batchCatalog())
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeInvalidDay, err.Code)
	assert.Equal(t, 0, err.Index)
}

func TestValidateBatchRejectsOffGridTimes(t *testing.T) {
	proposed := []Session{
		proposedSession(Monday, 9*60+10, 10*60, "R1", "math"),
	}
	err := ValidateBatch(proposed, nil, nil, batchCatalog())
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeInvalidTime, err.Code)
}

func TestValidateBatchRejectsInternalOverlapCitingBothIndices(t *testing.T) {
	// Two proposed sessions for the same section overlapping on Monday.
	proposed := []Session{
		proposedSession(Monday, 9*60, 10*60+30, "R1", "math"),
		proposedSession(Monday, 10*60, 11*60, "R2", "chem"),
	}
	err := ValidateBatch(proposed, nil, nil, batchCatalog())
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeInternalConflict, err.Code)
	assert.Equal(t, 0, err.Index)
	assert.Equal(t, 1, err.OtherIndex)
}

func TestValidateBatchAllowsTouchingSessions(t *testing.T) {
	proposed := []Session{
		proposedSession(Monday, 9*60, 10*60, "R1", "math"),
		proposedSession(Monday, 10*60, 11*60, "R1", "math"),
	}
	err := ValidateBatch(proposed, nil, nil, batchCatalog())
	assert.Nil(t, err)
}

func TestValidateBatchRejectsUnknownForeignKeys(t *testing.T) {
	catalog := batchCatalog()

	err := ValidateBatch([]Session{proposedSession(Monday, 9*60, 10*60, "R9", "math")}, nil, nil, catalog)
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeRoomNotFound, err.Code)

	err = ValidateBatch([]Session{proposedSession(Monday, 9*60, 10*60, "R1", "latin")}, nil, nil, catalog)
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeSubjectNotFound, err.Code)

	ghost := proposedSession(Monday, 9*60, 10*60, "R1", "math")
	ghost.SectionID = "GHOST"
	err = ValidateBatch([]Session{ghost}, nil, nil, catalog)
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeSectionNotFound, err.Code)
}

func TestValidateBatchRejectsDurationOverBudget(t *testing.T) {
	// chem carries 2 units = 120 minutes; 90 already on the books.
	scheduled := map[string]int{"chem": 90}
	proposed := []Session{proposedSession(Monday, 9*60, 10*60, "R2", "chem")}
	err := ValidateBatch(proposed, nil, scheduled, batchCatalog())
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeDurationExceeded, err.Code)
	assert.Contains(t, err.Message, "30 minutes remaining")
}

func TestValidateBatchDurationAccumulatesWithinBatch(t *testing.T) {
	// Each session alone fits the 120-minute budget; together they do not.
	proposed := []Session{
		proposedSession(Monday, 9*60, 10*60+30, "R2", "chem"),
		proposedSession(Tuesday, 9*60, 10*60+30, "R2", "chem"),
	}
	err := ValidateBatch(proposed, nil, nil, batchCatalog())
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeDurationExceeded, err.Code)
	assert.Equal(t, 1, err.Index)
}

func TestValidateBatchRejectsPersistedConflict(t *testing.T) {
	persisted := []Session{
		{Day: Monday, Interval: Interval{Start: 9*60 + 30, End: 10*60 + 30}, RoomID: "R1", SectionID: "other", SubjectID: "math"},
	}
	proposed := []Session{proposedSession(Monday, 9*60, 10*60, "R1", "math")}
	err := ValidateBatch(proposed, persisted, nil, batchCatalog())
	require.NotNil(t, err)
	assert.Equal(t, BatchCodePersistedConflict, err.Code)
	assert.Contains(t, err.Message, "R1")
}

func TestValidateBatchAllOrNothingOrdering(t *testing.T) {
	// A structural failure on a later session aborts before the conflict
	// scan ever sees the earlier ones.
	proposed := []Session{
		proposedSession(Monday, 9*60, 10*60, "R1", "math"),
		proposedSession(Monday, 6*60, 7*60, "R1", "math"),
	}
	err := ValidateBatch(proposed, nil, nil, batchCatalog())
	require.NotNil(t, err)
	assert.Equal(t, BatchCodeInvalidTime, err.Code)
	assert.Equal(t, 1, err.Index)
}
