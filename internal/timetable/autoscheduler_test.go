package timetable

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededOpts(seed int64) AutoScheduleOptions {
	return AutoScheduleOptions{Rand: rand.New(rand.NewSource(seed))}
}

func TestAutoScheduleFillsDemand(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "math", Units: 3, RoomType: RoomTypeLecture},
		{SubjectID: "chem-lab", Units: 2, RoomType: RoomTypeLaboratory},
	}
	rooms := []Room{
		{ID: "LEC-1", Type: RoomTypeLecture},
		{ID: "LAB-1", Type: RoomTypeLaboratory},
	}

	result, err := AutoSchedule(context.Background(), demands, nil, rooms, "BSIT-1A", seededOpts(42))
	require.NoError(t, err)

	require.Len(t, result.Reports, 2)
	for _, report := range result.Reports {
		assert.Empty(t, report.FailureReason, report.SubjectID)
		assert.Zero(t, report.RemainingMinutes, report.SubjectID)
	}
	assert.Equal(t, 180+120, ScheduledMinutes(result.Created))

	for _, created := range result.Created {
		assert.GreaterOrEqual(t, created.Interval.Start, DayStart)
		assert.LessOrEqual(t, created.Interval.End, DayEnd)
		assert.Zero(t, (created.Interval.Start-DayStart)%DefaultStepMinutes)
		assert.Equal(t, "BSIT-1A", created.SectionID)
	}
}

func TestAutoScheduleRespectsRoomTypes(t *testing.T) {
	demands := []SubjectDemand{{SubjectID: "bio-lab", Units: 1, RoomType: RoomTypeLaboratory}}
	rooms := []Room{
		{ID: "LEC-1", Type: RoomTypeLecture},
		{ID: "LAB-7", Type: RoomTypeLaboratory},
	}

	result, err := AutoSchedule(context.Background(), demands, nil, rooms, "S", seededOpts(7))
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "LAB-7", result.Created[0].RoomID)
}

func TestAutoScheduleNoCompatibleRooms(t *testing.T) {
	demands := []SubjectDemand{{SubjectID: "chem-lab", Units: 1, RoomType: RoomTypeLaboratory}}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}}

	result, err := AutoSchedule(context.Background(), demands, nil, rooms, "S", seededOpts(1))
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "No rooms for type LABORATORY", result.Reports[0].FailureReason)
	assert.Equal(t, 60, result.Reports[0].RemainingMinutes)
	assert.Zero(t, result.Reports[0].CreatedSessions)
}

func TestAutoScheduleSkipsSatisfiedSubjects(t *testing.T) {
	demands := []SubjectDemand{{SubjectID: "math", Units: 1, RoomType: RoomTypeLecture, ScheduledMinutes: 60}}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}}

	result, err := AutoSchedule(context.Background(), demands, nil, rooms, "S", seededOpts(3))
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	require.Len(t, result.Reports, 1)
	assert.Empty(t, result.Reports[0].FailureReason)
	assert.Equal(t, 60, result.Reports[0].ScheduledBefore)
	assert.Equal(t, 60, result.Reports[0].ScheduledAfter)
}

func TestAutoScheduleLaterSubjectsRespectEarlierPlacements(t *testing.T) {
	// One room, one day, tight window: accepted sessions must never
	// overlap each other even though they were placed in one run.
	demands := []SubjectDemand{
		{SubjectID: "s1", Units: 2, RoomType: RoomTypeLecture},
		{SubjectID: "s2", Units: 2, RoomType: RoomTypeLecture},
		{SubjectID: "s3", Units: 2, RoomType: RoomTypeLecture},
	}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}}
	opts := seededOpts(99)
	opts.Days = []Weekday{Monday}

	result, err := AutoSchedule(context.Background(), demands, nil, rooms, "S", opts)
	require.NoError(t, err)

	for i, a := range result.Created {
		others := append(append([]Session{}, result.Created[:i]...), result.Created[i+1:]...)
		assert.False(t, Conflicts(a, others), "created sessions must be mutually conflict-free")
	}
}

func TestAutoScheduleExistingSessionsAreRespected(t *testing.T) {
	existing := []Session{session(Monday, DayStart, DayEnd-60, "LEC-1", "S")}
	demands := []SubjectDemand{{SubjectID: "math", Units: 1, RoomType: RoomTypeLecture}}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}}
	opts := seededOpts(5)
	opts.Days = []Weekday{Monday}

	result, err := AutoSchedule(context.Background(), demands, existing, rooms, "S", opts)
	require.NoError(t, err)
	for _, created := range result.Created {
		assert.False(t, Conflicts(created, existing))
	}
}

func TestAutoScheduleExhaustedAttemptsReportShortfall(t *testing.T) {
	// The single Monday is almost fully booked: only 30 free minutes
	// remain, so no 60-minute block can ever land.
	existing := []Session{session(Monday, DayStart, DayEnd-30, "LEC-1", "S")}
	demands := []SubjectDemand{{SubjectID: "math", Units: 2, RoomType: RoomTypeLecture}}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}}
	opts := seededOpts(11)
	opts.Days = []Weekday{Monday}
	opts.AttemptsPerSession = 50

	result, err := AutoSchedule(context.Background(), demands, existing, rooms, "S", opts)
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	require.Len(t, result.Reports, 1)
	report := result.Reports[0]
	assert.Equal(t, 120, report.RemainingMinutes)
	assert.Contains(t, report.FailureReason, "120 minutes")
}

func TestAutoScheduleStopsSubjectAfterFailedBlock(t *testing.T) {
	// 90 free minutes on the only day. Demand splits into [120, 120]; the
	// first block cannot fit, so the second is not attempted even though a
	// smaller block might have.
	existing := []Session{session(Monday, DayStart+90, DayEnd, "LEC-1", "S")}
	demands := []SubjectDemand{{SubjectID: "math", Units: 4, RoomType: RoomTypeLecture}}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}}
	opts := seededOpts(13)
	opts.Days = []Weekday{Monday}
	opts.AttemptsPerSession = 50

	result, err := AutoSchedule(context.Background(), demands, existing, rooms, "S", opts)
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Equal(t, 240, result.Reports[0].RemainingMinutes)
}

func TestAutoScheduleDeterministicWithSeed(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "math", Units: 3, RoomType: RoomTypeLecture},
		{SubjectID: "eng", Units: 2, RoomType: RoomTypeLecture},
	}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}, {ID: "LEC-2", Type: RoomTypeLecture}}

	first, err := AutoSchedule(context.Background(), demands, nil, rooms, "S", seededOpts(1234))
	require.NoError(t, err)
	second, err := AutoSchedule(context.Background(), demands, nil, rooms, "S", seededOpts(1234))
	require.NoError(t, err)

	assert.Equal(t, first.Created, second.Created)
	assert.Equal(t, first.Reports, second.Reports)
}

func TestAutoScheduleHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	demands := []SubjectDemand{{SubjectID: "math", Units: 1, RoomType: RoomTypeLecture}}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}}

	result, err := AutoSchedule(ctx, demands, nil, rooms, "S", seededOpts(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Created)
}

func TestAutoScheduleDoesNotMutateExisting(t *testing.T) {
	existing := []Session{session(Monday, 9*60, 10*60, "LEC-1", "S")}
	snapshot := append([]Session{}, existing...)

	demands := []SubjectDemand{{SubjectID: "math", Units: 2, RoomType: RoomTypeLecture}}
	rooms := []Room{{ID: "LEC-1", Type: RoomTypeLecture}}

	_, err := AutoSchedule(context.Background(), demands, existing, rooms, "S", seededOpts(21))
	require.NoError(t, err)
	assert.Equal(t, snapshot, existing)
}
