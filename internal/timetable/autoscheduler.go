package timetable

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// DefaultAttemptsPerSession bounds the randomized search per block.
const DefaultAttemptsPerSession = 200

// RoomPicker selects rooms compatible with a subject.
type RoomPicker func(room Room, demand SubjectDemand) bool

// MatchRoomType is the default picker: the room kind must equal the
// subject's requirement.
func MatchRoomType(room Room, demand SubjectDemand) bool {
	return room.Type == demand.RoomType
}

// AutoScheduleOptions tunes the randomized bulk search. Zero values fall
// back to the documented defaults; Rand must be injected for reproducible
// runs under test.
type AutoScheduleOptions struct {
	StepMinutes        int
	AttemptsPerSession int
	Days               []Weekday
	RoomPicker         RoomPicker
	Rand               *rand.Rand
}

func (o AutoScheduleOptions) withDefaults() AutoScheduleOptions {
	if o.StepMinutes <= 0 {
		o.StepMinutes = DefaultStepMinutes
	}
	if o.AttemptsPerSession <= 0 {
		o.AttemptsPerSession = DefaultAttemptsPerSession
	}
	if len(o.Days) == 0 {
		o.Days = Weekdays
	}
	if o.RoomPicker == nil {
		o.RoomPicker = MatchRoomType
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// SubjectReport records the per-subject outcome of one bulk run.
// FailureReason is a soft result, not an error: it always carries the
// unmet minutes so the caller can retry with more rooms, more days or a
// larger attempt budget.
type SubjectReport struct {
	SubjectID        string
	ScheduledBefore  int
	ScheduledAfter   int
	CreatedSessions  int
	RemainingMinutes int
	FailureReason    string
}

// AutoScheduleResult is the proposal set of one bulk run.
type AutoScheduleResult struct {
	Created []Session
	Reports []SubjectReport
}

// AutoSchedule fills a section's unscheduled demand in one pass. Subjects
// are processed independently in catalog order: each subject's remaining
// minutes are split into blocks, and every block is placed by uniformly
// sampling a day, a step-aligned start and a compatible room until a
// candidate clears the conflict test or the attempt budget runs out.
// Accepted sessions immediately join the busy set, so later subjects
// respect earlier placements within the same run.
//
// The search is bounded and non-exhaustive: it never backtracks across
// subjects or revisits earlier placements, so it can report failure even
// when a feasible arrangement exists. Cancellation is honoured between
// subjects; the partial result built so far is returned with ctx.Err().
func AutoSchedule(ctx context.Context, demands []SubjectDemand, existing []Session, rooms []Room, sectionID string, opts AutoScheduleOptions) (AutoScheduleResult, error) {
	opts = opts.withDefaults()

	busy := make([]Session, len(existing))
	copy(busy, existing)

	result := AutoScheduleResult{
		Created: make([]Session, 0),
		Reports: make([]SubjectReport, 0, len(demands)),
	}

	for _, demand := range demands {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		report := SubjectReport{
			SubjectID:       demand.SubjectID,
			ScheduledBefore: demand.ScheduledMinutes,
			ScheduledAfter:  demand.ScheduledMinutes,
		}

		remaining := demand.RemainingMinutes()
		if remaining <= 0 {
			result.Reports = append(result.Reports, report)
			continue
		}

		pool := filterRooms(rooms, demand, opts.RoomPicker)
		if len(pool) == 0 {
			report.RemainingMinutes = remaining
			report.FailureReason = fmt.Sprintf("No rooms for type %s", demand.RoomType)
			result.Reports = append(result.Reports, report)
			continue
		}

		for _, blockLength := range SplitSessions(remaining) {
			session, ok := placeBlock(blockLength, demand, busy, pool, sectionID, opts)
			if !ok {
				// Remaining blocks are abandoned: a failed block means the
				// week is too congested for this subject's shape.
				break
			}
			busy = append(busy, session)
			result.Created = append(result.Created, session)
			remaining -= blockLength
			report.ScheduledAfter += blockLength
			report.CreatedSessions++
		}

		if remaining > 0 {
			report.RemainingMinutes = remaining
			report.FailureReason = fmt.Sprintf("%d minutes left unscheduled after %d attempts per session", remaining, opts.AttemptsPerSession)
		}
		result.Reports = append(result.Reports, report)
	}

	return result, nil
}

func placeBlock(blockLength int, demand SubjectDemand, busy []Session, pool []Room, sectionID string, opts AutoScheduleOptions) (Session, bool) {
	starts := legalStarts(blockLength, opts.StepMinutes)
	if len(starts) == 0 {
		return Session{}, false
	}

	for attempt := 0; attempt < opts.AttemptsPerSession; attempt++ {
		day := opts.Days[opts.Rand.Intn(len(opts.Days))]
		start := starts[opts.Rand.Intn(len(starts))]
		room := pool[opts.Rand.Intn(len(pool))]

		candidate := Session{
			Day:       day,
			Interval:  Interval{Start: start, End: start + blockLength},
			RoomID:    room.ID,
			SectionID: sectionID,
			SubjectID: demand.SubjectID,
		}
		if !Conflicts(candidate, busy) {
			return candidate, true
		}
	}
	return Session{}, false
}

// legalStarts enumerates every step-aligned offset from DayStart that
// leaves room for the block before DayEnd.
func legalStarts(blockLength, step int) []int {
	var starts []int
	for start := DayStart; start+blockLength <= DayEnd; start += step {
		starts = append(starts, start)
	}
	return starts
}

func filterRooms(rooms []Room, demand SubjectDemand, pick RoomPicker) []Room {
	var pool []Room
	for _, room := range rooms {
		if pick(room, demand) {
			pool = append(pool, room)
		}
	}
	return pool
}
