package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSlotEmptyDayStartsAtOpening(t *testing.T) {
	slot, found := FindSlot(60, nil)
	require.True(t, found)
	assert.Equal(t, Interval{Start: DayStart, End: DayStart + 60}, slot)
}

func TestFindSlotBetweenBookings(t *testing.T) {
	// The opening 07:30-09:00 gap is 90 minutes and wins for a one-hour
	// session: earliest-fit scans from the start of day.
	busy := []Interval{
		{Start: 9 * 60, End: 10*60 + 30},
		{Start: 12 * 60, End: 13 * 60},
	}
	slot, found := FindSlot(60, busy)
	require.True(t, found)
	assert.Equal(t, Interval{Start: DayStart, End: DayStart + 60}, slot)
}

func TestFindSlotAfterMorningBlock(t *testing.T) {
	// With the morning fully booked the next gap 10:30-12:00 hosts the
	// session at its start.
	busy := []Interval{
		{Start: DayStart, End: 10*60 + 30},
		{Start: 12 * 60, End: 13 * 60},
	}
	slot, found := FindSlot(60, busy)
	require.True(t, found)
	assert.Equal(t, Interval{Start: 10*60 + 30, End: 11*60 + 30}, slot)
}

func TestFindSlotSkipsTooSmallGaps(t *testing.T) {
	busy := []Interval{
		{Start: DayStart, End: 9 * 60},
		{Start: 9*60 + 30, End: 12 * 60}, // 30-minute gap, too small for 60
	}
	slot, found := FindSlot(60, busy)
	require.True(t, found)
	assert.Equal(t, Interval{Start: 12 * 60, End: 13 * 60}, slot)
}

func TestFindSlotUnsortedInput(t *testing.T) {
	busy := []Interval{
		{Start: 12 * 60, End: 13 * 60},
		{Start: DayStart, End: 10*60 + 30},
	}
	slot, found := FindSlot(60, busy)
	require.True(t, found)
	assert.Equal(t, Interval{Start: 10*60 + 30, End: 11*60 + 30}, slot)
}

func TestFindSlotFullDay(t *testing.T) {
	busy := []Interval{{Start: DayStart, End: DayEnd}}
	_, found := FindSlot(15, busy)
	assert.False(t, found)
}

func TestFindSlotRequiredLongerThanDay(t *testing.T) {
	_, found := FindSlot(DayEnd-DayStart+15, nil)
	assert.False(t, found)
}

func TestFindSlotResultsStayInsideWindow(t *testing.T) {
	busy := []Interval{
		{Start: 8 * 60, End: 11 * 60},
		{Start: 14 * 60, End: 18 * 60},
	}
	for _, required := range []int{30, 60, 90, 120, 180} {
		slot, found := FindSlot(required, busy)
		if !found {
			continue
		}
		assert.GreaterOrEqual(t, slot.Start, DayStart)
		assert.Less(t, slot.Start, slot.End)
		assert.LessOrEqual(t, slot.End, DayEnd)
	}
}

func TestFindSlotEarliestFitProperty(t *testing.T) {
	// A later, larger gap never wins over an earlier sufficient one.
	busy := []Interval{
		{Start: DayStart, End: 9 * 60},
		{Start: 10 * 60, End: 11 * 60}, // 60-minute gap at 09:00
		{Start: 13 * 60, End: 14 * 60}, // 120-minute gap at 11:00
	}
	slot, found := FindSlot(60, busy)
	require.True(t, found)
	assert.Equal(t, 9*60, slot.Start)
}
