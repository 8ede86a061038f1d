package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockAcceptsBothWidths(t *testing.T) {
	cases := map[string]int{
		"7:30":  7*60 + 30,
		"07:30": 7*60 + 30,
		"19:30": 19*60 + 30,
		"12:00": 12 * 60,
	}
	for raw, want := range cases {
		got, err := ParseClock(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseClockRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "730", "7:3", "7:305", "25:00", "10:75", "ten:30", "10:am"} {
		_, err := ParseClock(raw)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, raw)
	}
}

func TestParseTimeEnforcesGridAndWindow(t *testing.T) {
	_, err := ParseTime("08:00")
	require.NoError(t, err)

	for _, raw := range []string{"07:00", "20:00", "08:10", "19:31"} {
		_, err := ParseTime(raw)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, raw)
	}
}

func TestFormatClockZeroPads(t *testing.T) {
	assert.Equal(t, "07:30", FormatClock(DayStart))
	assert.Equal(t, "19:30", FormatClock(DayEnd))
	assert.Equal(t, "09:05", FormatClock(9*60+5))
}

func TestFormat12Hour(t *testing.T) {
	assert.Equal(t, "7:30 AM", Format12Hour(7*60+30))
	assert.Equal(t, "12:00 PM", Format12Hour(12*60))
	assert.Equal(t, "1:15 PM", Format12Hour(13*60+15))
	assert.Equal(t, "7:30 PM", Format12Hour(19*60+30))
}

func TestNormalizeClock(t *testing.T) {
	normalized, err := NormalizeClock("7:30")
	require.NoError(t, err)
	assert.Equal(t, "07:30", normalized)
}

func TestIsValidTimeBoundaries(t *testing.T) {
	assert.True(t, IsValidTime(DayStart))
	assert.True(t, IsValidTime(DayEnd))
	assert.False(t, IsValidTime(DayStart-GridMinutes))
	assert.False(t, IsValidTime(DayEnd+GridMinutes))
	assert.False(t, IsValidTime(DayStart+1))
}

func TestIsValidRangeRequiresForwardRange(t *testing.T) {
	assert.True(t, IsValidRange(9*60, 10*60))
	assert.False(t, IsValidRange(10*60, 10*60))
	assert.False(t, IsValidRange(10*60, 9*60))
	assert.False(t, IsValidRange(7*60, 9*60)) // start before operating window
}
