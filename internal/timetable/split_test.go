package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSessionsThreeUnits(t *testing.T) {
	// 3 units = 180 minutes, evenly divisible by 90.
	assert.Equal(t, []int{90, 90}, SplitSessions(180))
}

func TestSplitSessionsSingleShortBlock(t *testing.T) {
	assert.Equal(t, []int{45}, SplitSessions(45))
	assert.Equal(t, []int{60}, SplitSessions(60))
}

func TestSplitSessionsDivisibleByNinety(t *testing.T) {
	assert.Equal(t, []int{90, 90, 90}, SplitSessions(270))
}

func TestSplitSessionsDivisibleByOneTwenty(t *testing.T) {
	// 240 is divisible by both; the 120 rule only applies when 90 fails.
	assert.Equal(t, []int{120, 120}, SplitSessions(240))
	assert.Equal(t, []int{90, 90, 90, 90}, SplitSessions(360))
}

func TestSplitSessionsGreedyWithAbsorbedRemainder(t *testing.T) {
	assert.Equal(t, []int{60, 90}, SplitSessions(150))
	assert.Equal(t, []int{60, 60, 90}, SplitSessions(210))
}

func TestSplitSessionsNonPositive(t *testing.T) {
	assert.Nil(t, SplitSessions(0))
	assert.Nil(t, SplitSessions(-30))
}

func TestSplitSessionsCoverageProperty(t *testing.T) {
	// Blocks must sum to the input and stay within the teachable range;
	// sub-hour blocks appear only for sub-hour totals.
	for total := 15; total <= 600; total += 15 {
		blocks := SplitSessions(total)
		sum := 0
		for _, block := range blocks {
			sum += block
			assert.GreaterOrEqual(t, block, 1, "total %d", total)
			assert.LessOrEqual(t, block, 120, "total %d", total)
			if total >= 60 {
				assert.GreaterOrEqual(t, block, 60, "total %d", total)
			}
		}
		assert.Equal(t, total, sum, "total %d", total)
	}
}
