package timetable

import "sort"

// FindSlot locates the earliest free gap of at least requiredMinutes
// between the given bookings of a single dimension (one room's day or one
// section's day). The scan is earliest-fit, so a later tighter gap is
// never preferred over an earlier sufficient one. The second return is
// false when no gap suffices.
func FindSlot(requiredMinutes int, busy []Interval) (Interval, bool) {
	if requiredMinutes <= 0 || requiredMinutes > DayEnd-DayStart {
		return Interval{}, false
	}

	sorted := make([]Interval, 0, len(busy)+2)
	sorted = append(sorted, Interval{Start: DayStart, End: DayStart})
	sorted = append(sorted, busy...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	sorted = append(sorted, Interval{Start: DayEnd, End: DayEnd})

	for i := 0; i < len(sorted)-1; i++ {
		gapStart := sorted[i].End
		gapEnd := sorted[i+1].Start
		if gapEnd-gapStart >= requiredMinutes {
			return Interval{Start: gapStart, End: gapStart + requiredMinutes}, true
		}
	}
	return Interval{}, false
}
