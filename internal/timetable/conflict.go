package timetable

// Conflicts reports whether the candidate collides with any existing
// session: same weekday, same room or same section, and overlapping
// intervals. Sessions that merely touch at an endpoint do not collide.
func Conflicts(candidate Session, existing []Session) bool {
	for _, other := range existing {
		if other.Day != candidate.Day {
			continue
		}
		if other.RoomID != candidate.RoomID && other.SectionID != candidate.SectionID {
			continue
		}
		if candidate.Interval.Overlaps(other.Interval) {
			return true
		}
	}
	return false
}

// InstructorConflicts applies only the day and time test, regardless of
// room or section. The instructor assignment step downstream uses it to
// keep one instructor in one place at a time.
func InstructorConflicts(candidate Session, existing []Session) bool {
	for _, other := range existing {
		if other.Day != candidate.Day {
			continue
		}
		if candidate.Interval.Overlaps(other.Interval) {
			return true
		}
	}
	return false
}
