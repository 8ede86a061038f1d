package timetable

// MinutesPerUnit converts a subject's credit units into required
// instructional minutes: one unit is one hour per week.
const MinutesPerUnit = 60

// RequiredMinutes returns the weekly instructional minutes a subject owes.
func RequiredMinutes(units int) int {
	return units * MinutesPerUnit
}

// ScheduledMinutes sums the durations of the given sessions.
func ScheduledMinutes(sessions []Session) int {
	total := 0
	for _, s := range sessions {
		total += s.Interval.Duration()
	}
	return total
}

// RemainingMinutes computes the unmet minutes for a subject given its
// already scheduled sessions. Over-scheduled subjects floor at zero; the
// excess condition is surfaced for display only, never as an error here.
func RemainingMinutes(units int, sessions []Session) int {
	remaining := RequiredMinutes(units) - ScheduledMinutes(sessions)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SubjectDemand is the derived per-subject accounting snapshot the bulk
// auto-scheduler consumes. It is recomputed from the catalog and existing
// sessions, never stored.
type SubjectDemand struct {
	SubjectID        string
	Units            int
	RoomType         RoomType
	ScheduledMinutes int
}

// RequiredMinutes returns the subject's total weekly duty.
func (d SubjectDemand) RequiredMinutes() int {
	return RequiredMinutes(d.Units)
}

// RemainingMinutes floors at zero like the package-level function.
func (d SubjectDemand) RemainingMinutes() int {
	remaining := d.RequiredMinutes() - d.ScheduledMinutes
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Excess reports whether the subject has more minutes on the books than
// its units require.
func (d SubjectDemand) Excess() bool {
	return d.ScheduledMinutes > d.RequiredMinutes()
}
