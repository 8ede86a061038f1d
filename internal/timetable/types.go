package timetable

import (
	"fmt"
	"strings"
)

// Weekday enumerates the scheduling days recognised by the engine.
// Sunday is not a teaching day.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
)

// Weekdays lists the valid scheduling days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var weekdayIndex = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
}

// ParseWeekday normalises a day label into a Weekday.
func ParseWeekday(raw string) (Weekday, error) {
	day := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := weekdayIndex[day]; !ok {
		return "", fmt.Errorf("unrecognised weekday %q", raw)
	}
	return day, nil
}

// Index returns the 1-based calendar position of the weekday, 0 when invalid.
func (d Weekday) Index() int {
	return weekdayIndex[d]
}

// Valid reports whether the weekday belongs to the recognised set.
func (d Weekday) Valid() bool {
	return weekdayIndex[d] != 0
}

// RoomType classifies rooms and the room requirement of subjects.
type RoomType string

const (
	RoomTypeLecture    RoomType = "LECTURE"
	RoomTypeLaboratory RoomType = "LABORATORY"
)

// Valid reports whether the room type is one of the recognised kinds.
func (t RoomType) Valid() bool {
	return t == RoomTypeLecture || t == RoomTypeLaboratory
}

// Room is the engine's view of a bookable room.
type Room struct {
	ID   string
	Type RoomType
}

// Interval is a half-open slice of the teaching day expressed in minutes
// from midnight. Start < End always holds for well-formed intervals.
type Interval struct {
	Start int
	End   int
}

// Duration returns the interval length in minutes.
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

// Overlaps applies the open-interval test: touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && iv.End > other.Start
}

// Session is the scheduling atom: one occurrence of a subject for a
// section, in a room, on a weekday, over a time interval. Sessions built
// by the engine are plain proposals; they gain identity only once the
// caller persists them.
type Session struct {
	Day       Weekday
	Interval  Interval
	RoomID    string
	SectionID string
	SubjectID string
}
