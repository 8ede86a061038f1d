package models

import "time"

// ClassSession is a committed scheduling atom: one occurrence of a subject
// for a section, in a room, on a weekday, within a term. Times are stored
// as canonical "HH:MM" strings; all arithmetic happens in the engine on
// minute offsets.
type ClassSession struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSessionFilter describes query params for listing sessions.
type ClassSessionFilter struct {
	TermID    string
	SectionID string
	SubjectID string
	RoomID    string
	DayOfWeek string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SubjectDemandRow is the section curriculum row feeding the bulk
// auto-scheduler: subject facts joined with minutes already on the books.
type SubjectDemandRow struct {
	SubjectID        string `db:"subject_id" json:"subject_id"`
	SubjectCode      string `db:"subject_code" json:"subject_code"`
	Units            int    `db:"units" json:"units"`
	RoomType         string `db:"room_type" json:"room_type"`
	ScheduledMinutes int    `db:"scheduled_minutes" json:"scheduled_minutes"`
}
