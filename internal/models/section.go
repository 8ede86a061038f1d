package models

import "time"

// Section is a cohort of students moving through a shared timetable.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Program   string    `db:"program" json:"program"`
	YearLevel int       `db:"year_level" json:"year_level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SectionFilter captures supported filters for listing sections.
type SectionFilter struct {
	Program   string
	YearLevel *int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SectionSubject links a section's curriculum to a subject for a term.
type SectionSubject struct {
	ID        string    `db:"id" json:"id"`
	SectionID string    `db:"section_id" json:"section_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
