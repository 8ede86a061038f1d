package models

import "time"

// Subject represents a curriculum subject. Units drive the weekly duration
// budget (one unit equals one instructional hour) and RoomType constrains
// where sessions may land.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Units     int       `db:"units" json:"units"`
	RoomType  string    `db:"room_type" json:"room_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	RoomType  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
