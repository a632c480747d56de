package models

import "time"

// VetSchedule is a recurring weekly availability window for a
// veterinarian/speciality pair. Weekday numbering is 0=Sunday..6=Saturday.
// Times are 24-hour "HH:MM" strings over a half-open [start, end) interval.
type VetSchedule struct {
	ID           int64     `db:"id" json:"id"`
	VetID        int64     `db:"vet_id" json:"vet_id"`
	SpecialityID int64     `db:"speciality_id" json:"speciality_id"`
	Weekday      int       `db:"weekday" json:"weekday"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
