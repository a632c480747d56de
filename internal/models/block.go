package models

import "time"

// AppointmentBlock marks a veterinarian unavailable for a [start, end)
// interval on one specific date (leave, surgery, staff meeting). Blocks
// override any weekly schedule window they overlap.
type AppointmentBlock struct {
	ID        int64     `db:"id" json:"id"`
	VetID     int64     `db:"vet_id" json:"vet_id"`
	Date      string    `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BlockStatistics aggregates block usage over a date range.
type BlockStatistics struct {
	VetID          int64  `json:"vet_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	TotalBlocks    int    `json:"total_blocks"`
	BlockedMinutes int    `json:"blocked_minutes"`
}
