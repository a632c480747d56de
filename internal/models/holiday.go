package models

import "time"

// Holiday is a clinic-wide full-day closure. Any date present in the
// holidays table yields zero availability regardless of schedules.
type Holiday struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Date      string    `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HolidayStatistics summarises holidays for a calendar year.
type HolidayStatistics struct {
	Year          int            `json:"year"`
	TotalHolidays int            `json:"total_holidays"`
	ByMonth       map[string]int `json:"by_month"`
}
