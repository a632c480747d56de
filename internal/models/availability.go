package models

// Slot is a derived candidate booking interval inside a schedule window.
// Slots are never persisted.
type Slot struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	IsAvailable     bool   `json:"is_available"`
	VetID           int64  `json:"vet_id"`
	SpecialityID    int64  `json:"speciality_id"`
	BranchID        *int64 `json:"branch_id,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
}

// DayAvailability is the full slot picture for one vet/speciality/date.
// AvailableSlots carries every generated slot, occupied ones included,
// flagged through Slot.IsAvailable so the UI can grey them out.
type DayAvailability struct {
	Date                 string             `json:"date"`
	IsHoliday            bool               `json:"is_holiday"`
	AvailableSlots       []Slot             `json:"available_slots"`
	BlockedSlots         []AppointmentBlock `json:"blocked_slots"`
	ExistingAppointments []Appointment      `json:"existing_appointments"`
}

// WeekAvailability groups per-day availability for one vet over a range.
type WeekAvailability struct {
	VetID int64             `json:"vet_id"`
	Days  []DayAvailability `json:"days"`
}

// AvailabilityQuery selects vets and a date range for bulk availability.
type AvailabilityQuery struct {
	VetID           *int64 `json:"vet_id,omitempty"`
	SpecialityID    *int64 `json:"speciality_id,omitempty"`
	BranchID        *int64 `json:"branch_id,omitempty"`
	DateFrom        string `json:"date_from"`
	DateTo          string `json:"date_to"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// AvailabilityStatistics aggregates slot occupancy over a date range.
type AvailabilityStatistics struct {
	VetID         int64   `json:"vet_id"`
	SpecialityID  int64   `json:"speciality_id"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalSlots    int     `json:"total_slots"`
	FreeSlots     int     `json:"free_slots"`
	OccupiedSlots int     `json:"occupied_slots"`
	HolidayDays   int     `json:"holiday_days"`
	OccupancyRate float64 `json:"occupancy_rate"`
}
