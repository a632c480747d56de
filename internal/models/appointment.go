package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusProgramada   AppointmentStatus = "programada"
	StatusConfirmada   AppointmentStatus = "confirmada"
	StatusEnCurso      AppointmentStatus = "en_curso"
	StatusCompletada   AppointmentStatus = "completada"
	StatusCancelada    AppointmentStatus = "cancelada"
	StatusNoAsistio    AppointmentStatus = "no_asistio"
	StatusReprogramada AppointmentStatus = "reprogramada"
)

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusProgramada, StatusConfirmada, StatusEnCurso, StatusCompletada,
		StatusCancelada, StatusNoAsistio, StatusReprogramada:
		return true
	}
	return false
}

// CountsForConflict reports whether an appointment in this status still
// occupies its time slot. Cancelled and no-show appointments release the
// slot; a rescheduled appointment keeps holding it until its replacement
// exists.
func (s AppointmentStatus) CountsForConflict() bool {
	return s != StatusCancelada && s != StatusNoAsistio
}

// Terminal reports whether no further transitions are allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompletada || s == StatusCancelada || s == StatusNoAsistio
}

// Appointment is a booked visit. Hour is the 24-hour "HH:MM" start time;
// the occupied interval is [hour, hour+duration) on Date.
type Appointment struct {
	ID              int64             `db:"id" json:"id"`
	VetID           int64             `db:"vet_id" json:"vet_id"`
	PetID           int64             `db:"pet_id" json:"pet_id"`
	UserID          int64             `db:"user_id" json:"user_id"`
	SpecialityID    int64             `db:"speciality_id" json:"speciality_id"`
	BranchID        int64             `db:"branch_id" json:"branch_id"`
	Date            string            `db:"date" json:"date"`
	Hour            string            `db:"hour" json:"hour"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Notes           *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentFilter narrows down appointment listings.
type AppointmentFilter struct {
	VetID    *int64
	PetID    *int64
	Status   *AppointmentStatus
	DateFrom string
	DateTo   string
	Search   string
	Page     int
	PageSize int
}
