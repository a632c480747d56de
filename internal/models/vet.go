package models

import "time"

// Vet represents a veterinarian on staff.
type Vet struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Telephone *string   `db:"telephone" json:"telephone,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Speciality is a clinical service a vet can be scheduled for.
type Speciality struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// Branch is a clinic location.
type Branch struct {
	ID        int64   `db:"id" json:"id"`
	Direction *string `db:"direction" json:"direction,omitempty"`
	Telephone *string `db:"telephone" json:"telephone,omitempty"`
}

// VetFilter narrows down staff listings.
type VetFilter struct {
	SpecialityID *int64
	BranchID     *int64
	Active       *bool
	Page         int
	PageSize     int
}
