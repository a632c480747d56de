package models

import "time"

// Pet is a patient record.
type Pet struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Breed     string    `db:"breed" json:"breed"`
	Sex       string    `db:"sex" json:"sex"`
	BirthDate *string   `db:"birth_date" json:"birth_date,omitempty"`
	WeightKg  *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
