package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vetcare/clinic-api/internal/models"
)

// PetRepository provides read access to patient records.
type PetRepository struct {
	db *sqlx.DB
}

// NewPetRepository creates a new pet repository.
func NewPetRepository(db *sqlx.DB) *PetRepository {
	return &PetRepository{db: db}
}

// FindByID loads a pet by id.
func (r *PetRepository) FindByID(ctx context.Context, id int64) (*models.Pet, error) {
	const query = `SELECT id, name, breed, sex, birth_date::text AS birth_date, weight_kg, owner_id, created_at, updated_at FROM pets WHERE id = $1`
	var pet models.Pet
	if err := r.db.GetContext(ctx, &pet, query, id); err != nil {
		return nil, err
	}
	return &pet, nil
}

// ListByOwner returns the pets registered to one owner.
func (r *PetRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Pet, error) {
	const query = `SELECT id, name, breed, sex, birth_date::text AS birth_date, weight_kg, owner_id, created_at, updated_at FROM pets WHERE owner_id = $1 ORDER BY name ASC`
	var pets []models.Pet
	if err := r.db.SelectContext(ctx, &pets, query, ownerID); err != nil {
		return nil, fmt.Errorf("list pets by owner: %w", err)
	}
	return pets, nil
}
