package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vetcare/clinic-api/internal/models"
)

const vetColumns = `id, name, email, telephone, active, created_at, updated_at`

// VetRepository provides read access to veterinarian records.
type VetRepository struct {
	db *sqlx.DB
}

// NewVetRepository creates a new vet repository.
func NewVetRepository(db *sqlx.DB) *VetRepository {
	return &VetRepository{db: db}
}

// FindByID loads a vet by id.
func (r *VetRepository) FindByID(ctx context.Context, id int64) (*models.Vet, error) {
	query := fmt.Sprintf(`SELECT %s FROM vets WHERE id = $1`, vetColumns)
	var vet models.Vet
	if err := r.db.GetContext(ctx, &vet, query, id); err != nil {
		return nil, err
	}
	return &vet, nil
}

// List returns vets matching the filter with pagination.
func (r *VetRepository) List(ctx context.Context, filter models.VetFilter) ([]models.Vet, int, error) {
	base := "FROM vets WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.SpecialityID != nil {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM vet_schedules s WHERE s.vet_id = vets.id AND s.speciality_id = $%d)", len(args)+1))
		args = append(args, *filter.SpecialityID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", vetColumns, base, size, offset)
	var vets []models.Vet
	if err := r.db.SelectContext(ctx, &vets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list vets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count vets: %w", err)
	}

	return vets, total, nil
}

// ListActiveIDs returns the ids of all active vets, used when a bulk
// availability query does not pin a single vet.
func (r *VetRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM vets WHERE active = TRUE ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list active vet ids: %w", err)
	}
	return ids, nil
}
