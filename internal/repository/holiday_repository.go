package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vetcare/clinic-api/internal/models"
)

const holidayColumns = `id, name, date::text AS date, created_at`

// HolidayRepository provides persistence for clinic-wide holidays.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository creates a new holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns all holidays ordered by date.
func (r *HolidayRepository) List(ctx context.Context) ([]models.Holiday, error) {
	query := fmt.Sprintf(`SELECT %s FROM holidays ORDER BY date ASC`, holidayColumns)
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// ListByYear returns the holidays falling in one calendar year.
func (r *HolidayRepository) ListByYear(ctx context.Context, year int) ([]models.Holiday, error) {
	query := fmt.Sprintf(`SELECT %s FROM holidays WHERE EXTRACT(YEAR FROM date) = $1 ORDER BY date ASC`, holidayColumns)
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, year); err != nil {
		return nil, fmt.Errorf("list holidays by year: %w", err)
	}
	return holidays, nil
}

// ExistsByDate reports whether the given date is a holiday.
func (r *HolidayRepository) ExistsByDate(ctx context.Context, date string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM holidays WHERE date = $1 LIMIT 1`, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check holiday: %w", err)
	}
	return true, nil
}

// Create inserts a holiday and populates its id.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	holiday.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO holidays (name, date, created_at) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, holiday.Name, holiday.Date, holiday.CreatedAt).Scan(&holiday.ID); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// CreateBatch inserts all holidays inside one transaction.
func (r *HolidayRepository) CreateBatch(ctx context.Context, holidays []models.Holiday) ([]models.Holiday, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin holiday batch tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const query = `INSERT INTO holidays (name, date, created_at) VALUES ($1, $2, $3) RETURNING id`
	created := make([]models.Holiday, 0, len(holidays))
	for _, holiday := range holidays {
		holiday.CreatedAt = now
		if err := tx.QueryRowContext(ctx, query, holiday.Name, holiday.Date, holiday.CreatedAt).Scan(&holiday.ID); err != nil {
			return nil, fmt.Errorf("batch create holiday: %w", err)
		}
		created = append(created, holiday)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit holiday batch tx: %w", err)
	}
	return created, nil
}

// Delete removes a holiday by id.
func (r *HolidayRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("holiday rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
