package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vetcare/clinic-api/internal/models"
)

const blockColumns = `id, vet_id, date::text AS date, start_time, end_time, reason, created_at`

// BlockRepository provides persistence for vet unavailability blocks.
type BlockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository creates a new block repository.
func NewBlockRepository(db *sqlx.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// FindByID loads a block by id.
func (r *BlockRepository) FindByID(ctx context.Context, id int64) (*models.AppointmentBlock, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointment_blocks WHERE id = $1`, blockColumns)
	var block models.AppointmentBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// ListByVet returns every block for a vet, newest date first.
func (r *BlockRepository) ListByVet(ctx context.Context, vetID int64) ([]models.AppointmentBlock, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointment_blocks WHERE vet_id = $1 ORDER BY date DESC, start_time ASC`, blockColumns)
	var blocks []models.AppointmentBlock
	if err := r.db.SelectContext(ctx, &blocks, query, vetID); err != nil {
		return nil, fmt.Errorf("list blocks by vet: %w", err)
	}
	return blocks, nil
}

// ListByDate returns the blocks on a single date for one vet, the set the
// availability engine subtracts from the day's windows.
func (r *BlockRepository) ListByDate(ctx context.Context, vetID int64, date string) ([]models.AppointmentBlock, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointment_blocks WHERE vet_id = $1 AND date = $2 ORDER BY start_time ASC`, blockColumns)
	var blocks []models.AppointmentBlock
	if err := r.db.SelectContext(ctx, &blocks, query, vetID, date); err != nil {
		return nil, fmt.Errorf("list blocks by date: %w", err)
	}
	return blocks, nil
}

// ListByDateRange returns blocks between start and end dates inclusive.
func (r *BlockRepository) ListByDateRange(ctx context.Context, vetID int64, startDate, endDate string) ([]models.AppointmentBlock, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointment_blocks WHERE vet_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date ASC, start_time ASC`, blockColumns)
	var blocks []models.AppointmentBlock
	if err := r.db.SelectContext(ctx, &blocks, query, vetID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("list blocks by date range: %w", err)
	}
	return blocks, nil
}

// Create inserts a block and populates its id.
func (r *BlockRepository) Create(ctx context.Context, block *models.AppointmentBlock) error {
	block.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO appointment_blocks (vet_id, date, start_time, end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		block.VetID, block.Date, block.StartTime, block.EndTime, block.Reason, block.CreatedAt,
	).Scan(&block.ID); err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

// CreateBatch inserts one block per date inside a single transaction.
// The date list arrives pre-expanded from the caller; any failure rolls
// the whole fan-out back.
func (r *BlockRepository) CreateBatch(ctx context.Context, blocks []models.AppointmentBlock) ([]models.AppointmentBlock, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin block batch tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const query = `INSERT INTO appointment_blocks (vet_id, date, start_time, end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	created := make([]models.AppointmentBlock, 0, len(blocks))
	for _, block := range blocks {
		block.CreatedAt = now
		if err := tx.QueryRowContext(ctx, query,
			block.VetID, block.Date, block.StartTime, block.EndTime, block.Reason, block.CreatedAt,
		).Scan(&block.ID); err != nil {
			return nil, fmt.Errorf("batch create block: %w", err)
		}
		created = append(created, block)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit block batch tx: %w", err)
	}
	return created, nil
}

// Update rewrites the mutable fields of a block.
func (r *BlockRepository) Update(ctx context.Context, block *models.AppointmentBlock) error {
	const query = `UPDATE appointment_blocks SET date = $1, start_time = $2, end_time = $3, reason = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, block.Date, block.StartTime, block.EndTime, block.Reason, block.ID)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("block rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a block by id.
func (r *BlockRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointment_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("block rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
