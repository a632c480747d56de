package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vetcare/clinic-api/internal/models"
)

const vetScheduleColumns = `id, vet_id, speciality_id, weekday, start_time, end_time, created_at, updated_at`

// ScheduleRepository provides persistence for weekly vet schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id int64) (*models.VetSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM vet_schedules WHERE id = $1`, vetScheduleColumns)
	var sched models.VetSchedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// ListByVet returns all weekly windows for a vet ordered by weekday/time.
func (r *ScheduleRepository) ListByVet(ctx context.Context, vetID int64) ([]models.VetSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM vet_schedules WHERE vet_id = $1 ORDER BY weekday ASC, start_time ASC`, vetScheduleColumns)
	var schedules []models.VetSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, vetID); err != nil {
		return nil, fmt.Errorf("list schedules by vet: %w", err)
	}
	return schedules, nil
}

// ListWindows returns the windows matching vet/weekday, optionally pinned
// to one speciality. This is the exact set the availability engine expands
// into slots.
func (r *ScheduleRepository) ListWindows(ctx context.Context, vetID int64, specialityID *int64, weekday int) ([]models.VetSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM vet_schedules WHERE vet_id = $1 AND weekday = $2 ORDER BY start_time ASC`, vetScheduleColumns)
	args := []interface{}{vetID, weekday}
	if specialityID != nil {
		query = fmt.Sprintf(`SELECT %s FROM vet_schedules WHERE vet_id = $1 AND weekday = $2 AND speciality_id = $3 ORDER BY start_time ASC`, vetScheduleColumns)
		args = append(args, *specialityID)
	}
	var schedules []models.VetSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule windows: %w", err)
	}
	return schedules, nil
}

// ListOverlapping returns stored windows for the same vet/speciality/weekday
// overlapping [startTime, endTime), optionally excluding one schedule id.
func (r *ScheduleRepository) ListOverlapping(ctx context.Context, vetID, specialityID int64, weekday int, startTime, endTime string, excludeID int64) ([]models.VetSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM vet_schedules WHERE vet_id = $1 AND speciality_id = $2 AND weekday = $3 AND start_time < $4 AND end_time > $5 AND id <> $6`, vetScheduleColumns)
	var schedules []models.VetSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, vetID, specialityID, weekday, endTime, startTime, excludeID); err != nil {
		return nil, fmt.Errorf("list overlapping schedules: %w", err)
	}
	return schedules, nil
}

// Create inserts a schedule and populates its id and timestamps.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.VetSchedule) error {
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO vet_schedules (vet_id, speciality_id, weekday, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		schedule.VetID, schedule.SpecialityID, schedule.Weekday,
		schedule.StartTime, schedule.EndTime, schedule.CreatedAt, schedule.UpdatedAt,
	).Scan(&schedule.ID); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// BulkCreate inserts all schedules inside one transaction; any failure
// rolls the whole batch back.
func (r *ScheduleRepository) BulkCreate(ctx context.Context, schedules []models.VetSchedule) ([]models.VetSchedule, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk schedule tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const query = `INSERT INTO vet_schedules (vet_id, speciality_id, weekday, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	created := make([]models.VetSchedule, 0, len(schedules))
	for _, sched := range schedules {
		sched.CreatedAt = now
		sched.UpdatedAt = now
		if err := tx.QueryRowContext(ctx, query,
			sched.VetID, sched.SpecialityID, sched.Weekday,
			sched.StartTime, sched.EndTime, sched.CreatedAt, sched.UpdatedAt,
		).Scan(&sched.ID); err != nil {
			return nil, fmt.Errorf("bulk create schedule: %w", err)
		}
		created = append(created, sched)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk schedule tx: %w", err)
	}
	return created, nil
}

// Update rewrites the mutable fields of a schedule.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.VetSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vet_schedules SET weekday = $1, start_time = $2, end_time = $3, updated_at = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query,
		schedule.Weekday, schedule.StartTime, schedule.EndTime, schedule.UpdatedAt, schedule.ID)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a schedule by id.
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vet_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
