package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vetcare/clinic-api/internal/models"
)

// ErrAppointmentConflict is returned when the write-time overlap check
// inside the booking transaction finds a competing appointment. It is the
// authoritative verdict: any earlier client-side availability result is
// void once this fires.
var ErrAppointmentConflict = errors.New("appointment overlaps an existing booking")

const appointmentColumns = `id, vet_id, pet_id, user_id, speciality_id, branch_id, date::text AS date, hour, duration_minutes, status, notes, created_at, updated_at`

// AppointmentRepository provides persistence for appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// FindByID loads an appointment by id.
func (r *AppointmentRepository) FindByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// ListByVetAndDate returns every appointment for one vet on one date,
// regardless of status; callers decide which statuses still hold a slot.
func (r *AppointmentRepository) ListByVetAndDate(ctx context.Context, vetID int64, date string) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE vet_id = $1 AND date = $2 ORDER BY hour ASC`, appointmentColumns)
	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, vetID, date); err != nil {
		return nil, fmt.Errorf("list appointments by vet and date: %w", err)
	}
	return appts, nil
}

// List returns appointments matching the filter with pagination.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	base := "FROM appointments a WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.VetID != nil {
		conditions = append(conditions, fmt.Sprintf("a.vet_id = $%d", len(args)+1))
		args = append(args, *filter.VetID)
	}
	if filter.PetID != nil {
		conditions = append(conditions, fmt.Sprintf("a.pet_id = $%d", len(args)+1))
		args = append(args, *filter.PetID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(a.notes ILIKE $%d OR EXISTS (SELECT 1 FROM pets p WHERE p.id = a.pet_id AND p.name ILIKE $%d))",
			len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC, hour ASC LIMIT %d OFFSET %d",
		strings.ReplaceAll(appointmentColumns, "date::text AS date", "a.date::text AS date"), base, size, offset)
	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	return appts, total, nil
}

// Create books an appointment. The insert runs inside a transaction that
// first locks the vet's active appointments for that date and re-checks
// the half-open overlap; this is the final guard against double-booking
// when two clients race on the same slot.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin appointment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := assertNoOverlap(ctx, tx, appt, 0); err != nil {
		return err
	}

	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	const query = `INSERT INTO appointments (vet_id, pet_id, user_id, speciality_id, branch_id, date, hour, duration_minutes, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	if err := tx.QueryRowContext(ctx, query,
		appt.VetID, appt.PetID, appt.UserID, appt.SpecialityID, appt.BranchID,
		appt.Date, appt.Hour, appt.DurationMinutes, string(appt.Status), appt.Notes,
		appt.CreatedAt, appt.UpdatedAt,
	).Scan(&appt.ID); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit appointment tx: %w", err)
	}
	return nil
}

// UpdateSlot moves an appointment to a new date/hour/duration/vet under
// the same transactional overlap guard, ignoring the appointment's own row.
func (r *AppointmentRepository) UpdateSlot(ctx context.Context, appt *models.Appointment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin appointment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := assertNoOverlap(ctx, tx, appt, appt.ID); err != nil {
		return err
	}

	appt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE appointments SET vet_id = $1, date = $2, hour = $3, duration_minutes = $4, status = $5, notes = $6, updated_at = $7 WHERE id = $8`
	res, err := tx.ExecContext(ctx, query,
		appt.VetID, appt.Date, appt.Hour, appt.DurationMinutes, string(appt.Status), appt.Notes, appt.UpdatedAt, appt.ID)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("appointment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit appointment tx: %w", err)
	}
	return nil
}

// UpdateStatus transitions the status without touching the slot.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status models.AppointmentStatus) error {
	const query = `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("appointment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// assertNoOverlap locks the vet's slot-holding appointments for the target
// date and verifies the candidate interval [hour, hour+duration) against
// each of them. Times are zero-padded "HH:MM" so string order is time
// order; the interval arithmetic happens in Go to keep the SQL portable.
func assertNoOverlap(ctx context.Context, tx *sqlx.Tx, appt *models.Appointment, excludeID int64) error {
	const query = `SELECT id, hour, duration_minutes, status FROM appointments
		WHERE vet_id = $1 AND date = $2 AND id <> $3
		AND status NOT IN ('cancelada', 'no_asistio')
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, appt.VetID, appt.Date, excludeID)
	if err != nil {
		return fmt.Errorf("lock appointments for overlap check: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	candidateEnd, err := addMinutesHHMM(appt.Hour, appt.DurationMinutes)
	if err != nil {
		return fmt.Errorf("compute candidate end: %w", err)
	}

	for rows.Next() {
		var (
			id       int64
			hour     string
			duration int
			status   string
		)
		if err := rows.Scan(&id, &hour, &duration, &status); err != nil {
			return fmt.Errorf("scan locked appointment: %w", err)
		}
		end, err := addMinutesHHMM(hour, duration)
		if err != nil {
			return fmt.Errorf("compute existing end: %w", err)
		}
		if appt.Hour < end && hour < candidateEnd {
			return ErrAppointmentConflict
		}
	}
	return rows.Err()
}

// addMinutesHHMM adds n minutes to a zero-padded "HH:MM" string. The hour
// keeps counting past midnight ("23:30"+60 yields "24:30") so string
// comparison stays ordered within the day.
func addMinutesHHMM(hhmm string, n int) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("parse time %q: %w", hhmm, err)
	}
	total := t.Hour()*60 + t.Minute() + n
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}
