package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetcare/clinic-api/internal/models"
)

func newAppointmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testBooking() *models.Appointment {
	return &models.Appointment{
		VetID: 1, PetID: 3, UserID: 4, SpecialityID: 2, BranchID: 1,
		Date: "2026-09-14", Hour: "10:00", DurationMinutes: 30,
		Status: models.StatusProgramada,
	}
}

func TestAppointmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, hour, duration_minutes, status FROM appointments").
		WithArgs(int64(1), "2026-09-14", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hour", "duration_minutes", "status"}))
	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	appt := testBooking()
	require.NoError(t, repo.Create(context.Background(), appt))
	assert.Equal(t, int64(11), appt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateConflictRollsBack(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	// a locked competing row at 10:15 overlaps [10:00, 10:30)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, hour, duration_minutes, status FROM appointments").
		WithArgs(int64(1), "2026-09-14", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hour", "duration_minutes", "status"}).
			AddRow(int64(9), "10:15", 30, "confirmada"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), testBooking())
	require.ErrorIs(t, err, ErrAppointmentConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateConflictNearMidnight(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	// a 23:30+60 booking runs past midnight; its end must still compare
	// above a 23:45 start
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, hour, duration_minutes, status FROM appointments").
		WithArgs(int64(1), "2026-09-14", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hour", "duration_minutes", "status"}).
			AddRow(int64(9), "23:30", 60, "confirmada"))
	mock.ExpectRollback()

	appt := testBooking()
	appt.Hour = "23:45"
	err := repo.Create(context.Background(), appt)
	require.ErrorIs(t, err, ErrAppointmentConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateIgnoresTouchingBoundary(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	// an existing booking ending exactly at 10:00 does not overlap
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, hour, duration_minutes, status FROM appointments").
		WithArgs(int64(1), "2026-09-14", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hour", "duration_minutes", "status"}).
			AddRow(int64(9), "09:30", 30, "confirmada"))
	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), testBooking()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateSlotExcludesOwnRow(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	appt := testBooking()
	appt.ID = 11

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, hour, duration_minutes, status FROM appointments").
		WithArgs(int64(1), "2026-09-14", int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hour", "duration_minutes", "status"}))
	mock.ExpectExec("UPDATE appointments SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateSlot(context.Background(), appt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateSlotMissingRow(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	appt := testBooking()
	appt.ID = 404

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, hour, duration_minutes, status FROM appointments").
		WithArgs(int64(1), "2026-09-14", int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hour", "duration_minutes", "status"}))
	mock.ExpectExec("UPDATE appointments SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateSlot(context.Background(), appt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("UPDATE appointments SET status").
		WithArgs("cancelada", sqlmock.AnyArg(), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 11, models.StatusCancelada))

	mock.ExpectExec("UPDATE appointments SET status").
		WithArgs("cancelada", sqlmock.AnyArg(), int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 404, models.StatusCancelada)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
