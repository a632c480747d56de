package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetcare/clinic-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "vet_id", "speciality_id", "weekday", "start_time", "end_time", "created_at", "updated_at"})
}

func TestScheduleRepositoryListWindows(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, vet_id, speciality_id, weekday, start_time, end_time, created_at, updated_at FROM vet_schedules WHERE vet_id = $1 AND weekday = $2 ORDER BY start_time ASC")).
		WithArgs(int64(1), 1).
		WillReturnRows(scheduleRows().
			AddRow(int64(5), int64(1), int64(2), 1, "09:00", "12:00", time.Now(), time.Now()))

	windows, err := repo.ListWindows(context.Background(), 1, nil, 1)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "09:00", windows[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListWindowsBySpeciality(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND speciality_id = $3 ORDER BY start_time ASC")).
		WithArgs(int64(1), 1, int64(2)).
		WillReturnRows(scheduleRows())

	speciality := int64(2)
	windows, err := repo.ListWindows(context.Background(), 1, &speciality, 1)
	require.NoError(t, err)
	assert.Empty(t, windows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("INSERT INTO vet_schedules").
		WithArgs(int64(1), int64(2), 1, "09:00", "12:00", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	sched := &models.VetSchedule{VetID: 1, SpecialityID: 2, Weekday: 1, StartTime: "09:00", EndTime: "12:00"}
	require.NoError(t, repo.Create(context.Background(), sched))
	assert.Equal(t, int64(5), sched.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO vet_schedules").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectQuery("INSERT INTO vet_schedules").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.BulkCreate(context.Background(), []models.VetSchedule{
		{VetID: 1, SpecialityID: 2, Weekday: 1, StartTime: "09:00", EndTime: "12:00"},
		{VetID: 1, SpecialityID: 2, Weekday: 2, StartTime: "09:00", EndTime: "12:00"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE vet_schedules SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.VetSchedule{ID: 404, Weekday: 1, StartTime: "09:00", EndTime: "12:00"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("DELETE FROM vet_schedules").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 5))

	mock.ExpectExec("DELETE FROM vet_schedules").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), 404)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
