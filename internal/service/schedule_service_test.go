package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
)

type mockScheduleRepo struct {
	schedules map[int64]*models.VetSchedule
	nextID    int64
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: map[int64]*models.VetSchedule{}, nextID: 1}
}

func (m *mockScheduleRepo) FindByID(_ context.Context, id int64) (*models.VetSchedule, error) {
	sc, ok := m.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sc
	return &cp, nil
}

func (m *mockScheduleRepo) ListByVet(_ context.Context, vetID int64) ([]models.VetSchedule, error) {
	var out []models.VetSchedule
	for _, sc := range m.schedules {
		if sc.VetID == vetID {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) ListOverlapping(_ context.Context, vetID, specialityID int64, weekday int, startTime, endTime string, excludeID int64) ([]models.VetSchedule, error) {
	var out []models.VetSchedule
	for _, sc := range m.schedules {
		if sc.ID == excludeID || sc.VetID != vetID || sc.SpecialityID != specialityID || sc.Weekday != weekday {
			continue
		}
		if startTime < sc.EndTime && sc.StartTime < endTime {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *models.VetSchedule) error {
	schedule.ID = m.nextID
	m.nextID++
	cp := *schedule
	m.schedules[cp.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) BulkCreate(ctx context.Context, schedules []models.VetSchedule) ([]models.VetSchedule, error) {
	created := make([]models.VetSchedule, 0, len(schedules))
	for i := range schedules {
		sc := schedules[i]
		if err := m.Create(ctx, &sc); err != nil {
			return nil, err
		}
		created = append(created, sc)
	}
	return created, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *models.VetSchedule) error {
	if _, ok := m.schedules[schedule.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *schedule
	m.schedules[cp.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.schedules[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.schedules, id)
	return nil
}

type mockVetReader struct {
	vets map[int64]*models.Vet
}

func (m *mockVetReader) FindByID(_ context.Context, id int64) (*models.Vet, error) {
	v, ok := m.vets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

func newScheduleTestService(repo *mockScheduleRepo) *ScheduleService {
	vets := &mockVetReader{vets: map[int64]*models.Vet{1: {ID: 1, Name: "Dr. Rivas"}}}
	return NewScheduleService(repo, vets, nil, validator.New(), zap.NewNop())
}

func mondayMorning() ScheduleRequest {
	return ScheduleRequest{VetID: 1, SpecialityID: 2, Weekday: 1, StartTime: "09:00", EndTime: "12:00"}
}

func TestScheduleCreate(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleTestService(repo)

	created, err := svc.Create(context.Background(), mondayMorning())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "09:00", created.StartTime)
	assert.Len(t, repo.schedules, 1)
}

func TestScheduleCreateRejectsInvertedInterval(t *testing.T) {
	svc := newScheduleTestService(newMockScheduleRepo())

	req := mondayMorning()
	req.StartTime, req.EndTime = "12:00", "09:00"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.EndTime = "12:00"
	_, err = svc.Create(context.Background(), req)
	assert.Error(t, err, "zero-length window is invalid")
}

func TestScheduleCreateRejectsOverlap(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleTestService(repo)

	_, err := svc.Create(context.Background(), mondayMorning())
	require.NoError(t, err)

	req := mondayMorning()
	req.StartTime, req.EndTime = "11:00", "14:00"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleCreateAllowsAdjacentWindows(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleTestService(repo)

	_, err := svc.Create(context.Background(), mondayMorning())
	require.NoError(t, err)

	req := mondayMorning()
	req.StartTime, req.EndTime = "12:00", "15:00"
	_, err = svc.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestScheduleCreateUnknownVet(t *testing.T) {
	svc := newScheduleTestService(newMockScheduleRepo())

	req := mondayMorning()
	req.VetID = 99
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleBulkCreateRejectsIntraBatchOverlap(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleTestService(repo)

	second := mondayMorning()
	second.StartTime, second.EndTime = "10:00", "13:00"
	_, err := svc.BulkCreate(context.Background(), []ScheduleRequest{mondayMorning(), second})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.schedules, "batch must be all or nothing")
}

func TestScheduleBulkCreate(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleTestService(repo)

	afternoon := mondayMorning()
	afternoon.StartTime, afternoon.EndTime = "14:00", "18:00"
	created, err := svc.BulkCreate(context.Background(), []ScheduleRequest{mondayMorning(), afternoon})
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Len(t, repo.schedules, 2)
}

func TestScheduleUpdateExcludesSelfFromOverlapCheck(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleTestService(repo)

	created, err := svc.Create(context.Background(), mondayMorning())
	require.NoError(t, err)

	req := mondayMorning()
	req.EndTime = "13:00"
	updated, err := svc.Update(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "13:00", updated.EndTime)
}

func TestScheduleUpdateNotFound(t *testing.T) {
	svc := newScheduleTestService(newMockScheduleRepo())

	_, err := svc.Update(context.Background(), 42, mondayMorning())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleDelete(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleTestService(repo)

	created, err := svc.Create(context.Background(), mondayMorning())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Empty(t, repo.schedules)

	err = svc.Delete(context.Background(), created.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetVetSchedulesGroupsByWeekday(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleTestService(repo)

	_, err := svc.Create(context.Background(), mondayMorning())
	require.NoError(t, err)
	tuesday := mondayMorning()
	tuesday.Weekday = 2
	_, err = svc.Create(context.Background(), tuesday)
	require.NoError(t, err)

	grouped, err := svc.GetVetSchedules(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, grouped, 2)
	assert.Len(t, grouped[1], 1)
	assert.Len(t, grouped[2], 1)
}
