package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
)

type mockHolidayRepo struct {
	holidays map[int64]*models.Holiday
	nextID   int64
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{holidays: map[int64]*models.Holiday{}, nextID: 1}
}

func (m *mockHolidayRepo) List(_ context.Context) ([]models.Holiday, error) {
	var out []models.Holiday
	for _, h := range m.holidays {
		out = append(out, *h)
	}
	return out, nil
}

func (m *mockHolidayRepo) ListByYear(_ context.Context, year int) ([]models.Holiday, error) {
	prefix := strconv.Itoa(year) + "-"
	var out []models.Holiday
	for _, h := range m.holidays {
		if len(h.Date) >= len(prefix) && h.Date[:len(prefix)] == prefix {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *mockHolidayRepo) ExistsByDate(_ context.Context, date string) (bool, error) {
	for _, h := range m.holidays {
		if h.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockHolidayRepo) Create(_ context.Context, holiday *models.Holiday) error {
	holiday.ID = m.nextID
	m.nextID++
	cp := *holiday
	m.holidays[cp.ID] = &cp
	return nil
}

func (m *mockHolidayRepo) CreateBatch(ctx context.Context, holidays []models.Holiday) ([]models.Holiday, error) {
	created := make([]models.Holiday, 0, len(holidays))
	for i := range holidays {
		h := holidays[i]
		if err := m.Create(ctx, &h); err != nil {
			return nil, err
		}
		created = append(created, h)
	}
	return created, nil
}

func (m *mockHolidayRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.holidays[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.holidays, id)
	return nil
}

func newHolidayTestService(repo *mockHolidayRepo) *HolidayService {
	return NewHolidayService(repo, nil, validator.New(), zap.NewNop())
}

func TestHolidayCreate(t *testing.T) {
	repo := newMockHolidayRepo()
	svc := newHolidayTestService(repo)

	holiday, err := svc.Create(context.Background(), HolidayRequest{Name: "Navidad", Date: "2026-12-25"})
	require.NoError(t, err)
	assert.NotZero(t, holiday.ID)
	assert.Len(t, repo.holidays, 1)
}

func TestHolidayCreateRejectsDuplicateDate(t *testing.T) {
	svc := newHolidayTestService(newMockHolidayRepo())

	_, err := svc.Create(context.Background(), HolidayRequest{Name: "Navidad", Date: "2026-12-25"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), HolidayRequest{Name: "Christmas", Date: "2026-12-25"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestHolidayBulkCreate(t *testing.T) {
	repo := newMockHolidayRepo()
	svc := newHolidayTestService(repo)

	created, err := svc.BulkCreate(context.Background(), []HolidayRequest{
		{Name: "Año Nuevo", Date: "2027-01-01"},
		{Name: "Navidad", Date: "2027-12-25"},
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestHolidayBulkCreateRejectsDuplicateInBatch(t *testing.T) {
	repo := newMockHolidayRepo()
	svc := newHolidayTestService(repo)

	_, err := svc.BulkCreate(context.Background(), []HolidayRequest{
		{Name: "Navidad", Date: "2026-12-25"},
		{Name: "Christmas", Date: "2026-12-25"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.holidays, "batch must be all or nothing")
}

func TestHolidayBulkCreateRejectsExistingDate(t *testing.T) {
	repo := newMockHolidayRepo()
	svc := newHolidayTestService(repo)

	_, err := svc.Create(context.Background(), HolidayRequest{Name: "Navidad", Date: "2026-12-25"})
	require.NoError(t, err)

	_, err = svc.BulkCreate(context.Background(), []HolidayRequest{
		{Name: "Año Nuevo", Date: "2027-01-01"},
		{Name: "Christmas", Date: "2026-12-25"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestHolidayDelete(t *testing.T) {
	repo := newMockHolidayRepo()
	svc := newHolidayTestService(repo)

	holiday, err := svc.Create(context.Background(), HolidayRequest{Name: "Navidad", Date: "2026-12-25"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), holiday.ID))

	err = svc.Delete(context.Background(), holiday.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHolidayIsHoliday(t *testing.T) {
	repo := newMockHolidayRepo()
	svc := newHolidayTestService(repo)

	_, err := svc.Create(context.Background(), HolidayRequest{Name: "Navidad", Date: "2026-12-25"})
	require.NoError(t, err)

	yes, err := svc.IsHoliday(context.Background(), "2026-12-25")
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := svc.IsHoliday(context.Background(), "2026-12-24")
	require.NoError(t, err)
	assert.False(t, no)

	_, err = svc.IsHoliday(context.Background(), "25/12/2026")
	assert.Error(t, err)
}

func TestHolidayListByYearValidatesRange(t *testing.T) {
	svc := newHolidayTestService(newMockHolidayRepo())

	_, err := svc.ListByYear(context.Background(), 1990)
	assert.Error(t, err)
}

func TestHolidayStatistics(t *testing.T) {
	repo := newMockHolidayRepo()
	svc := newHolidayTestService(repo)

	_, err := svc.BulkCreate(context.Background(), []HolidayRequest{
		{Name: "Navidad", Date: "2026-12-25"},
		{Name: "Año Nuevo observado", Date: "2026-12-31"},
		{Name: "Independencia", Date: "2026-07-28"},
	})
	require.NoError(t, err)

	stats, err := svc.Statistics(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalHolidays)
	assert.Equal(t, 2, stats.ByMonth["December"])
	assert.Equal(t, 1, stats.ByMonth["July"])
}
