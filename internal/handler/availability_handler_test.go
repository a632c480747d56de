package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetcare/clinic-api/internal/models"
	"github.com/vetcare/clinic-api/internal/service"
	"github.com/vetcare/clinic-api/pkg/config"
)

type fakeWindowRepo struct {
	windows []models.VetSchedule
}

func (f *fakeWindowRepo) ListWindows(context.Context, int64, *int64, int) ([]models.VetSchedule, error) {
	return f.windows, nil
}

type fakeBlockRepo struct{}

func (fakeBlockRepo) ListByDate(context.Context, int64, string) ([]models.AppointmentBlock, error) {
	return nil, nil
}

type fakeHolidayRepo struct {
	dates map[string]bool
}

func (f *fakeHolidayRepo) ExistsByDate(_ context.Context, date string) (bool, error) {
	return f.dates[date], nil
}

type fakeApptRepo struct {
	appts []models.Appointment
}

func (f *fakeApptRepo) ListByVetAndDate(context.Context, int64, string) ([]models.Appointment, error) {
	return f.appts, nil
}

type fakeVetIDs struct{}

func (fakeVetIDs) ListActiveIDs(context.Context) ([]int64, error) {
	return []int64{1}, nil
}

func newAvailabilityTestHandler(holidays map[string]bool) *AvailabilityHandler {
	windows := &fakeWindowRepo{windows: []models.VetSchedule{
		{ID: 1, VetID: 1, SpecialityID: 2, Weekday: 1, StartTime: "09:00", EndTime: "12:00"},
	}}
	svc := service.NewAvailabilityService(
		windows, fakeBlockRepo{}, &fakeHolidayRepo{dates: holidays}, &fakeApptRepo{}, fakeVetIDs{},
		nil, config.SchedulingConfig{SlotStepMinutes: 30, DefaultDurationMinutes: 30, MaxSearchDays: 30},
		validator.New(), zap.NewNop())
	return NewAvailabilityHandler(svc)
}

func performGet(handler gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	handler(c)
	return rec
}

func TestAvailabilityHandlerDay(t *testing.T) {
	handler := newAvailabilityTestHandler(nil)

	rec := performGet(handler.Day, "/availability/day?vet_id=1&speciality_id=2&date=2026-09-14")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                   `json:"success"`
		Data    models.DayAvailability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Len(t, envelope.Data.AvailableSlots, 6)
}

func TestAvailabilityHandlerDayRequiresVetAndSpeciality(t *testing.T) {
	handler := newAvailabilityTestHandler(nil)

	rec := performGet(handler.Day, "/availability/day?date=2026-09-14")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityHandlerDayInvalidDate(t *testing.T) {
	handler := newAvailabilityTestHandler(nil)

	rec := performGet(handler.Day, "/availability/day?vet_id=1&speciality_id=2&date=14-09-2026")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityHandlerCheck(t *testing.T) {
	handler := newAvailabilityTestHandler(nil)

	rec := performGet(handler.Check, "/availability/check?vet_id=1&speciality_id=2&date=2026-09-14&start_time=09:00")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data["available"])

	rec = performGet(handler.Check, "/availability/check?vet_id=1&speciality_id=2&date=2026-09-14&start_time=13:00")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data["available"])
}

func TestAvailabilityHandlerNext(t *testing.T) {
	handler := newAvailabilityTestHandler(map[string]bool{"2026-09-14": true})

	rec := performGet(handler.Next, "/availability/next?vet_id=1&speciality_id=2&from_date=2026-09-14")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Found bool         `json:"found"`
			Slot  *models.Slot `json:"slot"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Found)
	require.NotNil(t, envelope.Data.Slot)
	assert.Equal(t, "2026-09-15", envelope.Data.Slot.Date)
}

func TestAvailabilityHandlerRange(t *testing.T) {
	handler := newAvailabilityTestHandler(nil)

	rec := performGet(handler.Range, "/availability?date_from=2026-09-14&date_to=2026-09-15")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []models.WeekAvailability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Len(t, envelope.Data[0].Days, 2)
}

func TestAvailabilityHandlerStatistics(t *testing.T) {
	handler := newAvailabilityTestHandler(map[string]bool{"2026-09-14": true})

	rec := performGet(handler.Statistics, "/availability/statistics?vet_id=1&speciality_id=2&start_date=2026-09-14&end_date=2026-09-15")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.AvailabilityStatistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.HolidayDays)
	assert.Equal(t, 6, envelope.Data.TotalSlots)
}
