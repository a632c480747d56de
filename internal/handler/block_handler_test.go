package handler

import (
	"context"
	"database/sql"
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
)

type fakeBlockStore struct {
	blocks []models.AppointmentBlock
}

func (f *fakeBlockStore) FindByID(_ context.Context, id int64) (*models.AppointmentBlock, error) {
	for i := range f.blocks {
		if f.blocks[i].ID == id {
			return &f.blocks[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeBlockStore) ListByVet(_ context.Context, vetID int64) ([]models.AppointmentBlock, error) {
	var out []models.AppointmentBlock
	for _, b := range f.blocks {
		if b.VetID == vetID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBlockStore) ListByDateRange(_ context.Context, vetID int64, startDate, endDate string) ([]models.AppointmentBlock, error) {
	var out []models.AppointmentBlock
	for _, b := range f.blocks {
		if b.VetID == vetID && b.Date >= startDate && b.Date <= endDate {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBlockStore) Create(_ context.Context, block *models.AppointmentBlock) error {
	block.ID = int64(len(f.blocks) + 1)
	f.blocks = append(f.blocks, *block)
	return nil
}

func (f *fakeBlockStore) CreateBatch(ctx context.Context, blocks []models.AppointmentBlock) ([]models.AppointmentBlock, error) {
	created := make([]models.AppointmentBlock, 0, len(blocks))
	for i := range blocks {
		b := blocks[i]
		if err := f.Create(ctx, &b); err != nil {
			return nil, err
		}
		created = append(created, b)
	}
	return created, nil
}

func (f *fakeBlockStore) Update(_ context.Context, block *models.AppointmentBlock) error {
	for i := range f.blocks {
		if f.blocks[i].ID == block.ID {
			f.blocks[i] = *block
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeBlockStore) Delete(_ context.Context, id int64) error {
	for i := range f.blocks {
		if f.blocks[i].ID == id {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func newBlockTestHandler(store *fakeBlockStore) *BlockHandler {
	svc := service.NewBlockService(store, nil, validator.New(), zap.NewNop())
	return NewBlockHandler(svc)
}

func performBlockGet(handler gin.HandlerFunc, target string, params ...gin.Param) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = params
	handler(c)
	return rec
}

func TestBlockHandlerListByVet(t *testing.T) {
	store := &fakeBlockStore{blocks: []models.AppointmentBlock{
		{ID: 1, VetID: 7, Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00", Reason: "surgery"},
		{ID: 2, VetID: 7, Date: "2026-09-20", StartTime: "09:00", EndTime: "09:30", Reason: "meeting"},
		{ID: 3, VetID: 8, Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00", Reason: "other vet"},
	}}
	handler := newBlockTestHandler(store)

	rec := performBlockGet(handler.ListByVet, "/vets/7/blocks", gin.Param{Key: "vetId", Value: "7"})
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []models.AppointmentBlock `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
}

func TestBlockHandlerListByVetNarrowsToDateRange(t *testing.T) {
	store := &fakeBlockStore{blocks: []models.AppointmentBlock{
		{ID: 1, VetID: 7, Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00", Reason: "surgery"},
		{ID: 2, VetID: 7, Date: "2026-09-20", StartTime: "09:00", EndTime: "09:30", Reason: "meeting"},
	}}
	handler := newBlockTestHandler(store)

	rec := performBlockGet(handler.ListByVet,
		"/vets/7/blocks?start_date=2026-09-14&end_date=2026-09-16",
		gin.Param{Key: "vetId", Value: "7"})
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []models.AppointmentBlock `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "2026-09-15", envelope.Data[0].Date)
}

func TestBlockHandlerListByVetRejectsInvertedRange(t *testing.T) {
	handler := newBlockTestHandler(&fakeBlockStore{})

	rec := performBlockGet(handler.ListByVet,
		"/vets/7/blocks?start_date=2026-09-16&end_date=2026-09-14",
		gin.Param{Key: "vetId", Value: "7"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
