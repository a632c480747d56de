package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vetcare/clinic-api/internal/models"
	"github.com/vetcare/clinic-api/internal/service"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
	"github.com/vetcare/clinic-api/pkg/response"
)

// BlockHandler manages block endpoints.
type BlockHandler struct {
	service *service.BlockService
}

// NewBlockHandler constructs handler.
func NewBlockHandler(svc *service.BlockService) *BlockHandler {
	return &BlockHandler{service: svc}
}

// Create godoc
// @Summary Create block
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body service.BlockRequest true "Block payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /blocks [post]
func (h *BlockHandler) Create(c *gin.Context) {
	var req service.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid block payload"))
		return
	}
	block, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// CreateRecurring godoc
// @Summary Create one block per listed date
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body service.RecurringBlockRequest true "Recurring block payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /blocks/recurring [post]
func (h *BlockHandler) CreateRecurring(c *gin.Context) {
	var req service.RecurringBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recurring block payload"))
		return
	}
	blocks, err := h.service.CreateRecurring(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blocks)
}

// Update godoc
// @Summary Update block
// @Tags Blocks
// @Accept json
// @Produce json
// @Param id path int true "Block ID"
// @Param payload body service.BlockRequest true "Block payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blocks/{id} [put]
func (h *BlockHandler) Update(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid block id"))
		return
	}
	var req service.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid block payload"))
		return
	}
	block, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// Delete godoc
// @Summary Delete block
// @Tags Blocks
// @Param id path int true "Block ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /blocks/{id} [delete]
func (h *BlockHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid block id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByVet godoc
// @Summary List a vet's blocks, optionally narrowed to a date range
// @Tags Blocks
// @Produce json
// @Param vetId path int true "Vet ID"
// @Param start_date query string false "Range start (YYYY-MM-DD)"
// @Param end_date query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /vets/{vetId}/blocks [get]
func (h *BlockHandler) ListByVet(c *gin.Context) {
	vetID, ok := int64Param(c, "vetId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid vet id"))
		return
	}
	startDate, endDate := c.Query("start_date"), c.Query("end_date")
	var (
		blocks []models.AppointmentBlock
		err    error
	)
	if startDate != "" || endDate != "" {
		blocks, err = h.service.ListByDateRange(c.Request.Context(), vetID, startDate, endDate)
	} else {
		blocks, err = h.service.ListByVet(c.Request.Context(), vetID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}

// Statistics godoc
// @Summary Block usage statistics for a vet
// @Tags Blocks
// @Produce json
// @Param vetId path int true "Vet ID"
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /vets/{vetId}/blocks/statistics [get]
func (h *BlockHandler) Statistics(c *gin.Context) {
	vetID, ok := int64Param(c, "vetId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid vet id"))
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), vetID, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
