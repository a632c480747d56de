package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vetcare/clinic-api/internal/service"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
	"github.com/vetcare/clinic-api/pkg/response"
)

// HolidayHandler manages holiday endpoints.
type HolidayHandler struct {
	service *service.HolidayService
}

// NewHolidayHandler constructs handler.
func NewHolidayHandler(svc *service.HolidayService) *HolidayHandler {
	return &HolidayHandler{service: svc}
}

// List godoc
// @Summary List holidays
// @Tags Holidays
// @Produce json
// @Param year query int false "Filter by calendar year"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	if year := intQuery(c, "year", 0); year != 0 {
		holidays, err := h.service.ListByYear(c.Request.Context(), year)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, holidays, nil)
		return
	}
	holidays, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, nil)
}

// Create godoc
// @Summary Create holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body service.HolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /holidays [post]
func (h *HolidayHandler) Create(c *gin.Context) {
	var req service.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}
	holiday, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// BulkCreate godoc
// @Summary Create several holidays atomically
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body []service.HolidayRequest true "Holidays"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /holidays/bulk [post]
func (h *HolidayHandler) BulkCreate(c *gin.Context) {
	var reqs []service.HolidayRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}
	holidays, err := h.service.BulkCreate(c.Request.Context(), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holidays)
}

// Delete godoc
// @Summary Delete holiday
// @Tags Holidays
// @Param id path int true "Holiday ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /holidays/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid holiday id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Check godoc
// @Summary Check whether a date is a holiday
// @Tags Holidays
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /holidays/check [get]
func (h *HolidayHandler) Check(c *gin.Context) {
	date := c.Query("date")
	isHoliday, err := h.service.IsHoliday(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"date": date, "is_holiday": isHoliday}, nil)
}

// Statistics godoc
// @Summary Holiday statistics per month
// @Tags Holidays
// @Produce json
// @Param year query int false "Calendar year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /holidays/statistics [get]
func (h *HolidayHandler) Statistics(c *gin.Context) {
	year := intQuery(c, "year", time.Now().Year())
	stats, err := h.service.Statistics(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
