package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vetcare/clinic-api/internal/models"
	"github.com/vetcare/clinic-api/internal/service"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
	"github.com/vetcare/clinic-api/pkg/response"
)

// AvailabilityHandler exposes the slot computation endpoints.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Day godoc
// @Summary Day availability for one vet
// @Tags Availability
// @Produce json
// @Param vet_id query int true "Vet ID"
// @Param speciality_id query int true "Speciality ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param duration query int false "Slot duration in minutes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/day [get]
func (h *AvailabilityHandler) Day(c *gin.Context) {
	vetID := int64Query(c, "vet_id")
	specID := int64Query(c, "speciality_id")
	if vetID == nil || specID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "vet_id and speciality_id are required"))
		return
	}
	req := service.DayAvailabilityRequest{
		VetID:           *vetID,
		SpecialityID:    *specID,
		BranchID:        int64Query(c, "branch_id"),
		Date:            c.Query("date"),
		DurationMinutes: intQuery(c, "duration", 0),
	}
	day, err := h.service.GetDayAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}

// Range godoc
// @Summary Availability for one or all vets over a date range
// @Tags Availability
// @Produce json
// @Param vet_id query int false "Vet ID (all active vets when omitted)"
// @Param speciality_id query int false "Speciality ID"
// @Param date_from query string true "Range start (YYYY-MM-DD)"
// @Param date_to query string true "Range end (YYYY-MM-DD)"
// @Param duration query int false "Slot duration in minutes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Range(c *gin.Context) {
	query := models.AvailabilityQuery{
		VetID:           int64Query(c, "vet_id"),
		SpecialityID:    int64Query(c, "speciality_id"),
		BranchID:        int64Query(c, "branch_id"),
		DateFrom:        c.Query("date_from"),
		DateTo:          c.Query("date_to"),
		DurationMinutes: intQuery(c, "duration", 0),
	}
	weeks, err := h.service.GetMultipleVetsAvailability(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weeks, nil)
}

// Check godoc
// @Summary Check one candidate slot
// @Tags Availability
// @Produce json
// @Param vet_id query int true "Vet ID"
// @Param speciality_id query int true "Speciality ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Start time (HH:MM)"
// @Param duration query int false "Slot duration in minutes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/check [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	vetID := int64Query(c, "vet_id")
	specID := int64Query(c, "speciality_id")
	if vetID == nil || specID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "vet_id and speciality_id are required"))
		return
	}
	req := service.SlotCheckRequest{
		VetID:           *vetID,
		SpecialityID:    *specID,
		Date:            c.Query("date"),
		StartTime:       c.Query("start_time"),
		DurationMinutes: intQuery(c, "duration", 0),
	}
	available, err := h.service.IsSlotAvailable(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"available": available}, nil)
}

// Next godoc
// @Summary Earliest free slot at or after a date
// @Tags Availability
// @Produce json
// @Param vet_id query int true "Vet ID"
// @Param speciality_id query int true "Speciality ID"
// @Param from_date query string true "Search start (YYYY-MM-DD)"
// @Param duration query int false "Slot duration in minutes"
// @Param max_days query int false "Search horizon in days"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/next [get]
func (h *AvailabilityHandler) Next(c *gin.Context) {
	vetID := int64Query(c, "vet_id")
	specID := int64Query(c, "speciality_id")
	if vetID == nil || specID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "vet_id and speciality_id are required"))
		return
	}
	req := service.NextSlotRequest{
		VetID:           *vetID,
		SpecialityID:    *specID,
		FromDate:        c.Query("from_date"),
		DurationMinutes: intQuery(c, "duration", 0),
		MaxDays:         intQuery(c, "max_days", 0),
	}
	slot, err := h.service.FindNextAvailableSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if slot == nil {
		response.JSON(c, http.StatusOK, gin.H{"slot": nil, "found": false}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"slot": slot, "found": true}, nil)
}

// Statistics godoc
// @Summary Slot occupancy statistics
// @Tags Availability
// @Produce json
// @Param vet_id query int true "Vet ID"
// @Param speciality_id query int true "Speciality ID"
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/statistics [get]
func (h *AvailabilityHandler) Statistics(c *gin.Context) {
	vetID := int64Query(c, "vet_id")
	specID := int64Query(c, "speciality_id")
	if vetID == nil || specID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "vet_id and speciality_id are required"))
		return
	}
	req := service.StatisticsRequest{
		VetID:           *vetID,
		SpecialityID:    *specID,
		StartDate:       c.Query("start_date"),
		EndDate:         c.Query("end_date"),
		DurationMinutes: intQuery(c, "duration", 0),
	}
	stats, err := h.service.GetStatistics(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
