package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vetcare/clinic-api/internal/models"
	"github.com/vetcare/clinic-api/internal/service"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
	"github.com/vetcare/clinic-api/pkg/response"
)

// VetHandler exposes staff and patient read endpoints.
type VetHandler struct {
	service *service.VetService
}

// NewVetHandler constructs handler.
func NewVetHandler(svc *service.VetService) *VetHandler {
	return &VetHandler{service: svc}
}

// List godoc
// @Summary List veterinarians
// @Tags Vets
// @Produce json
// @Param speciality_id query int false "Filter by speciality"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /vets [get]
func (h *VetHandler) List(c *gin.Context) {
	filter := models.VetFilter{
		SpecialityID: int64Query(c, "speciality_id"),
		BranchID:     int64Query(c, "branch_id"),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	vets, total, err := h.service.ListVets(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, vets, pagination)
}

// Get godoc
// @Summary Get one veterinarian
// @Tags Vets
// @Produce json
// @Param vetId path int true "Vet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vets/{vetId} [get]
func (h *VetHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "vetId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid vet id"))
		return
	}
	vet, err := h.service.GetVet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vet, nil)
}

// GetPet godoc
// @Summary Get one patient record
// @Tags Pets
// @Produce json
// @Param id path int true "Pet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pets/{id} [get]
func (h *VetHandler) GetPet(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid pet id"))
		return
	}
	pet, err := h.service.GetPet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pet, nil)
}

// ListPetsByOwner godoc
// @Summary List an owner's pets
// @Tags Pets
// @Produce json
// @Param id path int true "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /owners/{id}/pets [get]
func (h *VetHandler) ListPetsByOwner(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid owner id"))
		return
	}
	pets, err := h.service.ListPetsByOwner(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pets, nil)
}
