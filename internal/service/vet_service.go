package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
)

type vetRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Vet, error)
	List(ctx context.Context, filter models.VetFilter) ([]models.Vet, int, error)
}

type petRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Pet, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Pet, error)
}

// VetService exposes read access to staff and patient records. Scheduling
// is the system of record for everything else about them.
type VetService struct {
	vets   vetRepository
	pets   petRepository
	logger *zap.Logger
}

// NewVetService constructs the service.
func NewVetService(vets vetRepository, pets petRepository, logger *zap.Logger) *VetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VetService{vets: vets, pets: pets, logger: logger}
}

// GetVet loads one veterinarian.
func (s *VetService) GetVet(ctx context.Context, id int64) (*models.Vet, error) {
	vet, err := s.vets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vet")
	}
	return vet, nil
}

// ListVets returns filtered, paginated staff and the total row count.
func (s *VetService) ListVets(ctx context.Context, filter models.VetFilter) ([]models.Vet, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	vets, total, err := s.vets.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vets")
	}
	return vets, total, nil
}

// GetPet loads one patient record.
func (s *VetService) GetPet(ctx context.Context, id int64) (*models.Pet, error) {
	pet, err := s.pets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pet")
	}
	return pet, nil
}

// ListPetsByOwner returns the pets registered to one owner.
func (s *VetService) ListPetsByOwner(ctx context.Context, ownerID int64) ([]models.Pet, error) {
	if ownerID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner_id required")
	}
	pets, err := s.pets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pets")
	}
	return pets, nil
}
