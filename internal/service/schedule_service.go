package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
)

type scheduleRepository interface {
	FindByID(ctx context.Context, id int64) (*models.VetSchedule, error)
	ListByVet(ctx context.Context, vetID int64) ([]models.VetSchedule, error)
	ListOverlapping(ctx context.Context, vetID, specialityID int64, weekday int, startTime, endTime string, excludeID int64) ([]models.VetSchedule, error)
	Create(ctx context.Context, schedule *models.VetSchedule) error
	BulkCreate(ctx context.Context, schedules []models.VetSchedule) ([]models.VetSchedule, error)
	Update(ctx context.Context, schedule *models.VetSchedule) error
	Delete(ctx context.Context, id int64) error
}

type scheduleVetReader interface {
	FindByID(ctx context.Context, id int64) (*models.Vet, error)
}

// ScheduleService manages weekly availability windows.
type ScheduleService struct {
	repo         scheduleRepository
	vets         scheduleVetReader
	availability *AvailabilityService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(repo scheduleRepository, vets scheduleVetReader, availability *AvailabilityService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerTimeValidations(validate)
	return &ScheduleService{repo: repo, vets: vets, availability: availability, validator: validate, logger: logger}
}

// ScheduleRequest is the create/update payload for one window.
type ScheduleRequest struct {
	VetID        int64  `json:"vet_id" validate:"required,gt=0"`
	SpecialityID int64  `json:"speciality_id" validate:"required,gt=0"`
	Weekday      int    `json:"weekday" validate:"min=0,max=6"`
	StartTime    string `json:"start_time" validate:"required,hhmm"`
	EndTime      string `json:"end_time" validate:"required,hhmm"`
}

// Create stores one window after rejecting inverted intervals and overlaps
// with existing windows for the same vet/speciality/weekday.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.VetSchedule, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.ensureVet(ctx, req.VetID); err != nil {
		return nil, err
	}
	if err := s.ensureNoOverlap(ctx, req, 0); err != nil {
		return nil, err
	}
	schedule := &models.VetSchedule{
		VetID:        req.VetID,
		SpecialityID: req.SpecialityID,
		Weekday:      req.Weekday,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		s.logger.Error("failed to create schedule", zap.Int64("vet_id", req.VetID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	s.invalidate(ctx, req.VetID)
	return schedule, nil
}

// BulkCreate stores several windows atomically. Any invalid or overlapping
// entry rejects the whole batch.
func (s *ScheduleService) BulkCreate(ctx context.Context, reqs []ScheduleRequest) ([]models.VetSchedule, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty schedule batch")
	}
	schedules := make([]models.VetSchedule, 0, len(reqs))
	for i, req := range reqs {
		if err := s.validateRequest(req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: invalid schedule", i))
		}
		for j := 0; j < i; j++ {
			prev := reqs[j]
			if prev.VetID == req.VetID && prev.SpecialityID == req.SpecialityID && prev.Weekday == req.Weekday &&
				overlapsHHMM(prev.StartTime, prev.EndTime, req.StartTime, req.EndTime) {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("entries %d and %d overlap", j, i))
			}
		}
		if err := s.ensureNoOverlap(ctx, req, 0); err != nil {
			return nil, err
		}
		schedules = append(schedules, models.VetSchedule{
			VetID:        req.VetID,
			SpecialityID: req.SpecialityID,
			Weekday:      req.Weekday,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
		})
	}
	if err := s.ensureVet(ctx, reqs[0].VetID); err != nil {
		return nil, err
	}
	created, err := s.repo.BulkCreate(ctx, schedules)
	if err != nil {
		s.logger.Error("failed to bulk create schedules", zap.Int("count", len(schedules)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedules")
	}
	seen := map[int64]bool{}
	for _, sc := range created {
		if !seen[sc.VetID] {
			seen[sc.VetID] = true
			s.invalidate(ctx, sc.VetID)
		}
	}
	return created, nil
}

// Update rewrites one window, applying the same validation as Create.
func (s *ScheduleService) Update(ctx context.Context, id int64, req ScheduleRequest) (*models.VetSchedule, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.ensureNoOverlap(ctx, req, id); err != nil {
		return nil, err
	}
	existing.VetID = req.VetID
	existing.SpecialityID = req.SpecialityID
	existing.Weekday = req.Weekday
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		s.logger.Error("failed to update schedule", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	s.invalidate(ctx, existing.VetID)
	return existing, nil
}

// Delete removes one window. Existing appointments are untouched; future
// availability simply stops offering the window's slots.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		s.logger.Error("failed to delete schedule", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.invalidate(ctx, existing.VetID)
	return nil
}

// GetByID loads one window.
func (s *ScheduleService) GetByID(ctx context.Context, id int64) (*models.VetSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// GetVetSchedules lists every window for one vet grouped by weekday.
func (s *ScheduleService) GetVetSchedules(ctx context.Context, vetID int64) (map[int][]models.VetSchedule, error) {
	if vetID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "vet_id required")
	}
	schedules, err := s.repo.ListByVet(ctx, vetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	grouped := make(map[int][]models.VetSchedule, 7)
	for _, sc := range schedules {
		grouped[sc.Weekday] = append(grouped[sc.Weekday], sc)
	}
	return grouped, nil
}

func (s *ScheduleService) validateRequest(req ScheduleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.StartTime >= req.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must precede end_time")
	}
	return nil
}

func (s *ScheduleService) ensureVet(ctx context.Context, vetID int64) error {
	if s.vets == nil {
		return nil
	}
	if _, err := s.vets.FindByID(ctx, vetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "vet not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vet")
	}
	return nil
}

func (s *ScheduleService) ensureNoOverlap(ctx context.Context, req ScheduleRequest, excludeID int64) error {
	overlapping, err := s.repo.ListOverlapping(ctx, req.VetID, req.SpecialityID, req.Weekday, req.StartTime, req.EndTime, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule overlap")
	}
	if len(overlapping) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("window overlaps schedule %d", overlapping[0].ID))
	}
	return nil
}

func (s *ScheduleService) invalidate(ctx context.Context, vetID int64) {
	if s.availability != nil {
		s.availability.InvalidateVet(ctx, vetID)
	}
}
