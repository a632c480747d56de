package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
)

type blockRepository interface {
	FindByID(ctx context.Context, id int64) (*models.AppointmentBlock, error)
	ListByVet(ctx context.Context, vetID int64) ([]models.AppointmentBlock, error)
	ListByDateRange(ctx context.Context, vetID int64, startDate, endDate string) ([]models.AppointmentBlock, error)
	Create(ctx context.Context, block *models.AppointmentBlock) error
	CreateBatch(ctx context.Context, blocks []models.AppointmentBlock) ([]models.AppointmentBlock, error)
	Update(ctx context.Context, block *models.AppointmentBlock) error
	Delete(ctx context.Context, id int64) error
}

// BlockService manages one-off unavailability intervals.
type BlockService struct {
	repo         blockRepository
	availability *AvailabilityService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewBlockService constructs the service.
func NewBlockService(repo blockRepository, availability *AvailabilityService, validate *validator.Validate, logger *zap.Logger) *BlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerTimeValidations(validate)
	return &BlockService{repo: repo, availability: availability, validator: validate, logger: logger, now: time.Now}
}

// BlockRequest is the create/update payload for one block.
type BlockRequest struct {
	VetID     int64  `json:"vet_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required,isodate"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	Reason    string `json:"reason" validate:"required,max=255"`
}

// RecurringBlockRequest fans one interval out over a caller-supplied list
// of dates. Callers expand whatever recurrence pattern they want before
// submitting; the service only stores concrete dates.
type RecurringBlockRequest struct {
	VetID     int64    `json:"vet_id" validate:"required,gt=0"`
	Dates     []string `json:"dates" validate:"required,min=1,dive,isodate"`
	StartTime string   `json:"start_time" validate:"required,hhmm"`
	EndTime   string   `json:"end_time" validate:"required,hhmm"`
	Reason    string   `json:"reason" validate:"required,max=255"`
}

// Create stores one block. Past dates are rejected; the same-day case is
// allowed so a receptionist can block the rest of today.
func (s *BlockService) Create(ctx context.Context, req BlockRequest) (*models.AppointmentBlock, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	block := &models.AppointmentBlock{
		VetID:     req.VetID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}
	if err := s.repo.Create(ctx, block); err != nil {
		s.logger.Error("failed to create block", zap.Int64("vet_id", req.VetID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create block")
	}
	s.invalidate(ctx, req.VetID)
	return block, nil
}

// CreateRecurring stores one block per listed date, atomically. Duplicate
// and past dates reject the whole batch before anything is written.
func (s *BlockService) CreateRecurring(ctx context.Context, req RecurringBlockRequest) ([]models.AppointmentBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurring block payload")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must precede end_time")
	}

	seen := make(map[string]bool, len(req.Dates))
	blocks := make([]models.AppointmentBlock, 0, len(req.Dates))
	for _, date := range req.Dates {
		if seen[date] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate date %s", date))
		}
		seen[date] = true
		if s.isPast(date) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date %s is in the past", date))
		}
		blocks = append(blocks, models.AppointmentBlock{
			VetID:     req.VetID,
			Date:      date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Reason:    req.Reason,
		})
	}
	created, err := s.repo.CreateBatch(ctx, blocks)
	if err != nil {
		s.logger.Error("failed to create recurring blocks", zap.Int64("vet_id", req.VetID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blocks")
	}
	s.invalidate(ctx, req.VetID)
	return created, nil
}

// Update rewrites one block.
func (s *BlockService) Update(ctx context.Context, id int64, req BlockRequest) (*models.AppointmentBlock, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}
	existing.VetID = req.VetID
	existing.Date = req.Date
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.Reason = req.Reason
	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "block not found")
		}
		s.logger.Error("failed to update block", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update block")
	}
	s.invalidate(ctx, existing.VetID)
	return existing, nil
}

// Delete removes one block.
func (s *BlockService) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "block not found")
		}
		s.logger.Error("failed to delete block", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete block")
	}
	s.invalidate(ctx, existing.VetID)
	return nil
}

// ListByVet returns every block for one vet.
func (s *BlockService) ListByVet(ctx context.Context, vetID int64) ([]models.AppointmentBlock, error) {
	if vetID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "vet_id required")
	}
	blocks, err := s.repo.ListByVet(ctx, vetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks")
	}
	return blocks, nil
}

// ListByDateRange returns one vet's blocks inside an inclusive date range.
func (s *BlockService) ListByDateRange(ctx context.Context, vetID int64, startDate, endDate string) ([]models.AppointmentBlock, error) {
	if vetID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "vet_id required")
	}
	if !validDate(startDate) || !validDate(endDate) || endDate < startDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date range")
	}
	blocks, err := s.repo.ListByDateRange(ctx, vetID, startDate, endDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks")
	}
	return blocks, nil
}

// Statistics sums block usage for one vet over an inclusive date range.
func (s *BlockService) Statistics(ctx context.Context, vetID int64, startDate, endDate string) (*models.BlockStatistics, error) {
	if vetID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "vet_id required")
	}
	if !validDate(startDate) || !validDate(endDate) || endDate < startDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date range")
	}
	blocks, err := s.repo.ListByDateRange(ctx, vetID, startDate, endDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks")
	}
	stats := &models.BlockStatistics{VetID: vetID, StartDate: startDate, EndDate: endDate, TotalBlocks: len(blocks)}
	for _, b := range blocks {
		start, err := parseHHMM(b.StartTime)
		if err != nil {
			continue
		}
		end, err := parseHHMM(b.EndTime)
		if err != nil {
			continue
		}
		if end > start {
			stats.BlockedMinutes += end - start
		}
	}
	return stats, nil
}

func (s *BlockService) validateRequest(req BlockRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block payload")
	}
	if req.StartTime >= req.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must precede end_time")
	}
	if s.isPast(req.Date) {
		return appErrors.Clone(appErrors.ErrValidation, "date must not be in the past")
	}
	return nil
}

func (s *BlockService) isPast(date string) bool {
	today := s.now().Format(dateLayout)
	return date < today
}

func (s *BlockService) invalidate(ctx context.Context, vetID int64) {
	if s.availability != nil {
		s.availability.InvalidateVet(ctx, vetID)
	}
}
