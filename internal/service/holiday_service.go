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

type holidayRepository interface {
	List(ctx context.Context) ([]models.Holiday, error)
	ListByYear(ctx context.Context, year int) ([]models.Holiday, error)
	ExistsByDate(ctx context.Context, date string) (bool, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	CreateBatch(ctx context.Context, holidays []models.Holiday) ([]models.Holiday, error)
	Delete(ctx context.Context, id int64) error
}

// HolidayService manages clinic-wide closure dates.
type HolidayService struct {
	repo         holidayRepository
	availability *AvailabilityService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewHolidayService constructs the service.
func NewHolidayService(repo holidayRepository, availability *AvailabilityService, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerTimeValidations(validate)
	return &HolidayService{repo: repo, availability: availability, validator: validate, logger: logger}
}

// HolidayRequest is the create payload for one closure date.
type HolidayRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Date string `json:"date" validate:"required,isodate"`
}

// Create stores one holiday. Duplicate dates are rejected.
func (s *HolidayService) Create(ctx context.Context, req HolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	exists, err := s.repo.ExistsByDate(ctx, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("holiday already exists on %s", req.Date))
	}
	holiday := &models.Holiday{Name: req.Name, Date: req.Date}
	if err := s.repo.Create(ctx, holiday); err != nil {
		s.logger.Error("failed to create holiday", zap.String("date", req.Date), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	s.invalidate(ctx)
	return holiday, nil
}

// BulkCreate stores several holidays atomically, typically a whole year's
// calendar loaded at once.
func (s *HolidayService) BulkCreate(ctx context.Context, reqs []HolidayRequest) ([]models.Holiday, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty holiday batch")
	}
	seen := map[string]bool{}
	holidays := make([]models.Holiday, 0, len(reqs))
	for i, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: invalid holiday", i))
		}
		if seen[req.Date] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate date %s in batch", req.Date))
		}
		seen[req.Date] = true
		exists, err := s.repo.ExistsByDate(ctx, req.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("holiday already exists on %s", req.Date))
		}
		holidays = append(holidays, models.Holiday{Name: req.Name, Date: req.Date})
	}
	created, err := s.repo.CreateBatch(ctx, holidays)
	if err != nil {
		s.logger.Error("failed to bulk create holidays", zap.Int("count", len(holidays)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holidays")
	}
	s.invalidate(ctx)
	return created, nil
}

// Delete removes one holiday. Its date immediately becomes bookable again.
func (s *HolidayService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		s.logger.Error("failed to delete holiday", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	s.invalidate(ctx)
	return nil
}

// List returns every holiday.
func (s *HolidayService) List(ctx context.Context) ([]models.Holiday, error) {
	holidays, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return holidays, nil
}

// ListByYear returns the holidays of one calendar year.
func (s *HolidayService) ListByYear(ctx context.Context, year int) ([]models.Holiday, error) {
	if year < 2000 || year > 2100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid year")
	}
	holidays, err := s.repo.ListByYear(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return holidays, nil
}

// IsHoliday reports whether a date is a clinic-wide closure.
func (s *HolidayService) IsHoliday(ctx context.Context, date string) (bool, error) {
	if !validDate(date) {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	exists, err := s.repo.ExistsByDate(ctx, date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday")
	}
	return exists, nil
}

// Statistics summarises one year's holidays per month.
func (s *HolidayService) Statistics(ctx context.Context, year int) (*models.HolidayStatistics, error) {
	holidays, err := s.ListByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	stats := &models.HolidayStatistics{Year: year, TotalHolidays: len(holidays), ByMonth: map[string]int{}}
	for _, h := range holidays {
		d, err := parseDate(h.Date)
		if err != nil {
			continue
		}
		stats.ByMonth[d.Month().String()]++
	}
	return stats, nil
}

func (s *HolidayService) invalidate(ctx context.Context) {
	if s.availability != nil {
		s.availability.InvalidateAll(ctx)
	}
}
