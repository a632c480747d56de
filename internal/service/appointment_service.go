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
	"github.com/vetcare/clinic-api/internal/repository"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
)

type appointmentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	Create(ctx context.Context, appt *models.Appointment) error
	UpdateSlot(ctx context.Context, appt *models.Appointment) error
	UpdateStatus(ctx context.Context, id int64, status models.AppointmentStatus) error
}

type appointmentPetReader interface {
	FindByID(ctx context.Context, id int64) (*models.Pet, error)
}

// allowedTransitions encodes the appointment lifecycle. Terminal statuses
// have no outgoing edges.
var allowedTransitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusProgramada:   {models.StatusConfirmada, models.StatusCancelada, models.StatusReprogramada},
	models.StatusConfirmada:   {models.StatusEnCurso, models.StatusCancelada, models.StatusNoAsistio, models.StatusReprogramada},
	models.StatusEnCurso:      {models.StatusCompletada, models.StatusCancelada},
	models.StatusReprogramada: {models.StatusConfirmada, models.StatusCancelada},
}

// AppointmentService books and manages visits. Every create and reschedule
// goes through both a read-side availability check and the repository's
// row-locked conflict guard, so two concurrent bookings for the same slot
// never both succeed.
type AppointmentService struct {
	repo         appointmentRepository
	pets         appointmentPetReader
	vets         scheduleVetReader
	availability *AvailabilityService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewAppointmentService constructs the service.
func NewAppointmentService(repo appointmentRepository, pets appointmentPetReader, vets scheduleVetReader, availability *AvailabilityService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerTimeValidations(validate)
	return &AppointmentService{repo: repo, pets: pets, vets: vets, availability: availability, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// AppointmentRequest is the booking payload.
type AppointmentRequest struct {
	VetID           int64   `json:"vet_id" validate:"required,gt=0"`
	PetID           int64   `json:"pet_id" validate:"required,gt=0"`
	UserID          int64   `json:"user_id" validate:"required,gt=0"`
	SpecialityID    int64   `json:"speciality_id" validate:"required,gt=0"`
	BranchID        int64   `json:"branch_id" validate:"required,gt=0"`
	Date            string  `json:"date" validate:"required,isodate"`
	Hour            string  `json:"hour" validate:"required,hhmm"`
	DurationMinutes int     `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
	Notes           *string `json:"notes,omitempty"`
}

// RescheduleRequest moves an existing appointment to a new slot.
type RescheduleRequest struct {
	Date            string `json:"date" validate:"required,isodate"`
	Hour            string `json:"hour" validate:"required,hhmm"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
}

// Create books a new appointment in status programada.
func (s *AppointmentService) Create(ctx context.Context, req AppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.availability.cfg.DefaultDurationMinutes
	}
	if s.isPast(req.Date, req.Hour) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment must not be in the past")
	}
	if err := s.ensureReferences(ctx, req.VetID, req.PetID); err != nil {
		return nil, err
	}

	available, err := s.availability.IsSlotAvailable(ctx, SlotCheckRequest{
		VetID:           req.VetID,
		SpecialityID:    req.SpecialityID,
		Date:            req.Date,
		StartTime:       req.Hour,
		DurationMinutes: duration,
	})
	if err != nil {
		return nil, err
	}
	if !available {
		s.metrics.RecordAppointmentEvent("conflict")
		return nil, appErrors.Clone(appErrors.ErrConflict, "slot is not available")
	}

	appt := &models.Appointment{
		VetID:           req.VetID,
		PetID:           req.PetID,
		UserID:          req.UserID,
		SpecialityID:    req.SpecialityID,
		BranchID:        req.BranchID,
		Date:            req.Date,
		Hour:            req.Hour,
		DurationMinutes: duration,
		Status:          models.StatusProgramada,
		Notes:           req.Notes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrAppointmentConflict) {
			s.metrics.RecordAppointmentEvent("conflict")
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot was booked concurrently")
		}
		s.logger.Error("failed to create appointment", zap.Int64("vet_id", req.VetID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}
	s.metrics.RecordAppointmentEvent("created")
	s.invalidate(ctx, req.VetID)
	return appt, nil
}

// Reschedule moves an appointment to a new slot and marks the move by
// keeping the lifecycle on the same row. Terminal appointments cannot move.
func (s *AppointmentService) Reschedule(ctx context.Context, id int64, req RescheduleRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	appt, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("appointment in status %s cannot be rescheduled", appt.Status))
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = appt.DurationMinutes
	}
	if s.isPast(req.Date, req.Hour) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment must not be in the past")
	}

	// the new slot must satisfy the same window-fit and collision rules as
	// a fresh booking, minus the appointment being moved
	available, err := s.availability.IsSlotAvailable(ctx, SlotCheckRequest{
		VetID:                appt.VetID,
		SpecialityID:         appt.SpecialityID,
		Date:                 req.Date,
		StartTime:            req.Hour,
		DurationMinutes:      duration,
		ExcludeAppointmentID: appt.ID,
	})
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, appErrors.Clone(appErrors.ErrConflict, "slot is not available")
	}

	appt.Date = req.Date
	appt.Hour = req.Hour
	appt.DurationMinutes = duration
	if err := s.repo.UpdateSlot(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrAppointmentConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot was booked concurrently")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		s.logger.Error("failed to reschedule appointment", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule appointment")
	}
	s.metrics.RecordAppointmentEvent("rescheduled")
	s.invalidate(ctx, appt.VetID)
	return appt, nil
}

// UpdateStatus applies one lifecycle transition.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id int64, status models.AppointmentStatus) (*models.Appointment, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
	}
	appt, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(appt.Status, status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot transition from %s to %s", appt.Status, status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		s.logger.Error("failed to update appointment status", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	appt.Status = status
	if status == models.StatusCancelada {
		s.metrics.RecordAppointmentEvent("cancelled")
	}
	// Cancelled and no-show appointments release their slot.
	if !status.CountsForConflict() {
		s.invalidate(ctx, appt.VetID)
	}
	return appt, nil
}

// Cancel is a convenience wrapper over the cancelada transition.
func (s *AppointmentService) Cancel(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.UpdateStatus(ctx, id, models.StatusCancelada)
}

// GetByID loads one appointment.
func (s *AppointmentService) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.getByID(ctx, id)
}

// List returns filtered, paginated appointments and the total row count.
func (s *AppointmentService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.DateFrom != "" && !validDate(filter.DateFrom) {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "invalid date_from")
	}
	if filter.DateTo != "" && !validDate(filter.DateTo) {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "invalid date_to")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	appts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appts, total, nil
}

func (s *AppointmentService) getByID(ctx context.Context, id int64) (*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appt, nil
}

func (s *AppointmentService) ensureReferences(ctx context.Context, vetID, petID int64) error {
	if s.vets != nil {
		if _, err := s.vets.FindByID(ctx, vetID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "vet not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vet")
		}
	}
	if s.pets != nil {
		if _, err := s.pets.FindByID(ctx, petID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "pet not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pet")
		}
	}
	return nil
}

func (s *AppointmentService) isPast(date, hour string) bool {
	now := s.now()
	today := now.Format(dateLayout)
	if date != today {
		return date < today
	}
	return hour < now.Format(timeLayout)
}

func (s *AppointmentService) invalidate(ctx context.Context, vetID int64) {
	if s.availability != nil {
		s.availability.InvalidateVet(ctx, vetID)
	}
}

func transitionAllowed(from, to models.AppointmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
