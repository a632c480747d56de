package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vetcare/clinic-api/internal/models"
	"github.com/vetcare/clinic-api/pkg/config"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
)

type availabilityScheduleRepo interface {
	ListWindows(ctx context.Context, vetID int64, specialityID *int64, weekday int) ([]models.VetSchedule, error)
}

type availabilityBlockRepo interface {
	ListByDate(ctx context.Context, vetID int64, date string) ([]models.AppointmentBlock, error)
}

type availabilityHolidayRepo interface {
	ExistsByDate(ctx context.Context, date string) (bool, error)
}

type availabilityAppointmentRepo interface {
	ListByVetAndDate(ctx context.Context, vetID int64, date string) ([]models.Appointment, error)
}

type availabilityVetRepo interface {
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// AvailabilityService derives bookable slots from weekly schedules, blocks,
// holidays and existing appointments. Slots are always computed on demand
// and never stored, so schedule edits take effect immediately.
type AvailabilityService struct {
	schedules    availabilityScheduleRepo
	blocks       availabilityBlockRepo
	holidays     availabilityHolidayRepo
	appointments availabilityAppointmentRepo
	vets         availabilityVetRepo
	cache        *CacheService
	cfg          config.SchedulingConfig
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAvailabilityService constructs the availability engine.
func NewAvailabilityService(
	schedules availabilityScheduleRepo,
	blocks availabilityBlockRepo,
	holidays availabilityHolidayRepo,
	appointments availabilityAppointmentRepo,
	vets availabilityVetRepo,
	cache *CacheService,
	cfg config.SchedulingConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlotStepMinutes <= 0 {
		cfg.SlotStepMinutes = 30
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = 30
	}
	if cfg.MaxSearchDays <= 0 {
		cfg.MaxSearchDays = 30
	}
	registerTimeValidations(validate)
	return &AvailabilityService{
		schedules:    schedules,
		blocks:       blocks,
		holidays:     holidays,
		appointments: appointments,
		vets:         vets,
		cache:        cache,
		cfg:          cfg,
		validator:    validate,
		logger:       logger,
	}
}

// DayAvailabilityRequest selects one vet/speciality/date combination.
type DayAvailabilityRequest struct {
	VetID           int64  `json:"vet_id" validate:"required,gt=0"`
	SpecialityID    int64  `json:"speciality_id" validate:"required,gt=0"`
	BranchID        *int64 `json:"branch_id,omitempty"`
	Date            string `json:"date" validate:"required,isodate"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
}

// dayInputs is everything the slot generator needs for one vet/date.
type dayInputs struct {
	isHoliday    bool
	windows      []models.VetSchedule
	blocks       []models.AppointmentBlock
	appointments []models.Appointment
}

// GetDayAvailability computes the full slot picture for one day.
func (s *AvailabilityService) GetDayAvailability(ctx context.Context, req DayAvailabilityRequest) (*models.DayAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes
	}

	cacheKey := s.dayCacheKey(req.VetID, req.SpecialityID, req.Date, duration)
	if s.cache.Enabled() {
		var cached models.DayAvailability
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	inputs, err := s.loadDayInputs(ctx, req.VetID, &req.SpecialityID, req.Date)
	if err != nil {
		return nil, err
	}
	day := s.buildDay(req.Date, duration, req.BranchID, inputs)

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, day, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return day, nil
}

// GetMultipleVetsAvailability computes per-day availability for every
// selected vet across an inclusive date range.
func (s *AvailabilityService) GetMultipleVetsAvailability(ctx context.Context, query models.AvailabilityQuery) ([]models.WeekAvailability, error) {
	dates, err := s.expandRange(query.DateFrom, query.DateTo)
	if err != nil {
		return nil, err
	}
	duration := query.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes
	}
	if duration < 15 || duration > 480 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration must be between 15 and 480 minutes")
	}

	vetIDs, err := s.resolveVets(ctx, query.VetID)
	if err != nil {
		return nil, err
	}

	results := make([]models.WeekAvailability, len(vetIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, vetID := range vetIDs {
		i, vetID := i, vetID
		g.Go(func() error {
			days := make([]models.DayAvailability, 0, len(dates))
			for _, date := range dates {
				inputs, err := s.loadDayInputs(gctx, vetID, query.SpecialityID, date)
				if err != nil {
					return err
				}
				days = append(days, *s.buildDay(date, duration, query.BranchID, inputs))
			}
			results[i] = models.WeekAvailability{VetID: vetID, Days: days}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SlotCheckRequest pins down one candidate interval. ExcludeAppointmentID
// skips the appointment being moved so it never conflicts with itself.
type SlotCheckRequest struct {
	VetID                int64  `json:"vet_id" validate:"required,gt=0"`
	SpecialityID         int64  `json:"speciality_id" validate:"required,gt=0"`
	Date                 string `json:"date" validate:"required,isodate"`
	StartTime            string `json:"start_time" validate:"required,hhmm"`
	DurationMinutes      int    `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
	ExcludeAppointmentID int64  `json:"-"`
}

// IsSlotAvailable reports whether the requested interval fits inside a
// schedule window and collides with nothing. Holidays always answer false.
func (s *AvailabilityService) IsSlotAvailable(ctx context.Context, req SlotCheckRequest) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot query")
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes
	}
	endTime, err := addMinutesHHMM(req.StartTime, duration)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid start time")
	}

	inputs, err := s.loadDayInputs(ctx, req.VetID, &req.SpecialityID, req.Date)
	if err != nil {
		return false, err
	}
	if inputs.isHoliday {
		return false, nil
	}

	fits := false
	for _, w := range inputs.windows {
		if req.StartTime >= w.StartTime && endTime <= w.EndTime {
			fits = true
			break
		}
	}
	if !fits {
		return false, nil
	}
	return !s.collides(req.StartTime, endTime, inputs, req.ExcludeAppointmentID), nil
}

// NextSlotRequest asks for the earliest free slot at or after FromDate.
// MaxDays narrows the search horizon below the configured maximum.
type NextSlotRequest struct {
	VetID           int64  `json:"vet_id" validate:"required,gt=0"`
	SpecialityID    int64  `json:"speciality_id" validate:"required,gt=0"`
	FromDate        string `json:"from_date" validate:"required,isodate"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
	MaxDays         int    `json:"max_days" validate:"omitempty,min=1,max=365"`
}

// FindNextAvailableSlot scans forward day by day, bounded by the requested
// horizon (capped at the configured maximum). A nil slot with a nil error
// means nothing was free within the horizon.
func (s *AvailabilityService) FindNextAvailableSlot(ctx context.Context, req NextSlotRequest) (*models.Slot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid next-slot query")
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes
	}
	from, err := parseDate(req.FromDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid from_date")
	}
	horizon := req.MaxDays
	if horizon <= 0 || horizon > s.cfg.MaxSearchDays {
		horizon = s.cfg.MaxSearchDays
	}

	for i := 0; i < horizon; i++ {
		date := from.AddDate(0, 0, i).Format(dateLayout)
		inputs, err := s.loadDayInputs(ctx, req.VetID, &req.SpecialityID, date)
		if err != nil {
			return nil, err
		}
		if inputs.isHoliday {
			continue
		}
		day := s.buildDay(date, duration, nil, inputs)
		for idx := range day.AvailableSlots {
			if day.AvailableSlots[idx].IsAvailable {
				return &day.AvailableSlots[idx], nil
			}
		}
	}
	return nil, nil
}

// HasConflict answers the write-path question: does [startTime, +duration)
// on date collide with a holiday, a block or a slot-holding appointment?
// excludeID skips the appointment being edited.
func (s *AvailabilityService) HasConflict(ctx context.Context, vetID int64, date, startTime string, duration int, excludeID int64) (bool, error) {
	if !validDate(date) || !validHHMM(startTime) {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid date or time")
	}
	if duration <= 0 {
		duration = s.cfg.DefaultDurationMinutes
	}
	endTime, err := addMinutesHHMM(startTime, duration)
	if err != nil {
		return false, err
	}
	inputs, err := s.loadDayInputs(ctx, vetID, nil, date)
	if err != nil {
		return false, err
	}
	if inputs.isHoliday {
		return true, nil
	}
	return s.collides(startTime, endTime, inputs, excludeID), nil
}

// StatisticsRequest selects a vet/speciality/date range for occupancy stats.
type StatisticsRequest struct {
	VetID           int64  `json:"vet_id" validate:"required,gt=0"`
	SpecialityID    int64  `json:"speciality_id" validate:"required,gt=0"`
	StartDate       string `json:"start_date" validate:"required,isodate"`
	EndDate         string `json:"end_date" validate:"required,isodate"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
}

// GetStatistics aggregates slot occupancy over an inclusive date range.
func (s *AvailabilityService) GetStatistics(ctx context.Context, req StatisticsRequest) (*models.AvailabilityStatistics, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid statistics query")
	}
	dates, err := s.expandRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes
	}

	stats := &models.AvailabilityStatistics{
		VetID:        req.VetID,
		SpecialityID: req.SpecialityID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	for _, date := range dates {
		inputs, err := s.loadDayInputs(ctx, req.VetID, &req.SpecialityID, date)
		if err != nil {
			return nil, err
		}
		if inputs.isHoliday {
			stats.HolidayDays++
			continue
		}
		day := s.buildDay(date, duration, nil, inputs)
		for _, slot := range day.AvailableSlots {
			stats.TotalSlots++
			if slot.IsAvailable {
				stats.FreeSlots++
			} else {
				stats.OccupiedSlots++
			}
		}
	}
	if stats.TotalSlots > 0 {
		stats.OccupancyRate = float64(stats.OccupiedSlots) / float64(stats.TotalSlots)
	}
	return stats, nil
}

// InvalidateVet drops every cached availability payload for one vet. Write
// paths call this after any mutation that can move slots.
func (s *AvailabilityService) InvalidateVet(ctx context.Context, vetID int64) {
	if !s.cache.Enabled() {
		return
	}
	pattern := fmt.Sprintf("availability:%d:*", vetID)
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Int64("vet_id", vetID), zap.Error(err))
	}
}

// InvalidateAll drops every cached availability payload. Holiday mutations
// affect all vets at once.
func (s *AvailabilityService) InvalidateAll(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "availability:*"); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (s *AvailabilityService) dayCacheKey(vetID, specialityID int64, date string, duration int) string {
	return fmt.Sprintf("availability:%d:%d:%s:%d:%d", vetID, specialityID, date, duration, s.cfg.SlotStepMinutes)
}

// loadDayInputs fetches the four ingredients concurrently. The holiday
// check does not short-circuit the others; the day builder decides what to
// expose.
func (s *AvailabilityService) loadDayInputs(ctx context.Context, vetID int64, specialityID *int64, date string) (*dayInputs, error) {
	weekday, err := weekdayOf(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	inputs := &dayInputs{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		holiday, err := s.holidays.ExistsByDate(gctx, date)
		if err != nil {
			return err
		}
		inputs.isHoliday = holiday
		return nil
	})
	g.Go(func() error {
		windows, err := s.schedules.ListWindows(gctx, vetID, specialityID, weekday)
		if err != nil {
			return err
		}
		inputs.windows = windows
		return nil
	})
	g.Go(func() error {
		blocks, err := s.blocks.ListByDate(gctx, vetID, date)
		if err != nil {
			return err
		}
		inputs.blocks = blocks
		return nil
	})
	g.Go(func() error {
		appts, err := s.appointments.ListByVetAndDate(gctx, vetID, date)
		if err != nil {
			return err
		}
		inputs.appointments = appts
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load availability inputs",
			zap.Int64("vet_id", vetID), zap.String("date", date), zap.Error(err))
		// a failed fetch never reads as "available"
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "availability data temporarily unavailable")
	}
	return inputs, nil
}

// buildDay expands schedule windows into slots and flags each one against
// blocks and slot-holding appointments. The cursor advances by the larger of
// the configured step and the requested duration, so slots never overlap
// each other. Holidays yield an empty slot list regardless of schedules.
func (s *AvailabilityService) buildDay(date string, duration int, branchID *int64, inputs *dayInputs) *models.DayAvailability {
	day := &models.DayAvailability{
		Date:                 date,
		IsHoliday:            inputs.isHoliday,
		AvailableSlots:       []models.Slot{},
		BlockedSlots:         inputs.blocks,
		ExistingAppointments: inputs.appointments,
	}
	if day.BlockedSlots == nil {
		day.BlockedSlots = []models.AppointmentBlock{}
	}
	if day.ExistingAppointments == nil {
		day.ExistingAppointments = []models.Appointment{}
	}
	if inputs.isHoliday {
		return day
	}

	step := s.cfg.SlotStepMinutes
	if duration > step {
		step = duration
	}
	for _, w := range inputs.windows {
		start, err := parseHHMM(w.StartTime)
		if err != nil {
			continue
		}
		end, err := parseHHMM(w.EndTime)
		if err != nil {
			continue
		}
		for cur := start; cur+duration <= end; cur += step {
			slotStart := formatHHMM(cur)
			slotEnd := formatHHMM(cur + duration)
			day.AvailableSlots = append(day.AvailableSlots, models.Slot{
				Date:            date,
				StartTime:       slotStart,
				EndTime:         slotEnd,
				IsAvailable:     !s.collides(slotStart, slotEnd, inputs, 0),
				VetID:           w.VetID,
				SpecialityID:    w.SpecialityID,
				BranchID:        branchID,
				DurationMinutes: duration,
			})
		}
	}
	return day
}

// collides checks one interval against blocks and slot-holding appointments.
func (s *AvailabilityService) collides(startTime, endTime string, inputs *dayInputs, excludeID int64) bool {
	for _, b := range inputs.blocks {
		if overlapsHHMM(startTime, endTime, b.StartTime, b.EndTime) {
			return true
		}
	}
	for _, a := range inputs.appointments {
		if excludeID != 0 && a.ID == excludeID {
			continue
		}
		if !a.Status.CountsForConflict() {
			continue
		}
		apptEnd, err := addMinutesHHMM(a.Hour, a.DurationMinutes)
		if err != nil {
			continue
		}
		if overlapsHHMM(startTime, endTime, a.Hour, apptEnd) {
			return true
		}
	}
	return false
}

func (s *AvailabilityService) expandRange(from, to string) ([]string, error) {
	start, err := parseDate(from)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_from")
	}
	end, err := parseDate(to)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_to")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_to must not precede date_from")
	}
	if end.Sub(start) > time.Duration(s.cfg.MaxSearchDays)*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range may not exceed %d days", s.cfg.MaxSearchDays))
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, nil
}

func (s *AvailabilityService) resolveVets(ctx context.Context, vetID *int64) ([]int64, error) {
	if vetID != nil {
		return []int64{*vetID}, nil
	}
	ids, err := s.vets.ListActiveIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vets")
	}
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no active vets")
	}
	return ids, nil
}
