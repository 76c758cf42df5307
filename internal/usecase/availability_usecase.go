package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ayurveda-clinic-backend/internal/converter"
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/internal/domain/repository"
	"ayurveda-clinic-backend/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidDate     = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTimeSlot = errors.New("invalid time slot")
	ErrDoctorNotFound  = errors.New("doctor not found")
)

type AvailabilityUsecase interface {
	GetAvailability(ctx context.Context, doctorID uuid.UUID) ([]dto.AvailabilityResponse, error)
	GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error)
	UpsertAvailability(ctx context.Context, doctorID uuid.UUID, req *dto.UpsertAvailabilityRequest) (*dto.AvailabilityResponse, error)
	AddSpecialDate(ctx context.Context, doctorID uuid.UUID, req *dto.SpecialDateRequest) (*dto.AvailabilityResponse, error)
}

type availabilityUsecase struct {
	log              *logrus.Logger
	availabilityRepo repository.DoctorAvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	userRepo         repository.UserRepository
	auditService     service.AuditService
	loc              *time.Location
	now              func() time.Time
}

func NewAvailabilityUsecase(
	log *logrus.Logger,
	availabilityRepo repository.DoctorAvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
	loc *time.Location,
) AvailabilityUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &availabilityUsecase{
		log:              log,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		userRepo:         userRepo,
		auditService:     auditService,
		loc:              loc,
		now:              time.Now,
	}
}

func (u *availabilityUsecase) GetAvailability(ctx context.Context, doctorID uuid.UUID) ([]dto.AvailabilityResponse, error) {
	records, err := u.availabilityRepo.FindByDoctor(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find availability for doctor %s: %+v", doctorID, err)
		return nil, storeError(err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].DayOfWeek < records[j].DayOfWeek
	})
	return converter.AvailabilitiesToResponses(records), nil
}

// GetAvailableSlots resolves the bookable slots of a doctor on one calendar date in
// clinic time.
//
// Resolution order:
// 1. No weekday record: closed
// 2. Special date for the date: unavailable closes the day with its reason,
//    available opens it even when the weekday is off
// 3. Weekday flag
// 4. Open slots minus those overlapping a live appointment or already started
func (u *availabilityUsecase) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error) {
	day, err := time.ParseInLocation(entity.DateLayout, date, u.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	response := &dto.AvailableSlotsResponse{
		DoctorID:       doctorID,
		Date:           date,
		AvailableSlots: []dto.TimeSlotDTO{},
	}

	record, err := u.availabilityRepo.FindByDoctorAndDay(ctx, doctorID, int(day.Weekday()))
	if err != nil {
		u.log.Warnf("Failed to find availability for doctor %s: %+v", doctorID, err)
		return nil, storeError(err)
	}
	if record == nil {
		return response, nil
	}

	slots := record.OpenSlots()
	if special, ok := record.FindSpecialDate(date); ok {
		if !special.IsAvailable {
			response.Reason = special.Reason
			return response, nil
		}
		if len(record.TimeSlots) == 0 {
			slots = entity.DefaultTimeSlots()
		}
	} else if !record.IsAvailable {
		return response, nil
	}
	if len(slots) == 0 {
		return response, nil
	}

	dayEnd := day.AddDate(0, 0, 1)
	booked, err := u.appointmentRepo.FindByPractitionerAndRange(ctx, doctorID, day, dayEnd, entity.LiveStatuses())
	if err != nil {
		u.log.Warnf("Failed to find appointments for doctor %s on %s: %+v", doctorID, date, err)
		return nil, storeError(err)
	}

	now := u.now()
	free := make(entity.TimeSlots, 0, len(slots))
	for _, slot := range slots {
		start, end, err := slot.Bounds(day, u.loc)
		if err != nil {
			u.log.Warnf("Skipping malformed slot %s-%s for doctor %s: %+v", slot.StartTime, slot.EndTime, doctorID, err)
			continue
		}
		if start.Before(now) {
			continue
		}
		if entity.HasConflict(booked, doctorID, start, end, uuid.Nil) {
			continue
		}
		free = append(free, slot)
	}

	response.AvailableSlots = converter.TimeSlotsToDTO(free)
	return response, nil
}

// UpsertAvailability replaces the weekday flag and, when given, the time slots of one
// weekday. The record is created on first write.
func (u *availabilityUsecase) UpsertAvailability(ctx context.Context, doctorID uuid.UUID, req *dto.UpsertAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	caller, err := u.authorize(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	var slots entity.TimeSlots
	if req.TimeSlots != nil {
		slots = converter.TimeSlotsFromDTO(req.TimeSlots)
		if err := validateSlots(slots); err != nil {
			return nil, err
		}
	}

	record, err := u.availabilityRepo.ModifyDay(ctx, doctorID, *req.DayOfWeek, func(a *entity.DoctorAvailability) {
		a.IsAvailable = *req.IsAvailable
		if slots != nil {
			a.TimeSlots = slots
		}
	})
	if err != nil {
		u.log.Warnf("Failed to upsert availability for doctor %s: %+v", doctorID, err)
		return nil, storeError(err)
	}

	u.audit(ctx, caller, entity.AuditActionAvailabilityUpdate, doctorID, map[string]interface{}{
		"day_of_week":  record.DayOfWeek,
		"is_available": record.IsAvailable,
		"time_slots":   len(record.TimeSlots),
	})

	return converter.AvailabilityToResponse(record), nil
}

// AddSpecialDate sets the override for one calendar date on the weekday record the
// date falls on, replacing any previous override for that date.
func (u *availabilityUsecase) AddSpecialDate(ctx context.Context, doctorID uuid.UUID, req *dto.SpecialDateRequest) (*dto.AvailabilityResponse, error) {
	caller, err := u.authorize(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(entity.DateLayout, req.Date, u.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	special := entity.SpecialDate{
		Date:        day.Format(entity.DateLayout),
		IsAvailable: req.IsAvailable,
		Reason:      req.Reason,
	}
	record, err := u.availabilityRepo.ModifyDay(ctx, doctorID, int(day.Weekday()), func(a *entity.DoctorAvailability) {
		a.SetSpecialDate(special)
	})
	if err != nil {
		u.log.Warnf("Failed to set special date %s for doctor %s: %+v", special.Date, doctorID, err)
		return nil, storeError(err)
	}

	u.audit(ctx, caller, entity.AuditActionSpecialDateSet, doctorID, special)

	return converter.AvailabilityToResponse(record), nil
}

// authorize lets a doctor edit their own availability and an admin edit any doctor's.
func (u *availabilityUsecase) authorize(ctx context.Context, doctorID uuid.UUID) (actor, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return actor{}, err
	}
	if !caller.IsAdmin() && !(caller.IsDoctor() && caller.ID == doctorID) {
		return actor{}, ErrForbidden
	}

	doctor, err := u.userRepo.FindByID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return actor{}, storeError(err)
	}
	if doctor == nil || !doctor.IsDoctor() {
		return actor{}, ErrDoctorNotFound
	}
	return caller, nil
}

func (u *availabilityUsecase) audit(ctx context.Context, caller actor, action string, doctorID uuid.UUID, value interface{}) {
	if u.auditService == nil {
		return
	}
	if err := u.auditService.LogUpdate(context.WithoutCancel(ctx), &caller.ID, action, "doctor_availability", doctorID.String(), nil, value); err != nil {
		u.log.Warnf("Failed to write audit log (non-fatal): %+v", err)
	}
}

func validateSlots(slots entity.TimeSlots) error {
	for _, s := range slots {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
		}
	}
	return nil
}
