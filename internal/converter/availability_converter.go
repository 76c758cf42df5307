package converter

import (
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
)

func AvailabilityToResponse(a *entity.DoctorAvailability) *dto.AvailabilityResponse {
	if a == nil {
		return nil
	}

	specialDates := make([]dto.SpecialDateDTO, len(a.SpecialDates))
	for i, sd := range a.SpecialDates {
		specialDates[i] = dto.SpecialDateDTO{
			Date:        sd.Date,
			IsAvailable: sd.IsAvailable,
			Reason:      sd.Reason,
		}
	}

	return &dto.AvailabilityResponse{
		ID:           a.ID,
		DoctorID:     a.DoctorID,
		DayOfWeek:    a.DayOfWeek,
		IsAvailable:  a.IsAvailable,
		TimeSlots:    TimeSlotsToDTO(a.TimeSlots),
		SpecialDates: specialDates,
		UpdatedAt:    a.UpdatedAt,
	}
}

func AvailabilitiesToResponses(records []entity.DoctorAvailability) []dto.AvailabilityResponse {
	responses := make([]dto.AvailabilityResponse, len(records))
	for i := range records {
		responses[i] = *AvailabilityToResponse(&records[i])
	}
	return responses
}

func TimeSlotsToDTO(slots entity.TimeSlots) []dto.TimeSlotDTO {
	out := make([]dto.TimeSlotDTO, len(slots))
	for i, s := range slots {
		out[i] = dto.TimeSlotDTO{StartTime: s.StartTime, EndTime: s.EndTime, IsAvailable: s.IsAvailable}
	}
	return out
}

func TimeSlotsFromDTO(slots []dto.TimeSlotDTO) entity.TimeSlots {
	out := make(entity.TimeSlots, len(slots))
	for i, s := range slots {
		out[i] = entity.TimeSlot{StartTime: s.StartTime, EndTime: s.EndTime, IsAvailable: s.IsAvailable}
	}
	return out
}
