package converter

import (
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO.
// Party names are filled when the relations are loaded.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:                appointment.ID,
		PatientID:         appointment.PatientID,
		PractitionerID:    appointment.PractitionerID,
		TherapyID:         appointment.TherapyID,
		TherapyName:       entity.TherapyName(appointment.TherapyID),
		StartTime:         appointment.StartTime,
		EndTime:           appointment.EndTime,
		Status:            string(appointment.Status),
		Notes:             appointment.Notes,
		Prescription:      appointment.Prescription,
		FeedbackSubmitted: appointment.FeedbackSubmitted,
		EmailReminders: dto.EmailRemindersResponse{
			AcceptanceEmail: string(appointment.AcceptanceEmail),
			Reminder24h:     string(appointment.Reminder24h),
			Reminder4h:      string(appointment.Reminder4h),
			PostCareEmail:   string(appointment.PostCareEmail),
		},
		CreatedAt: appointment.CreatedAt,
		UpdatedAt: appointment.UpdatedAt,
	}

	if appointment.Patient.ID == appointment.PatientID {
		response.PatientName = appointment.Patient.FullName
	}
	if appointment.Practitioner.ID == appointment.PractitionerID {
		response.PractitionerName = appointment.Practitioner.FullName
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities, keeping order.
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

func TherapiesToResponses(therapies []entity.Therapy) []dto.TherapyTypeResponse {
	responses := make([]dto.TherapyTypeResponse, len(therapies))
	for i, t := range therapies {
		responses[i] = dto.TherapyTypeResponse{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Duration:    t.DurationMinutes,
			Category:    t.Category,
		}
	}
	return responses
}
