package converter

import (
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
)

func FeedbackToResponse(f *entity.Feedback) *dto.FeedbackResponse {
	if f == nil {
		return nil
	}

	response := &dto.FeedbackResponse{
		ID:             f.ID,
		AppointmentID:  f.AppointmentID,
		PatientID:      f.PatientID,
		PractitionerID: f.PractitionerID,
		Rating:         f.Rating,
		Comment:        f.Comment,
		Categories: dto.FeedbackCategoriesDTO{
			Treatment:     f.Categories.Treatment,
			Communication: f.Categories.Communication,
			Facilities:    f.Categories.Facilities,
			Overall:       f.Categories.Overall,
		},
		CreatedAt: f.CreatedAt,
	}
	if f.Patient.ID == f.PatientID {
		response.PatientName = f.Patient.FullName
	}
	if f.Appointment.ID == f.AppointmentID {
		response.TherapyID = f.Appointment.TherapyID
	}
	return response
}

func FeedbacksToResponses(feedbacks []entity.Feedback) []dto.FeedbackResponse {
	responses := make([]dto.FeedbackResponse, len(feedbacks))
	for i := range feedbacks {
		responses[i] = *FeedbackToResponse(&feedbacks[i])
	}
	return responses
}
