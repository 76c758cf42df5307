package usecase

import (
	"context"
	"errors"

	"ayurveda-clinic-backend/internal/converter"
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/internal/domain/repository"
	"ayurveda-clinic-backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrFeedbackExists     = errors.New("feedback already submitted for this appointment")
	ErrFeedbackNotAllowed = errors.New("feedback can only be submitted for completed appointments")
	ErrFeedbackNotFound   = errors.New("feedback not found")
)

type FeedbackUsecase interface {
	SubmitFeedback(ctx context.Context, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error)
	GetAppointmentFeedback(ctx context.Context, appointmentID uuid.UUID) (*dto.FeedbackResponse, error)
	GetPractitionerFeedback(ctx context.Context, practitionerID uuid.UUID) (*dto.PractitionerFeedbackResponse, error)
}

type feedbackUsecase struct {
	log             *logrus.Logger
	feedbackRepo    repository.FeedbackRepository
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
}

func NewFeedbackUsecase(
	log *logrus.Logger,
	feedbackRepo repository.FeedbackRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) FeedbackUsecase {
	return &feedbackUsecase{
		log:             log,
		feedbackRepo:    feedbackRepo,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
	}
}

// SubmitFeedback records the patient's review of one of their completed appointments.
// Each appointment accepts a single feedback.
func (u *feedbackUsecase) SubmitFeedback(ctx context.Context, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsPatient() {
		return nil, ErrForbidden
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}

	appointment, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, storeError(err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if appointment.PatientID != caller.ID {
		return nil, ErrForbidden
	}
	if appointment.FeedbackSubmitted {
		return nil, ErrFeedbackExists
	}
	if !appointment.IsCompleted() {
		return nil, ErrFeedbackNotAllowed
	}

	feedback := &entity.Feedback{
		AppointmentID:  appointment.ID,
		PatientID:      caller.ID,
		PractitionerID: appointment.PractitionerID,
		Rating:         req.Rating,
		Comment:        req.Comment,
	}
	if req.Categories != nil {
		feedback.Categories = entity.FeedbackCategories{
			Treatment:     req.Categories.Treatment,
			Communication: req.Categories.Communication,
			Facilities:    req.Categories.Facilities,
			Overall:       req.Categories.Overall,
		}
	}

	if err := u.feedbackRepo.Create(ctx, feedback); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrFeedbackExists
		}
		u.log.Warnf("Failed to create feedback for appointment %s: %+v", appointmentID, err)
		return nil, storeError(err)
	}

	if u.auditService != nil {
		err := u.auditService.LogCreate(context.WithoutCancel(ctx), &caller.ID, entity.AuditActionFeedbackSubmit, "feedback", feedback.ID.String(), map[string]interface{}{
			"appointment_id": appointment.ID,
			"rating":         feedback.Rating,
		})
		if err != nil {
			u.log.Warnf("Failed to write audit log (non-fatal): %+v", err)
		}
	}

	feedback.Appointment = *appointment
	return converter.FeedbackToResponse(feedback), nil
}

func (u *feedbackUsecase) GetAppointmentFeedback(ctx context.Context, appointmentID uuid.UUID) (*dto.FeedbackResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	feedback, err := u.feedbackRepo.FindByAppointment(ctx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find feedback for appointment %s: %+v", appointmentID, err)
		return nil, storeError(err)
	}
	if feedback == nil {
		return nil, ErrFeedbackNotFound
	}

	switch {
	case caller.IsAdmin():
	case caller.IsDoctor() && feedback.PractitionerID == caller.ID:
	case caller.IsPatient() && feedback.PatientID == caller.ID:
	default:
		return nil, ErrForbidden
	}

	return converter.FeedbackToResponse(feedback), nil
}

// GetPractitionerFeedback lists a practitioner's reviews with the mean rating rounded
// to two decimals. uuid.Nil means the calling doctor.
func (u *feedbackUsecase) GetPractitionerFeedback(ctx context.Context, practitionerID uuid.UUID) (*dto.PractitionerFeedbackResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if practitionerID == uuid.Nil {
		if !caller.IsDoctor() {
			return nil, ErrForbidden
		}
		practitionerID = caller.ID
	}
	if !caller.IsAdmin() && caller.ID != practitionerID {
		return nil, ErrForbidden
	}

	feedbacks, err := u.feedbackRepo.FindByPractitioner(ctx, practitionerID)
	if err != nil {
		u.log.Warnf("Failed to find feedback for practitioner %s: %+v", practitionerID, err)
		return nil, storeError(err)
	}

	return &dto.PractitionerFeedbackResponse{
		PractitionerID: practitionerID,
		Feedbacks:      converter.FeedbacksToResponses(feedbacks),
		Total:          len(feedbacks),
		AverageRating:  averageRating(feedbacks),
	}, nil
}

func averageRating(feedbacks []entity.Feedback) decimal.Decimal {
	if len(feedbacks) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, f := range feedbacks {
		sum = sum.Add(decimal.NewFromInt(int64(f.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(feedbacks)))).Round(2)
}
