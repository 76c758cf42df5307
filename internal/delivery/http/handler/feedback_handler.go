package handler

import (
	"errors"
	"net/http"

	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/usecase"
	"ayurveda-clinic-backend/pkg/response"
	"ayurveda-clinic-backend/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type FeedbackHandler struct {
	feedbackUsecase usecase.FeedbackUsecase
	validator       *validator.CustomValidator
}

func NewFeedbackHandler(feedbackUsecase usecase.FeedbackUsecase, validator *validator.CustomValidator) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackUsecase: feedbackUsecase,
		validator:       validator,
	}
}

func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	feedback, err := h.feedbackUsecase.SubmitFeedback(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to submit feedback")
		return
	}

	response.Success(w, http.StatusCreated, "Feedback submitted successfully", feedback)
}

func (h *FeedbackHandler) GetAppointmentFeedback(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	feedback, err := h.feedbackUsecase.GetAppointmentFeedback(r.Context(), appointmentID)
	if err != nil {
		h.writeError(w, err, "Failed to get feedback")
		return
	}

	response.Success(w, http.StatusOK, "Feedback retrieved successfully", feedback)
}

// GetPractitionerFeedback serves both /feedback/practitioner and
// /feedback/practitioner/{practitionerId}; without an id the caller's own feedback is returned.
func (h *FeedbackHandler) GetPractitionerFeedback(w http.ResponseWriter, r *http.Request) {
	practitionerID := uuid.Nil
	if raw, ok := mux.Vars(r)["practitionerId"]; ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid practitioner ID", nil)
			return
		}
		practitionerID = id
	}

	feedback, err := h.feedbackUsecase.GetPractitionerFeedback(r.Context(), practitionerID)
	if err != nil {
		h.writeError(w, err, "Failed to get feedback")
		return
	}

	response.Success(w, http.StatusOK, "Feedback retrieved successfully", feedback)
}

func (h *FeedbackHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if writeCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, "Appointment not found")
	case errors.Is(err, usecase.ErrFeedbackNotFound):
		response.NotFound(w, "Feedback not found")
	case errors.Is(err, usecase.ErrFeedbackNotAllowed):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrFeedbackExists):
		response.Conflict(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
