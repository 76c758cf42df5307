package handler

import (
	"errors"
	"net/http"

	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/usecase"
	"ayurveda-clinic-backend/pkg/response"
	"ayurveda-clinic-backend/pkg/validator"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

// CreateAppointment books a therapy session for the calling patient
// @Summary Book an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAppointmentRequest true "Create Appointment Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.CreateAppointment(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

// GetAppointments lists the caller's appointments, sorted by start time
func (h *AppointmentHandler) GetAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointmentUsecase.GetAppointments(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

// UpdateAppointment changes status, interval or notes
// @Summary Update an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.UpdateAppointmentRequest true "Update Appointment Request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id} [put]
func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	var req dto.UpdateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateAppointment(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

func (h *AppointmentHandler) UploadPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	var req dto.PrescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UploadPrescription(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err, "Failed to upload prescription")
		return
	}

	response.Success(w, http.StatusOK, "Prescription uploaded successfully", appointment)
}

func (h *AppointmentHandler) GetTherapyTypes(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Therapy types retrieved successfully", h.appointmentUsecase.GetTherapyTypes(r.Context()))
}

func (h *AppointmentHandler) GetPractitioners(w http.ResponseWriter, r *http.Request) {
	practitioners, err := h.appointmentUsecase.GetPractitioners(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get practitioners")
		return
	}

	response.Success(w, http.StatusOK, "Practitioners retrieved successfully", practitioners)
}

func (h *AppointmentHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.appointmentUsecase.GetAnalytics(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get analytics")
		return
	}

	response.Success(w, http.StatusOK, "Analytics retrieved successfully", analytics)
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if writeCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, "Appointment not found")
	case errors.Is(err, usecase.ErrPractitionerNotFound):
		response.NotFound(w, "Practitioner not found")
	case errors.Is(err, usecase.ErrTherapyNotFound),
		errors.Is(err, usecase.ErrPastBooking),
		errors.Is(err, usecase.ErrInvalidInterval):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrSlotUnavailable),
		errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrConcurrentUpdate):
		response.Conflict(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
