package handler

import (
	"errors"
	"net/http"

	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/usecase"
	"ayurveda-clinic-backend/pkg/response"
	"ayurveda-clinic-backend/pkg/validator"

	"github.com/gorilla/mux"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
	}
}

// GetAvailability returns the doctor's weekly template
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathUUID(r, "doctorId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	availability, err := h.availabilityUsecase.GetAvailability(r.Context(), doctorID)
	if err != nil {
		h.writeError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

// GetAvailableSlots resolves the bookable slots of one date
// @Summary Get available slots
// @Tags Availability
// @Produce json
// @Param doctorId path string true "Doctor ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /availability/{doctorId}/slots/{date} [get]
func (h *AvailabilityHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathUUID(r, "doctorId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	slots, err := h.availabilityUsecase.GetAvailableSlots(r.Context(), doctorID, mux.Vars(r)["date"])
	if err != nil {
		h.writeError(w, err, "Failed to get available slots")
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved successfully", slots)
}

func (h *AvailabilityHandler) UpsertAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathUUID(r, "doctorId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	var req dto.UpsertAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.availabilityUsecase.UpsertAvailability(r.Context(), doctorID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability updated successfully", availability)
}

func (h *AvailabilityHandler) AddSpecialDate(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathUUID(r, "doctorId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	var req dto.SpecialDateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.availabilityUsecase.AddSpecialDate(r.Context(), doctorID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to add special date")
		return
	}

	response.Success(w, http.StatusOK, "Special date saved successfully", availability)
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if writeCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, usecase.ErrInvalidDate), errors.Is(err, usecase.ErrInvalidTimeSlot):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrDoctorNotFound):
		response.NotFound(w, "Doctor not found")
	default:
		response.InternalServerError(w, fallback)
	}
}
