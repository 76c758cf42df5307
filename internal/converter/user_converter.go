package converter

import (
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO.
// The doctor profile is included when loaded.
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	role := user.Role.RoleName
	if role == "" {
		role = entity.RoleName(user.RoleID)
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Role:      role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.DoctorProfile != nil {
		response.DoctorProfile = &dto.DoctorProfileResponse{
			Specialization:  user.DoctorProfile.Specialization,
			ExperienceYears: user.DoctorProfile.ExperienceYears,
			Biography:       user.DoctorProfile.Biography,
		}
	}

	return response
}

// UserToPractitionerResponse flattens a doctor and its profile.
func UserToPractitionerResponse(user *entity.User) dto.PractitionerResponse {
	response := dto.PractitionerResponse{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
	}
	if user.DoctorProfile != nil {
		response.Specialization = user.DoctorProfile.Specialization
		response.ExperienceYears = user.DoctorProfile.ExperienceYears
		response.Biography = user.DoctorProfile.Biography
	}
	return response
}
