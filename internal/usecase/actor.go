package usecase

import (
	"context"
	"errors"

	"ayurveda-clinic-backend/internal/delivery/http/middleware"
	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("user not found in context")
	ErrForbidden       = errors.New("you don't have permission to perform this action")
	// ErrUnavailable is retryable: the store or a lock did not answer in time.
	ErrUnavailable = errors.New("service temporarily unavailable, please retry")
)

// actor is the authenticated caller.
type actor struct {
	ID     uuid.UUID
	RoleID int
}

func (a actor) IsAdmin() bool   { return a.RoleID == entity.RoleIDAdmin }
func (a actor) IsDoctor() bool  { return a.RoleID == entity.RoleIDDoctor }
func (a actor) IsPatient() bool { return a.RoleID == entity.RoleIDPatient }

func currentActor(ctx context.Context) (actor, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return actor{}, ErrUnauthenticated
	}
	roleID, ok := middleware.GetRoleIDFromContext(ctx)
	if !ok {
		return actor{}, ErrUnauthenticated
	}
	return actor{ID: userID, RoleID: roleID}, nil
}
