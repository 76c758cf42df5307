package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"ayurveda-clinic-backend/internal/usecase"
	"ayurveda-clinic-backend/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// writeCommonError answers the errors every usecase can return. It reports false
// when err is none of them.
func writeCommonError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		response.Unauthorized(w, "Invalid token")
	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, usecase.ErrUnavailable):
		response.ServiceUnavailable(w, err.Error())
	default:
		return false
	}
	return true
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
