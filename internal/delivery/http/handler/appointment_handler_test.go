package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/usecase"
	"ayurveda-clinic-backend/pkg/response"
	"ayurveda-clinic-backend/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type stubAppointmentUsecase struct {
	err     error
	created *dto.CreateAppointmentRequest
	updated *dto.UpdateAppointmentRequest
}

func (s *stubAppointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: uuid.New(), TherapyID: req.TherapyID, Status: "requested"}, nil
}

func (s *stubAppointmentUsecase) GetAppointments(ctx context.Context) (*dto.AppointmentListResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentListResponse{}, nil
}

func (s *stubAppointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: id}, nil
}

func (s *stubAppointmentUsecase) UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	s.updated = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: id, Status: *req.Status}, nil
}

func (s *stubAppointmentUsecase) UploadPrescription(ctx context.Context, id uuid.UUID, req *dto.PrescriptionRequest) (*dto.AppointmentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: id, Prescription: req.Prescription}, nil
}

func (s *stubAppointmentUsecase) GetTherapyTypes(ctx context.Context) []dto.TherapyTypeResponse {
	return []dto.TherapyTypeResponse{{ID: "abhyanga", Name: "Abhyanga", Duration: 60}}
}

func (s *stubAppointmentUsecase) GetPractitioners(ctx context.Context) ([]dto.PractitionerResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) GetAnalytics(ctx context.Context) (*dto.AnalyticsResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AnalyticsResponse{}, nil
}

func appointmentRouter(uc usecase.AppointmentUsecase) *mux.Router {
	h := NewAppointmentHandler(uc, validator.NewValidator())
	r := mux.NewRouter()
	r.HandleFunc("/appointments", h.CreateAppointment).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}", h.GetAppointment).Methods(http.MethodGet)
	r.HandleFunc("/appointments/{id}", h.UpdateAppointment).Methods(http.MethodPut)
	r.HandleFunc("/therapy-types", h.GetTherapyTypes).Methods(http.MethodGet)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var res response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, res
}

func validCreateBody() string {
	return fmt.Sprintf(`{"practitionerId":%q,"therapyId":"abhyanga","startTime":"2030-06-04T09:00:00Z","duration":60}`, uuid.NewString())
}

func TestCreateAppointment_Created(t *testing.T) {
	uc := &stubAppointmentUsecase{}
	rec, res := do(t, appointmentRouter(uc), http.MethodPost, "/appointments", validCreateBody())

	if rec.Code != http.StatusCreated || !res.Success {
		t.Fatalf("expected 201, got %d %+v", rec.Code, res)
	}
	if uc.created == nil || uc.created.Duration != 60 || uc.created.StartTime == nil {
		t.Fatalf("request not passed through: %+v", uc.created)
	}
}

func TestCreateAppointment_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing practitioner", `{"therapyId":"abhyanga","startTime":"2030-06-04T09:00:00Z"}`},
		{"missing start", fmt.Sprintf(`{"practitionerId":%q,"therapyId":"abhyanga"}`, uuid.NewString())},
		{"bad practitioner id", `{"practitionerId":"nope","therapyId":"abhyanga","startTime":"2030-06-04T09:00:00Z"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubAppointmentUsecase{}
			rec, _ := do(t, appointmentRouter(uc), http.MethodPost, "/appointments", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if uc.created != nil {
				t.Fatalf("usecase must not be called")
			}
		})
	}
}

func TestAppointmentHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{usecase.ErrPastBooking, http.StatusBadRequest},
		{usecase.ErrTherapyNotFound, http.StatusBadRequest},
		{usecase.ErrInvalidInterval, http.StatusBadRequest},
		{usecase.ErrUnauthenticated, http.StatusUnauthorized},
		{usecase.ErrForbidden, http.StatusForbidden},
		{usecase.ErrPractitionerNotFound, http.StatusNotFound},
		{usecase.ErrAppointmentNotFound, http.StatusNotFound},
		{usecase.ErrSlotUnavailable, http.StatusConflict},
		{usecase.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("%w: accepted -> requested", usecase.ErrInvalidTransition), http.StatusConflict},
		{usecase.ErrConcurrentUpdate, http.StatusConflict},
		{usecase.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec, res := do(t, appointmentRouter(&stubAppointmentUsecase{err: tc.err}), http.MethodPost, "/appointments", validCreateBody())
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if res.Success {
				t.Fatalf("error response must not be successful")
			}
		})
	}
}

func TestCreateAppointment_UnavailableIsRetryable(t *testing.T) {
	rec, _ := do(t, appointmentRouter(&stubAppointmentUsecase{err: usecase.ErrUnavailable}), http.MethodPost, "/appointments", validCreateBody())

	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected a Retry-After header")
	}
}

func TestUpdateAppointment(t *testing.T) {
	uc := &stubAppointmentUsecase{}
	id := uuid.New()

	rec, _ := do(t, appointmentRouter(uc), http.MethodPut, "/appointments/"+id.String(), `{"status":"accepted"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if uc.updated == nil || *uc.updated.Status != "accepted" {
		t.Fatalf("status not passed through")
	}

	rec, _ = do(t, appointmentRouter(uc), http.MethodPut, "/appointments/"+id.String(), `{"status":"postponed"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", rec.Code)
	}

	rec, _ = do(t, appointmentRouter(uc), http.MethodPut, "/appointments/not-a-uuid", `{"status":"accepted"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestGetTherapyTypes(t *testing.T) {
	rec, res := do(t, appointmentRouter(&stubAppointmentUsecase{}), http.MethodGet, "/therapy-types", "")

	if rec.Code != http.StatusOK || !res.Success {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items, ok := res.Data.([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected data %#v", res.Data)
	}
}
