package usecase

import (
	"errors"
	"testing"
	"time"

	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
)

func newFeedbackFixture() (*feedbackUsecase, *fakeAppointmentRepo) {
	appts := newFakeAppointmentRepo()
	repo := &fakeFeedbackRepo{feedbacks: make(map[uuid.UUID]*entity.Feedback), appts: appts}
	return NewFeedbackUsecase(quietLogger(), repo, appts, nil).(*feedbackUsecase), appts
}

func TestSubmitFeedback_OncePerCompletedAppointment(t *testing.T) {
	uc, appts := newFeedbackFixture()
	patient, doctor := uuid.New(), uuid.New()

	a := entity.NewAppointment(patient, doctor, "shirodhara", at(9, 0), time.Hour, "")
	appts.put(a)
	ctx := asUser(patient, entity.RoleIDPatient)
	req := &dto.CreateFeedbackRequest{AppointmentID: a.ID.String(), Rating: 5, Comment: "Calming"}

	if _, err := uc.SubmitFeedback(ctx, req); !errors.Is(err, ErrFeedbackNotAllowed) {
		t.Fatalf("requested appointment: expected ErrFeedbackNotAllowed, got %v", err)
	}

	stored := appts.appointments[a.ID]
	stored.Status = entity.AppointmentStatusCompleted

	res, err := uc.SubmitFeedback(ctx, req)
	if err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	if res.Rating != 5 || res.PractitionerID != doctor {
		t.Fatalf("unexpected response %+v", res)
	}
	if !appts.get(a.ID).FeedbackSubmitted {
		t.Fatalf("appointment should be flagged")
	}

	if _, err := uc.SubmitFeedback(ctx, req); !errors.Is(err, ErrFeedbackExists) {
		t.Fatalf("second feedback: expected ErrFeedbackExists, got %v", err)
	}
}

func TestSubmitFeedback_DuplicateFromStoreIsConflict(t *testing.T) {
	uc, appts := newFeedbackFixture()
	patient := uuid.New()

	a := entity.NewAppointment(patient, uuid.New(), "basti", at(9, 0), time.Hour, "")
	a.Status = entity.AppointmentStatusCompleted
	appts.put(a)
	ctx := asUser(patient, entity.RoleIDPatient)
	req := &dto.CreateFeedbackRequest{AppointmentID: a.ID.String(), Rating: 4}

	if _, err := uc.SubmitFeedback(ctx, req); err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	// a racing request that read the appointment before the flag was set
	appts.appointments[a.ID].FeedbackSubmitted = false
	if _, err := uc.SubmitFeedback(ctx, req); !errors.Is(err, ErrFeedbackExists) {
		t.Fatalf("expected ErrFeedbackExists, got %v", err)
	}
}

func TestSubmitFeedback_OnlyOwnAppointment(t *testing.T) {
	uc, appts := newFeedbackFixture()

	a := entity.NewAppointment(uuid.New(), uuid.New(), "basti", at(9, 0), time.Hour, "")
	a.Status = entity.AppointmentStatusCompleted
	appts.put(a)

	req := &dto.CreateFeedbackRequest{AppointmentID: a.ID.String(), Rating: 3}
	if _, err := uc.SubmitFeedback(asUser(uuid.New(), entity.RoleIDPatient), req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	missing := &dto.CreateFeedbackRequest{AppointmentID: uuid.NewString(), Rating: 3}
	if _, err := uc.SubmitFeedback(asUser(uuid.New(), entity.RoleIDPatient), missing); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestGetPractitionerFeedback_AverageRating(t *testing.T) {
	uc, appts := newFeedbackFixture()
	doctor := uuid.New()

	for i, rating := range []int{5, 4, 4} {
		patient := uuid.New()
		a := entity.NewAppointment(patient, doctor, "abhyanga", at(9+i, 0), time.Hour, "")
		a.Status = entity.AppointmentStatusCompleted
		appts.put(a)
		req := &dto.CreateFeedbackRequest{AppointmentID: a.ID.String(), Rating: rating}
		if _, err := uc.SubmitFeedback(asUser(patient, entity.RoleIDPatient), req); err != nil {
			t.Fatalf("feedback %d: %v", i, err)
		}
	}

	res, err := uc.GetPractitionerFeedback(asUser(doctor, entity.RoleIDDoctor), uuid.Nil)
	if err != nil {
		t.Fatalf("practitioner feedback: %v", err)
	}
	if res.Total != 3 {
		t.Fatalf("expected 3 feedbacks, got %d", res.Total)
	}
	if got := res.AverageRating.String(); got != "4.33" {
		t.Fatalf("expected average 4.33, got %s", got)
	}

	if _, err := uc.GetPractitionerFeedback(asUser(uuid.New(), entity.RoleIDDoctor), doctor); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other doctor: expected ErrForbidden, got %v", err)
	}
	if _, err := uc.GetPractitionerFeedback(asUser(uuid.New(), entity.RoleIDAdmin), doctor); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestAverageRating_Empty(t *testing.T) {
	if got := averageRating(nil); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}
