package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ayurveda-clinic-backend/internal/converter"
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/internal/domain/repository"
	"ayurveda-clinic-backend/internal/service"
	"ayurveda-clinic-backend/internal/task"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrPractitionerNotFound = errors.New("practitioner not found")
	ErrTherapyNotFound      = errors.New("unknown therapy type")
	ErrPastBooking          = errors.New("cannot book an appointment in the past")
	ErrInvalidInterval      = errors.New("end time must be after start time")
	ErrSlotUnavailable      = errors.New("time slot is not available")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrConcurrentUpdate     = errors.New("appointment was modified by another request, reload and retry")
)

const (
	dispatchTimeout = 2 * time.Second
	analyticsDays   = 7
)

// PractitionerLocker serializes booking writes for one practitioner.
type PractitionerLocker interface {
	WithPractitionerLock(ctx context.Context, practitionerID uuid.UUID, fn func(ctx context.Context) error) error
}

// SideEffectDispatcher hands notifications and emails to the background worker.
type SideEffectDispatcher interface {
	Notify(ctx context.Context, payload task.NotificationPayload) error
	SendBookingConfirmation(ctx context.Context, appointmentID uuid.UUID) error
	SendAcceptanceEmail(ctx context.Context, appointmentID uuid.UUID) error
}

type AppointmentUsecase interface {
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointments(ctx context.Context) (*dto.AppointmentListResponse, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	UploadPrescription(ctx context.Context, id uuid.UUID, req *dto.PrescriptionRequest) (*dto.AppointmentResponse, error)
	GetTherapyTypes(ctx context.Context) []dto.TherapyTypeResponse
	GetPractitioners(ctx context.Context) ([]dto.PractitionerResponse, error)
	GetAnalytics(ctx context.Context) (*dto.AnalyticsResponse, error)
}

type appointmentUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	locker          PractitionerLocker
	dispatcher      SideEffectDispatcher
	auditService    service.AuditService
	loc             *time.Location
	now             func() time.Time
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	locker PractitionerLocker,
	dispatcher SideEffectDispatcher,
	auditService service.AuditService,
	loc *time.Location,
) AppointmentUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &appointmentUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		locker:          locker,
		dispatcher:      dispatcher,
		auditService:    auditService,
		loc:             loc,
		now:             time.Now,
	}
}

// CreateAppointment books a requested appointment for the calling patient.
//
// Flow:
// 1. Validate therapy, start time and practitioner
// 2. Fast overlap pre-check (no lock)
// 3. Under the practitioner lock: overlap check + insert in one transaction
// 4. Enqueue practitioner notification and booking confirmation email
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsPatient() {
		return nil, ErrForbidden
	}

	practitionerID, err := uuid.Parse(req.PractitionerID)
	if err != nil {
		return nil, ErrPractitionerNotFound
	}
	therapy, ok := entity.FindTherapy(req.TherapyID)
	if !ok {
		return nil, ErrTherapyNotFound
	}

	start := req.StartTime.UTC()
	if start.Before(u.now()) {
		return nil, ErrPastBooking
	}
	duration := time.Duration(req.Duration) * time.Minute

	practitioner, err := u.userRepo.FindByID(ctx, practitionerID)
	if err != nil {
		u.log.Warnf("Failed to find practitioner %s: %+v", practitionerID, err)
		return nil, u.bookingError(err)
	}
	if practitioner == nil || !practitioner.IsDoctor() || !practitioner.IsActive {
		return nil, ErrPractitionerNotFound
	}

	appointment := entity.NewAppointment(caller.ID, practitionerID, therapy.ID, start, duration, req.Notes)

	conflict, err := u.appointmentRepo.HasConflict(ctx, practitionerID, appointment.StartTime, appointment.EndTime, uuid.Nil)
	if err != nil {
		u.log.Warnf("Failed to check conflicts for practitioner %s: %+v", practitionerID, err)
		return nil, u.bookingError(err)
	}
	if conflict {
		return nil, ErrSlotUnavailable
	}

	err = u.locker.WithPractitionerLock(ctx, practitionerID, func(ctx context.Context) error {
		return u.appointmentRepo.Create(ctx, appointment)
	})
	if err != nil {
		if !isConflict(err) {
			u.log.Warnf("Failed to create appointment for practitioner %s: %+v", practitionerID, err)
		}
		return nil, u.bookingError(err)
	}

	u.log.Infof("Appointment created: id=%s, practitioner=%s, start=%s", appointment.ID, practitionerID, appointment.StartTime.Format(time.RFC3339))

	u.audit(ctx, func(ctx context.Context) error {
		return u.auditService.LogCreate(ctx, &caller.ID, entity.AuditActionAppointmentCreate, "appointment", appointment.ID.String(), appointmentSnapshot(appointment))
	})

	patientName := "A patient"
	if patient, err := u.userRepo.FindByID(ctx, caller.ID); err == nil && patient != nil {
		appointment.Patient = *patient
		patientName = patient.DisplayName()
	}
	appointment.Practitioner = *practitioner

	relatedID := appointment.ID
	u.dispatch("practitioner notification", func(ctx context.Context) error {
		return u.dispatcher.Notify(ctx, task.NotificationPayload{
			UserID:    practitionerID,
			Type:      entity.NotificationAppointmentRequest,
			Title:     "New Appointment Request",
			Message:   fmt.Sprintf("%s requested %s on %s.", patientName, therapy.Name, u.formatTime(appointment.StartTime)),
			RelatedID: &relatedID,
		})
	})
	u.dispatch("booking confirmation email", func(ctx context.Context) error {
		return u.dispatcher.SendBookingConfirmation(ctx, appointment.ID)
	})

	return converter.AppointmentToResponse(appointment), nil
}

// GetAppointments lists the caller's appointments: all for admins, own for doctors
// and patients. The result is ordered by start time.
func (u *appointmentUsecase) GetAppointments(ctx context.Context) (*dto.AppointmentListResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	var appointments []entity.Appointment
	switch {
	case caller.IsAdmin():
		appointments, err = u.appointmentRepo.FindAll(ctx)
	case caller.IsDoctor():
		appointments, err = u.appointmentRepo.FindByPractitioner(ctx, caller.ID)
	default:
		appointments, err = u.appointmentRepo.FindByPatient(ctx, caller.ID)
	}
	if err != nil {
		u.log.Warnf("Failed to list appointments for user %s: %+v", caller.ID, err)
		return nil, u.bookingError(err)
	}

	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].StartTime.Before(appointments[j].StartTime)
	})

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.findVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// UpdateAppointment applies a status transition, a reschedule and/or new notes.
//
// The write is a compare-and-set on the status read here, so two concurrent
// transitions cannot both succeed. A reschedule of a live appointment re-checks
// overlaps under the practitioner lock, excluding the appointment itself.
// Side effects only fire when the status actually changed.
func (u *appointmentUsecase) UpdateAppointment(ctx context.Context, id uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !caller.IsDoctor() {
		return nil, ErrForbidden
	}

	current, err := u.findVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	expected := current.Status

	statusChanged := false
	if req.Status != nil && entity.AppointmentStatus(*req.Status) != current.Status {
		next := entity.AppointmentStatus(*req.Status)
		if !current.Status.CanTransitionTo(next) {
			return nil, ErrInvalidTransition
		}
		updated.Status = next
		statusChanged = true
	}

	rescheduled, err := u.applyReschedule(&updated, req)
	if err != nil {
		return nil, err
	}
	if rescheduled && !updated.Status.IsLive() {
		return nil, ErrInvalidTransition
	}

	if req.Notes != nil {
		updated.Notes = *req.Notes
	}

	if !statusChanged && !rescheduled && updated.Notes == current.Notes {
		return converter.AppointmentToResponse(current), nil
	}

	write := func(ctx context.Context) error {
		return u.appointmentRepo.Update(ctx, &updated, expected, rescheduled)
	}
	if rescheduled {
		conflict, err := u.appointmentRepo.HasConflict(ctx, updated.PractitionerID, updated.StartTime, updated.EndTime, updated.ID)
		if err != nil {
			u.log.Warnf("Failed to check conflicts for appointment %s: %+v", id, err)
			return nil, u.bookingError(err)
		}
		if conflict {
			return nil, ErrSlotUnavailable
		}
		err = u.locker.WithPractitionerLock(ctx, updated.PractitionerID, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		if !isConflict(err) {
			u.log.Warnf("Failed to update appointment %s: %+v", id, err)
		}
		return nil, u.bookingError(err)
	}
	updated.UpdatedAt = u.now()

	if statusChanged {
		u.log.Infof("Appointment %s status changed: %s -> %s by %s", id, expected, updated.Status, caller.ID)
		u.audit(ctx, func(ctx context.Context) error {
			return u.auditService.LogUpdate(ctx, &caller.ID, entity.AuditActionAppointmentStatus, "appointment", id.String(),
				map[string]interface{}{"status": expected}, map[string]interface{}{"status": updated.Status})
		})
		u.emitStatusChange(&updated)
	}
	if rescheduled {
		u.log.Infof("Appointment %s rescheduled to %s-%s", id, updated.StartTime.Format(time.RFC3339), updated.EndTime.Format(time.RFC3339))
		u.audit(ctx, func(ctx context.Context) error {
			return u.auditService.LogUpdate(ctx, &caller.ID, entity.AuditActionAppointmentSchedule, "appointment", id.String(),
				map[string]interface{}{"start_time": current.StartTime, "end_time": current.EndTime},
				map[string]interface{}{"start_time": updated.StartTime, "end_time": updated.EndTime})
		})
	}

	return converter.AppointmentToResponse(&updated), nil
}

// UploadPrescription sets the free-text prescription. Only the appointment's own
// practitioner may write it.
func (u *appointmentUsecase) UploadPrescription(ctx context.Context, id uuid.UUID, req *dto.PrescriptionRequest) (*dto.AppointmentResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsDoctor() {
		return nil, ErrForbidden
	}

	appointment, err := u.findVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	affected, err := u.appointmentRepo.UpdatePrescription(ctx, id, req.Prescription)
	if err != nil {
		u.log.Warnf("Failed to update prescription for appointment %s: %+v", id, err)
		return nil, u.bookingError(err)
	}
	if affected == 0 {
		return nil, ErrAppointmentNotFound
	}

	u.audit(ctx, func(ctx context.Context) error {
		return u.auditService.LogUpdate(ctx, &caller.ID, entity.AuditActionPrescriptionUpdate, "appointment", id.String(),
			nil, map[string]interface{}{"prescription_length": len(req.Prescription)})
	})

	appointment.Prescription = req.Prescription
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) GetTherapyTypes(ctx context.Context) []dto.TherapyTypeResponse {
	return converter.TherapiesToResponses(entity.TherapyCatalog())
}

func (u *appointmentUsecase) GetPractitioners(ctx context.Context) ([]dto.PractitionerResponse, error) {
	doctors, err := u.userRepo.FindActiveDoctors(ctx)
	if err != nil {
		u.log.Warnf("Failed to find practitioners: %+v", err)
		return nil, u.bookingError(err)
	}

	responses := make([]dto.PractitionerResponse, len(doctors))
	for i := range doctors {
		responses[i] = converter.UserToPractitionerResponse(&doctors[i])
	}
	return responses, nil
}

// GetAnalytics aggregates appointments by status and therapy, plus daily creations
// over the last seven local days (oldest first, zero-filled).
func (u *appointmentUsecase) GetAnalytics(ctx context.Context) (*dto.AnalyticsResponse, error) {
	byStatus, err := u.appointmentRepo.CountByStatus(ctx)
	if err != nil {
		u.log.Warnf("Failed to count appointments by status: %+v", err)
		return nil, u.bookingError(err)
	}
	byTherapy, err := u.appointmentRepo.CountByTherapy(ctx)
	if err != nil {
		u.log.Warnf("Failed to count appointments by therapy: %+v", err)
		return nil, u.bookingError(err)
	}

	y, m, d := u.now().In(u.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, u.loc)
	since := today.AddDate(0, 0, -(analyticsDays - 1))

	daily, err := u.appointmentRepo.CountCreatedPerDay(ctx, since, u.loc)
	if err != nil {
		u.log.Warnf("Failed to count daily appointments: %+v", err)
		return nil, u.bookingError(err)
	}

	response := &dto.AnalyticsResponse{
		ByStatus:  make(map[string]int64, len(byStatus)),
		ByTherapy: make([]dto.TherapyCount, 0, len(byTherapy)),
		Daily:     make([]dto.DailyCount, 0, analyticsDays),
	}
	for _, row := range byStatus {
		response.ByStatus[row.Key] = row.Count
		response.TotalAppointments += row.Count
	}
	for _, row := range byTherapy {
		response.ByTherapy = append(response.ByTherapy, dto.TherapyCount{
			TherapyID:   row.Key,
			TherapyName: entity.TherapyName(row.Key),
			Count:       row.Count,
		})
	}

	counts := make(map[string]int64, len(daily))
	for _, row := range daily {
		counts[row.Key] = row.Count
	}
	for i := 0; i < analyticsDays; i++ {
		day := since.AddDate(0, 0, i).Format(entity.DateLayout)
		response.Daily = append(response.Daily, dto.DailyCount{Date: day, Count: counts[day]})
	}

	return response, nil
}

// applyReschedule moves the interval when start or end is supplied. A new start alone
// keeps the current duration. It reports whether the interval changed.
func (u *appointmentUsecase) applyReschedule(a *entity.Appointment, req *dto.UpdateAppointmentRequest) (bool, error) {
	if req.StartTime == nil && req.EndTime == nil {
		return false, nil
	}

	start, end := a.StartTime, a.EndTime
	if req.StartTime != nil {
		start = req.StartTime.UTC()
		end = start.Add(a.EndTime.Sub(a.StartTime))
	}
	if req.EndTime != nil {
		end = req.EndTime.UTC()
	}

	if !end.After(start) {
		return false, ErrInvalidInterval
	}
	if start.Equal(a.StartTime) && end.Equal(a.EndTime) {
		return false, nil
	}
	if start.Before(u.now()) {
		return false, ErrPastBooking
	}

	a.StartTime, a.EndTime = start, end
	return true, nil
}

// findVisible loads an appointment the caller may see: admins see all, doctors their
// own practice, patients their own bookings.
func (u *appointmentUsecase) findVisible(ctx context.Context, caller actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, u.bookingError(err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	switch {
	case caller.IsAdmin():
	case caller.IsDoctor() && appointment.PractitionerID == caller.ID:
	case caller.IsPatient() && appointment.PatientID == caller.ID:
	default:
		return nil, ErrForbidden
	}
	return appointment, nil
}

// emitStatusChange notifies the patient of the new status and, on acceptance,
// enqueues the acceptance email.
func (u *appointmentUsecase) emitStatusChange(a *entity.Appointment) {
	notificationType, ok := entity.NotificationTypeForStatus(a.Status)
	if !ok {
		return
	}

	doctorName := "your practitioner"
	if a.Practitioner.ID == a.PractitionerID && a.Practitioner.FullName != "" {
		doctorName = a.Practitioner.FullName
	}

	relatedID := a.ID
	u.dispatch("status notification", func(ctx context.Context) error {
		return u.dispatcher.Notify(ctx, task.NotificationPayload{
			UserID:    a.PatientID,
			Type:      notificationType,
			Title:     fmt.Sprintf("Appointment %s", statusTitle(a.Status)),
			Message:   fmt.Sprintf("Your %s appointment with %s on %s has been %s.", entity.TherapyName(a.TherapyID), doctorName, u.formatTime(a.StartTime), a.Status),
			RelatedID: &relatedID,
		})
	})

	if a.Status == entity.AppointmentStatusAccepted {
		u.dispatch("acceptance email", func(ctx context.Context) error {
			return u.dispatcher.SendAcceptanceEmail(ctx, a.ID)
		})
	}
}

// dispatch enqueues a side effect detached from the request context. Failures are
// logged and never reach the caller.
func (u *appointmentUsecase) dispatch(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		u.log.Warnf("Failed to dispatch %s (non-fatal): %+v", name, err)
	}
}

func (u *appointmentUsecase) audit(ctx context.Context, fn func(ctx context.Context) error) {
	if u.auditService == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		u.log.Warnf("Failed to write audit log (non-fatal): %+v", err)
	}
}

// bookingError maps storage and lock failures onto usecase errors.
func (u *appointmentUsecase) bookingError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotConflict), errors.Is(err, repository.ErrDuplicateStart):
		return ErrSlotUnavailable
	case errors.Is(err, repository.ErrStaleWrite):
		return ErrConcurrentUpdate
	case errors.Is(err, repository.ErrStoreUnavailable), errors.Is(err, service.ErrLockTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return ErrUnavailable
	}
	return err
}

func (u *appointmentUsecase) formatTime(t time.Time) string {
	return t.In(u.loc).Format("02 Jan 2006 03:04 PM")
}

func isConflict(err error) bool {
	return errors.Is(err, repository.ErrSlotConflict) ||
		errors.Is(err, repository.ErrDuplicateStart) ||
		errors.Is(err, repository.ErrStaleWrite)
}

func statusTitle(s entity.AppointmentStatus) string {
	switch s {
	case entity.AppointmentStatusAccepted:
		return "Accepted"
	case entity.AppointmentStatusCompleted:
		return "Completed"
	case entity.AppointmentStatusCancelled:
		return "Cancelled"
	}
	return "Updated"
}

func appointmentSnapshot(a *entity.Appointment) map[string]interface{} {
	return map[string]interface{}{
		"patient_id":      a.PatientID,
		"practitioner_id": a.PractitionerID,
		"therapy_id":      a.TherapyID,
		"start_time":      a.StartTime,
		"end_time":        a.EndTime,
		"status":          a.Status,
	}
}
