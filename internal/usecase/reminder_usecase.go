package usecase

import (
	"context"
	"fmt"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	sweepBucket  = time.Hour
	sweepLockTTL = 10 * time.Minute
)

// ReminderMailer sends one reminder email.
type ReminderMailer interface {
	SendReminder(ctx context.Context, appointment *entity.Appointment, patient, doctor *entity.User, kind entity.ReminderKind) error
}

// SweepLocker claims a sweep bucket so overlapping runs skip it.
type SweepLocker interface {
	TryLockSweep(ctx context.Context, bucket string, ttl time.Duration) (bool, func(), error)
}

// ReminderWindow selects appointments whose start falls in the one-hour bucket
// beginning Offset from the sweep time.
type ReminderWindow struct {
	Kind     entity.ReminderKind
	Offset   time.Duration
	Statuses []entity.AppointmentStatus
}

// ReminderWindows are swept in this order: 24h ahead, 4h ahead, post-care 24h behind.
func ReminderWindows() []ReminderWindow {
	return []ReminderWindow{
		{Kind: entity.Reminder24h, Offset: 24 * time.Hour, Statuses: []entity.AppointmentStatus{entity.AppointmentStatusAccepted}},
		{Kind: entity.Reminder4h, Offset: 4 * time.Hour, Statuses: []entity.AppointmentStatus{entity.AppointmentStatusAccepted}},
		{Kind: entity.ReminderPostCare, Offset: -24 * time.Hour, Statuses: []entity.AppointmentStatus{entity.AppointmentStatusAccepted, entity.AppointmentStatusCompleted}},
	}
}

// SweepResult counts what one sweep did per window.
type SweepResult struct {
	Found   map[entity.ReminderKind]int
	Sent    map[entity.ReminderKind]int
	Failed  map[entity.ReminderKind]int
	Skipped []entity.ReminderKind
}

type ReminderUsecase interface {
	RunSweep(ctx context.Context, now time.Time) (*SweepResult, error)
}

type reminderUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	mailer          ReminderMailer
	locker          SweepLocker
}

func NewReminderUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	mailer ReminderMailer,
	locker SweepLocker,
) ReminderUsecase {
	return &reminderUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		mailer:          mailer,
		locker:          locker,
	}
}

// RunSweep sends every reminder that is due at now.
//
// For each window the bucket [hour(now)+offset, +1h) is claimed, appointments with a
// pending latch are loaded and each one is sent then latched. A failed send leaves the
// latch pending. A latch that another run already flipped is left alone.
func (u *reminderUsecase) RunSweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	result := &SweepResult{
		Found:  make(map[entity.ReminderKind]int),
		Sent:   make(map[entity.ReminderKind]int),
		Failed: make(map[entity.ReminderKind]int),
	}

	base := now.UTC().Truncate(sweepBucket)
	for _, w := range ReminderWindows() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		from := base.Add(w.Offset)
		to := from.Add(sweepBucket)
		bucket := fmt.Sprintf("%s:%s", w.Kind, from.Format(time.RFC3339))

		ok, release, err := u.locker.TryLockSweep(ctx, bucket, sweepLockTTL)
		if err != nil {
			u.log.Warnf("Failed to claim sweep bucket %s: %+v", bucket, err)
			result.Skipped = append(result.Skipped, w.Kind)
			continue
		}
		if !ok {
			u.log.Infof("Sweep bucket %s is held by another run, skipping", bucket)
			result.Skipped = append(result.Skipped, w.Kind)
			continue
		}

		u.sweepWindow(ctx, w, from, to, result)
		release()
	}

	u.log.WithFields(logrus.Fields{
		"found":   result.Found,
		"sent":    result.Sent,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	}).Info("Reminder sweep finished")

	return result, nil
}

func (u *reminderUsecase) sweepWindow(ctx context.Context, w ReminderWindow, from, to time.Time, result *SweepResult) {
	appointments, err := u.appointmentRepo.FindDueForReminder(ctx, w.Kind, w.Statuses, from, to)
	if err != nil {
		u.log.Warnf("Failed to find appointments due for %s: %+v", w.Kind, err)
		result.Failed[w.Kind]++
		return
	}
	result.Found[w.Kind] = len(appointments)
	if len(appointments) == 0 {
		return
	}

	users := u.lookupUsers(ctx, appointments)

	for i := range appointments {
		a := &appointments[i]
		if a.Reminder(w.Kind) == entity.ReminderSent {
			continue
		}

		patient := userOf(a.Patient, a.PatientID, users)
		doctor := userOf(a.Practitioner, a.PractitionerID, users)
		if patient == nil || patient.Email == "" {
			u.log.Warnf("Skipping %s for appointment %s: patient email unknown", w.Kind, a.ID)
			result.Failed[w.Kind]++
			continue
		}

		if err := u.mailer.SendReminder(ctx, a, patient, doctor, w.Kind); err != nil {
			u.log.Warnf("Failed to send %s for appointment %s: %+v", w.Kind, a.ID, err)
			result.Failed[w.Kind]++
			continue
		}

		latched, err := u.appointmentRepo.MarkReminderSent(ctx, a.ID, w.Kind)
		if err != nil {
			u.log.Warnf("Failed to latch %s for appointment %s: %+v", w.Kind, a.ID, err)
			result.Failed[w.Kind]++
			continue
		}
		if !latched {
			u.log.Infof("%s for appointment %s was already latched", w.Kind, a.ID)
			continue
		}
		a.LatchReminder(w.Kind)
		result.Sent[w.Kind]++
	}
}

// lookupUsers loads parties the repository did not preload.
func (u *reminderUsecase) lookupUsers(ctx context.Context, appointments []entity.Appointment) map[uuid.UUID]*entity.User {
	var missing []uuid.UUID
	for _, a := range appointments {
		if a.Patient.ID != a.PatientID {
			missing = append(missing, a.PatientID)
		}
		if a.Practitioner.ID != a.PractitionerID {
			missing = append(missing, a.PractitionerID)
		}
	}
	users := make(map[uuid.UUID]*entity.User)
	if len(missing) == 0 {
		return users
	}

	found, err := u.userRepo.FindByIDs(ctx, missing)
	if err != nil {
		u.log.Warnf("Failed to load reminder recipients: %+v", err)
		return users
	}
	for i := range found {
		users[found[i].ID] = &found[i]
	}
	return users
}

func userOf(loaded entity.User, id uuid.UUID, users map[uuid.UUID]*entity.User) *entity.User {
	if loaded.ID == id {
		return &loaded
	}
	return users[id]
}
