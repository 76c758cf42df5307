package usecase

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"ayurveda-clinic-backend/internal/delivery/http/middleware"
	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/internal/domain/repository"
	"ayurveda-clinic-backend/internal/task"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func asUser(id uuid.UUID, roleID int) context.Context {
	return middleware.ContextWithUser(context.Background(), id, "user@example.com", roleID)
}

// fakeAppointmentRepo mirrors the store's guarantees in memory: Create and
// rescheduling Updates reject overlaps with live appointments and duplicate starts.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*entity.Appointment
	createErr    error
	markCalls    int
	// beforeUpdate runs under the lock ahead of the compare-and-set.
	beforeUpdate func(stored *entity.Appointment)
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*entity.Appointment)}
}

func (r *fakeAppointmentRepo) put(a *entity.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.appointments[a.ID] = &cp
}

func (r *fakeAppointmentRepo) get(id uuid.UUID) entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.appointments[id]
}

func (r *fakeAppointmentRepo) all() []entity.Appointment {
	out := make([]entity.Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, a *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	all := r.all()
	if entity.HasConflict(all, a.PractitionerID, a.StartTime, a.EndTime, uuid.Nil) {
		return repository.ErrSlotConflict
	}
	for _, e := range all {
		if e.PractitionerID == a.PractitionerID && e.StartTime.Equal(a.StartTime) {
			return repository.ErrDuplicateStart
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) HasConflict(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return entity.HasConflict(r.all(), practitionerID, start, end, exclude), nil
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, a *entity.Appointment, expected entity.AppointmentStatus, rescheduled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.appointments[a.ID]
	if ok && r.beforeUpdate != nil {
		r.beforeUpdate(stored)
	}
	if !ok || stored.Status != expected {
		return repository.ErrStaleWrite
	}
	if rescheduled {
		all := r.all()
		if entity.HasConflict(all, a.PractitionerID, a.StartTime, a.EndTime, a.ID) {
			return repository.ErrSlotConflict
		}
		for _, e := range all {
			if e.ID != a.ID && e.PractitionerID == a.PractitionerID && e.StartTime.Equal(a.StartTime) {
				return repository.ErrDuplicateStart
			}
		}
	}
	stored.Status = a.Status
	stored.StartTime = a.StartTime
	stored.EndTime = a.EndTime
	stored.Notes = a.Notes
	return nil
}

func (r *fakeAppointmentRepo) UpdatePrescription(ctx context.Context, id uuid.UUID, prescription string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return 0, nil
	}
	a.Prescription = prescription
	return 1, nil
}

func (r *fakeAppointmentRepo) FindByPractitionerAndRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time, statuses []entity.AppointmentStatus) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.all() {
		if a.PractitionerID == practitionerID && a.Overlaps(from, to) && statusIn(a.Status, statuses) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) filter(keep func(entity.Appointment) bool) []entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.all() {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (r *fakeAppointmentRepo) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *fakeAppointmentRepo) FindByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool { return a.PractitionerID == practitionerID }), nil
}

func (r *fakeAppointmentRepo) FindByStatus(ctx context.Context, status entity.AppointmentStatus) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool { return a.Status == status }), nil
}

func (r *fakeAppointmentRepo) FindAll(ctx context.Context) ([]entity.Appointment, error) {
	return r.filter(func(entity.Appointment) bool { return true }), nil
}

func (r *fakeAppointmentRepo) FindDueForReminder(ctx context.Context, kind entity.ReminderKind, statuses []entity.AppointmentStatus, from, to time.Time) ([]entity.Appointment, error) {
	return r.filter(func(a entity.Appointment) bool {
		return !a.StartTime.Before(from) && a.StartTime.Before(to) &&
			statusIn(a.Status, statuses) && a.Reminder(kind) == entity.ReminderPending
	}), nil
}

func (r *fakeAppointmentRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, kind entity.ReminderKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markCalls++
	a, ok := r.appointments[id]
	if !ok {
		return false, nil
	}
	return a.LatchReminder(kind), nil
}

func (r *fakeAppointmentRepo) CountByStatus(ctx context.Context) ([]repository.CountRow, error) {
	counts := map[string]int64{}
	for _, a := range r.filter(func(entity.Appointment) bool { return true }) {
		counts[string(a.Status)]++
	}
	return toRows(counts), nil
}

func (r *fakeAppointmentRepo) CountByTherapy(ctx context.Context) ([]repository.CountRow, error) {
	counts := map[string]int64{}
	for _, a := range r.filter(func(entity.Appointment) bool { return true }) {
		counts[a.TherapyID]++
	}
	return toRows(counts), nil
}

func (r *fakeAppointmentRepo) CountCreatedPerDay(ctx context.Context, since time.Time, loc *time.Location) ([]repository.CountRow, error) {
	counts := map[string]int64{}
	for _, a := range r.filter(func(a entity.Appointment) bool { return !a.CreatedAt.Before(since) }) {
		counts[a.CreatedAt.In(loc).Format(entity.DateLayout)]++
	}
	return toRows(counts), nil
}

func toRows(counts map[string]int64) []repository.CountRow {
	rows := make([]repository.CountRow, 0, len(counts))
	for k, v := range counts {
		rows = append(rows, repository.CountRow{Key: k, Count: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

func statusIn(s entity.AppointmentStatus, statuses []entity.AppointmentStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindActiveDoctors(ctx context.Context) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, u := range r.users {
		if u.IsDoctor() && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeDispatcher struct {
	mu            sync.Mutex
	notifications []task.NotificationPayload
	confirmations []uuid.UUID
	acceptances   []uuid.UUID
	err           error
}

func (d *fakeDispatcher) Notify(ctx context.Context, p task.NotificationPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = append(d.notifications, p)
	return d.err
}

func (d *fakeDispatcher) SendBookingConfirmation(ctx context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.confirmations = append(d.confirmations, id)
	return d.err
}

func (d *fakeDispatcher) SendAcceptanceEmail(ctx context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acceptances = append(d.acceptances, id)
	return d.err
}

type fakeAvailabilityRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]map[int]*entity.DoctorAvailability
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{records: make(map[uuid.UUID]map[int]*entity.DoctorAvailability)}
}

func (r *fakeAvailabilityRepo) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]entity.DoctorAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.DoctorAvailability
	for _, rec := range r.records[doctorID] {
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) FindByDoctorAndDay(ctx context.Context, doctorID uuid.UUID, day int) (*entity.DoctorAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[doctorID][day]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeAvailabilityRepo) ModifyDay(ctx context.Context, doctorID uuid.UUID, day int, mutate func(*entity.DoctorAvailability)) (*entity.DoctorAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records[doctorID] == nil {
		r.records[doctorID] = make(map[int]*entity.DoctorAvailability)
	}
	rec, ok := r.records[doctorID][day]
	if !ok {
		rec = entity.NewDefaultAvailability(doctorID, day)
		rec.ID = len(r.records[doctorID]) + 1
		r.records[doctorID][day] = rec
	}
	mutate(rec)
	cp := *rec
	return &cp, nil
}

type fakeFeedbackRepo struct {
	mu        sync.Mutex
	feedbacks map[uuid.UUID]*entity.Feedback
	appts     *fakeAppointmentRepo
}

func (r *fakeFeedbackRepo) Create(ctx context.Context, f *entity.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.feedbacks[f.AppointmentID]; ok {
		return repository.ErrDuplicate
	}
	f.ID = uuid.New()
	f.CreatedAt = time.Now()
	cp := *f
	r.feedbacks[f.AppointmentID] = &cp

	r.appts.mu.Lock()
	if a, ok := r.appts.appointments[f.AppointmentID]; ok {
		a.FeedbackSubmitted = true
	}
	r.appts.mu.Unlock()
	return nil
}

func (r *fakeFeedbackRepo) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entity.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feedbacks[appointmentID]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFeedbackRepo) FindByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]entity.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Feedback
	for _, f := range r.feedbacks {
		if f.PractitionerID == practitionerID {
			out = append(out, *f)
		}
	}
	return out, nil
}
