package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
)

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items []*entity.Notification
	err   error
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeNotificationRepo) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []entity.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id && item.UserID == userID {
			item.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item.ID == id && item.UserID == userID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	var n int64
	for _, item := range r.items {
		if item.UserID == userID {
			n++
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return n, nil
}

func seedNotifications(repo *fakeNotificationRepo, userID uuid.UUID, count int) []uuid.UUID {
	base := time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, count)
	for i := 0; i < count; i++ {
		n := &entity.Notification{
			UserID:    userID,
			Type:      entity.NotificationAppointmentAccepted,
			Title:     "Appointment Accepted",
			Message:   "Your appointment was accepted",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		_ = repo.Create(context.Background(), n)
		ids[i] = n.ID
	}
	return ids
}

func TestGetNotifications_NewestFirstWithUnreadCount(t *testing.T) {
	repo := &fakeNotificationRepo{}
	uc := NewNotificationUsecase(quietLogger(), repo)
	user := uuid.New()
	ids := seedNotifications(repo, user, 3)
	seedNotifications(repo, uuid.New(), 2)

	ctx := asUser(user, entity.RoleIDPatient)
	if err := uc.MarkAsRead(ctx, ids[0]); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	res, err := uc.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 3 || res.UnreadCount != 2 {
		t.Fatalf("expected 3 total and 2 unread, got %d/%d", res.Total, res.UnreadCount)
	}
	if res.Notifications[0].ID != ids[2] {
		t.Fatalf("expected newest first")
	}
}

func TestGetNotifications_CappedAtFifty(t *testing.T) {
	repo := &fakeNotificationRepo{}
	uc := NewNotificationUsecase(quietLogger(), repo)
	user := uuid.New()
	seedNotifications(repo, user, 60)

	res, err := uc.GetNotifications(asUser(user, entity.RoleIDPatient))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 50 || res.UnreadCount != 60 {
		t.Fatalf("expected 50 listed and 60 unread, got %d/%d", res.Total, res.UnreadCount)
	}
}

func TestNotifications_ScopedToOwner(t *testing.T) {
	repo := &fakeNotificationRepo{}
	uc := NewNotificationUsecase(quietLogger(), repo)
	owner := uuid.New()
	ids := seedNotifications(repo, owner, 2)
	stranger := asUser(uuid.New(), entity.RoleIDPatient)

	if err := uc.MarkAsRead(stranger, ids[0]); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("mark read: expected ErrNotificationNotFound, got %v", err)
	}
	if err := uc.DeleteNotification(stranger, ids[0]); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("delete: expected ErrNotificationNotFound, got %v", err)
	}
	res, err := uc.DeleteAllNotifications(stranger)
	if err != nil || res.Affected != 0 {
		t.Fatalf("delete all for stranger: %v %+v", err, res)
	}

	ctx := asUser(owner, entity.RoleIDPatient)
	marked, err := uc.MarkAllAsRead(ctx)
	if err != nil || marked.Affected != 2 {
		t.Fatalf("mark all: %v %+v", err, marked)
	}
	if err := uc.DeleteNotification(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	deleted, err := uc.DeleteAllNotifications(ctx)
	if err != nil || deleted.Affected != 1 {
		t.Fatalf("delete all: %v %+v", err, deleted)
	}
}

func TestNotifications_RequireCaller(t *testing.T) {
	uc := NewNotificationUsecase(quietLogger(), &fakeNotificationRepo{})

	if _, err := uc.GetNotifications(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestNotifications_StoreUnavailable(t *testing.T) {
	repo := &fakeNotificationRepo{err: repository.ErrStoreUnavailable}
	uc := NewNotificationUsecase(quietLogger(), repo)

	if _, err := uc.GetNotifications(asUser(uuid.New(), entity.RoleIDPatient)); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
