package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestWithPractitionerLock_Serializes(t *testing.T) {
	svc := NewBookingLockService(nil, quietLogger(), time.Second)
	defer svc.Stop()

	practitioner := uuid.New()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.WithPractitionerLock(context.Background(), practitioner, func(ctx context.Context) error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxInside.Load())
	}
}

func TestWithPractitionerLock_TimesOut(t *testing.T) {
	svc := NewBookingLockService(nil, quietLogger(), 20*time.Millisecond)
	defer svc.Stop()

	practitioner := uuid.New()
	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = svc.WithPractitionerLock(context.Background(), practitioner, func(ctx context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := svc.WithPractitionerLock(context.Background(), practitioner, func(ctx context.Context) error {
		t.Fatalf("must not run while the lock is held")
		return nil
	})
	close(done)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}

	// other practitioners are not blocked
	if err := svc.WithPractitionerLock(context.Background(), uuid.New(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("independent practitioner: %v", err)
	}
}

func TestWithPractitionerLock_ReturnsFnError(t *testing.T) {
	svc := NewBookingLockService(nil, quietLogger(), time.Second)
	defer svc.Stop()

	boom := errors.New("boom")
	practitioner := uuid.New()
	if err := svc.WithPractitionerLock(context.Background(), practitioner, func(ctx context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	// the lock was released
	if err := svc.WithPractitionerLock(context.Background(), practitioner, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("lock not released: %v", err)
	}
}

func TestTryLockSweep_WithoutRedis(t *testing.T) {
	svc := NewBookingLockService(nil, quietLogger(), time.Second)
	defer svc.Stop()

	ok, release, err := svc.TryLockSweep(context.Background(), "reminder_24h:2030-06-04T08:00:00Z", time.Hour)
	if err != nil || !ok || release == nil {
		t.Fatalf("expected the bucket to be claimed, got %v %v", ok, err)
	}
	release()
}

func TestCleanupStale(t *testing.T) {
	svc := NewBookingLockService(nil, quietLogger(), time.Second)
	defer svc.Stop()

	idle := svc.getSemaphore(uuid.New())
	idle.lastUsed.Store(time.Now().Add(-time.Hour).Unix())
	busy := svc.getSemaphore(uuid.New())
	busy.lastUsed.Store(time.Now().Add(-time.Hour).Unix())
	busy.sem <- struct{}{}
	svc.getSemaphore(uuid.New())

	if n := svc.cleanupStale(time.Now().Add(-semaphoreStaleThreshold)); n != 1 {
		t.Fatalf("expected only the idle unheld semaphore to be removed, got %d", n)
	}
	<-busy.sem
}

func TestStop_Idempotent(t *testing.T) {
	svc := NewBookingLockService(nil, quietLogger(), time.Second)
	svc.Stop()
	svc.Stop()
}
