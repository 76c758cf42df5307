package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockTimeout is returned when a practitioner lock is not obtained within the
// configured wait.
var ErrLockTimeout = errors.New("timed out waiting for practitioner lock")

// releaseLockScript deletes the lock key only if it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	RedisPractitionerLockPrefix = "booking:lock:practitioner:"
	RedisSweepLockPrefix        = "reminder:sweep:"

	// Upper bound on how long a crashed holder can block a practitioner.
	practitionerLockTTL = 15 * time.Second
	lockRetryInterval   = 25 * time.Millisecond
	lockReleaseTimeout  = 2 * time.Second

	semaphoreCleanupInterval = 10 * time.Minute
	semaphoreStaleThreshold  = 10 * time.Minute
)

// BookingLockService serializes booking writes per practitioner.
//
// Lock ordering:
//  1. in-process semaphore for the practitioner
//  2. Redis lock shared by every API instance
//
// Both waits are bounded by the lock timeout. The database advisory lock taken by the
// repository remains the final guard, so a Redis outage only logs a warning.
type BookingLockService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	waitTimeout time.Duration

	// Per-practitioner semaphore
	practitionerMu sync.Map // map[uuid.UUID]*semaphoreWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// semaphoreWithTimestamp is a one-slot channel semaphore; unlike sync.Mutex it can be
// acquired with a deadline.
type semaphoreWithTimestamp struct {
	sem      chan struct{}
	lastUsed atomic.Int64 // Unix timestamp
}

// NewBookingLockService starts the background cleanup goroutine. redisClient may be
// nil, in which case only the in-process lock is used. Call Stop() during shutdown.
func NewBookingLockService(redisClient *redis.Client, log *logrus.Logger, waitTimeout time.Duration) *BookingLockService {
	if waitTimeout <= 0 {
		waitTimeout = 3 * time.Second
	}
	svc := &BookingLockService{
		redisClient: redisClient,
		log:         log,
		waitTimeout: waitTimeout,
		stopChan:    make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupLoop()

	return svc
}

// Stop is safe to call multiple times.
func (s *BookingLockService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("BookingLockService stopped")
	}
}

// WithPractitionerLock runs fn while holding the practitioner's lock. fn receives the
// caller's ctx; only the wait for the lock is bounded by the lock timeout.
func (s *BookingLockService) WithPractitionerLock(ctx context.Context, practitionerID uuid.UUID, fn func(ctx context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()

	sem := s.getSemaphore(practitionerID)
	select {
	case sem.sem <- struct{}{}:
	case <-waitCtx.Done():
		s.log.Warnf("Timed out waiting for local lock on practitioner %s", practitionerID)
		return ErrLockTimeout
	}
	defer func() { <-sem.sem }()

	release, err := s.acquireRemote(waitCtx, RedisPractitionerLockPrefix+practitionerID.String(), practitionerLockTTL)
	if err != nil {
		return err
	}
	defer release()

	s.log.Debugf("Acquired booking lock for practitioner %s", practitionerID)
	return fn(ctx)
}

// TryLockSweep claims a reminder sweep bucket for ttl without waiting. It reports
// false when another run already holds the bucket.
func (s *BookingLockService) TryLockSweep(ctx context.Context, bucket string, ttl time.Duration) (bool, func(), error) {
	if s.redisClient == nil {
		return true, func() {}, nil
	}

	key := RedisSweepLockPrefix + bucket
	token := newLockToken()
	ok, err := s.redisClient.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		s.log.Warnf("Failed to claim sweep bucket %s: %+v", bucket, err)
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	return true, func() { s.release(key, token) }, nil
}

// acquireRemote polls SET NX until it wins or ctx expires.
func (s *BookingLockService) acquireRemote(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if s.redisClient == nil {
		return func() {}, nil
	}

	token := newLockToken()
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := s.redisClient.SetNX(ctx, key, token, ttl).Result()
		if err == nil && ok {
			return func() { s.release(key, token) }, nil
		}
		if err != nil && ctx.Err() == nil {
			s.log.Warnf("Redis lock %s unavailable, relying on database lock: %+v", key, err)
			return func() {}, nil
		}

		select {
		case <-ctx.Done():
			s.log.Warnf("Timed out waiting for lock %s", key)
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

func (s *BookingLockService) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
	defer cancel()

	if err := releaseLockScript.Run(ctx, s.redisClient, []string{key}, token).Err(); err != nil {
		// the key expires on its own after its TTL
		s.log.Warnf("Failed to release lock %s: %+v", key, err)
	}
}

func (s *BookingLockService) getSemaphore(practitionerID uuid.UUID) *semaphoreWithTimestamp {
	v, _ := s.practitionerMu.LoadOrStore(practitionerID, &semaphoreWithTimestamp{sem: make(chan struct{}, 1)})
	sem := v.(*semaphoreWithTimestamp)
	sem.lastUsed.Store(time.Now().Unix())
	return sem
}

func (s *BookingLockService) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(semaphoreCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Lock cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStale(time.Now().Add(-semaphoreStaleThreshold))
		}
	}
}

// cleanupStale removes semaphores idle since before cutoff. A semaphore is only removed
// while we hold it.
func (s *BookingLockService) cleanupStale(cutoff time.Time) int {
	var cleaned int
	s.practitionerMu.Range(func(key, value any) bool {
		sem, ok := value.(*semaphoreWithTimestamp)
		if !ok {
			return true
		}
		select {
		case sem.sem <- struct{}{}:
			if sem.lastUsed.Load() < cutoff.Unix() {
				s.practitionerMu.Delete(key)
				cleaned++
			}
			<-sem.sem
		default:
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale practitioner locks", cleaned)
	}
	return cleaned
}

func newLockToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}
