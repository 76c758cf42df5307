package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"ayurveda-clinic-backend/pkg/response"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles booking writes per client. Authenticated requests are keyed
// by user id, anonymous ones by remote address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	log      *logrus.Logger
	now      func() time.Time
}

func NewRateLimiter(perMinute, burst int, log *logrus.Logger) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		log:      log,
		now:      time.Now,
	}
}

func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !l.get(key).Allow() {
			l.log.Warnf("Rate limit exceeded for %s", key)
			response.TooManyRequests(w, "Rate limit exceeded. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		l.evictIdle(now)
		entry = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// evictIdle drops limiters not used for limiterIdleTTL. Caller holds mu.
func (l *RateLimiter) evictIdle(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
}

func clientKey(r *http.Request) string {
	if userID, ok := GetUserIDFromContext(r.Context()); ok {
		return "user:" + userID.String()
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return "ip:" + strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
