package rest

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// keyLimiter is a token bucket per key with its last use.
type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginLimiter throttles login attempts per username. Idle buckets are
// dropped after ttl on the next call that finds the sweep due.
type LoginLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu        sync.Mutex
	limiters  map[string]*keyLimiter
	nextSweep time.Time
}

// NewLoginLimiter allows perMinute attempts per username with a burst of the
// same size.
func NewLoginLimiter(perMinute int) *LoginLimiter {
	return &LoginLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		ttl:      10 * time.Minute,
		limiters: make(map[string]*keyLimiter),
	}
}

// Allow reports whether an attempt for username may proceed now.
func (l *LoginLimiter) Allow(username string) bool {
	key := strings.ToLower(strings.TrimSpace(username))
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, kl := range l.limiters {
			if now.Sub(kl.lastAccess) > l.ttl {
				delete(l.limiters, k)
			}
		}
		l.nextSweep = now.Add(l.ttl)
	}

	kl, ok := l.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = kl
	}
	kl.lastAccess = now
	return kl.limiter.AllowN(now, 1)
}

// Len returns the number of tracked usernames.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// writeRateLimited writes 429 with a Retry-After of the time one token takes
// to refill.
func (l *LoginLimiter) writeRateLimited(w http.ResponseWriter) {
	retryAfter := int(math.Ceil(1.0 / float64(l.limit)))
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(errorResponse{Detail: "too many login attempts"})
}
