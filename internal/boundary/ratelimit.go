package boundary

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/talgya/npcforge/internal/apperr"
)

// rateLimiter is an in-memory per-IP fixed-window token bucket guarding
// the Oracle-consuming routes (spec.md §6: npc/action, quest/generate,
// conversation/message all reach Brain.Cognize). Each IP's bucket refills
// to maxRate once window has passed since its last reset. Grounded on the
// teacher's internal/api/ratelimit.go RateLimiter/bucket shape; retained
// nearly verbatim since the fixed-window algorithm itself needs no change, only
// the wire response (apperr's {error:{kind,message,retryable}} body
// instead of a bare http.Error string).
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	maxRate int
	window  time.Duration
}

type rateBucket struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a limiter allowing maxRate requests per window per
// client IP, with hourly cleanup of stale entries exactly like the teacher.
func newRateLimiter(maxRate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		buckets: make(map[string]*rateBucket),
		maxRate: maxRate,
		window:  window,
	}
	go func() {
		for {
			time.Sleep(time.Hour)
			rl.cleanup()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	now := time.Now()

	if !ok || now.Sub(b.lastReset) >= rl.window {
		rl.buckets[ip] = &rateBucket{tokens: rl.maxRate - 1, lastReset: now}
		return true
	}
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

func (rl *rateLimiter) retryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		return 0
	}
	remaining := rl.window - time.Since(b.lastReset)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, b := range rl.buckets {
		if now.Sub(b.lastReset) > 2*rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// clientIP strips the port from RemoteAddr, preferring X-Forwarded-For's
// first hop when present, matching the teacher's extraction.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i, c := range xff {
			if c == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

// rateLimited wraps next so that LLM-consuming routes return
// apperr.RateLimited (HTTP 429, retryable) once an IP exceeds maxRate
// requests per window, instead of queuing unboundedly into Oracle.
func rateLimited(rl *rateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(ip)))
			writeErr(w, apperr.New(apperr.RateLimited, "too many requests, slow down").WithRetry())
			return
		}
		next(w, r)
	}
}
