package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"folio-terminal/internal/router"
)

const (
	defaultRatePerMinute = 30
	defaultRateBurst     = 10
	pruneEvery           = 256
)

type ipBucket struct {
	tokens float64
	last   time.Time
}

// limiter is a per-IP token bucket. Buckets that have refilled completely
// carry no state and are pruned periodically.
type limiter struct {
	mu      sync.Mutex
	rate    float64 // tokens per second
	burst   float64
	buckets map[string]ipBucket
	calls   int
	now     func() time.Time
}

func newLimiter(limitPerMinute, burst int) *limiter {
	if limitPerMinute <= 0 {
		limitPerMinute = defaultRatePerMinute
	}
	if burst <= 0 {
		burst = defaultRateBurst
	}
	return &limiter{
		rate:    float64(limitPerMinute) / 60.0,
		burst:   float64(burst),
		buckets: make(map[string]ipBucket),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (l *limiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls%pruneEvery == 0 {
		l.pruneLocked(now)
	}

	bucket, ok := l.buckets[ip]
	if !ok {
		bucket = ipBucket{tokens: l.burst, last: now}
	}
	bucket = l.refill(bucket, now)

	if bucket.tokens < 1 {
		l.buckets[ip] = bucket
		return false
	}
	bucket.tokens--
	l.buckets[ip] = bucket
	return true
}

func (l *limiter) refill(b ipBucket, now time.Time) ipBucket {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return b
	}
	b.tokens += elapsed * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now
	return b
}

func (l *limiter) pruneLocked(now time.Time) {
	for ip, b := range l.buckets {
		if l.refill(b, now).tokens >= l.burst {
			delete(l.buckets, ip)
		}
	}
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimitMiddleware enforces per-IP connection limits using a token bucket.
func RateLimitMiddleware(limitPerMinute, burst int) wish.Middleware {
	return rateLimit(newLimiter(limitPerMinute, burst))
}

func rateLimit(l *limiter) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			ip := router.RemoteIP(s)
			if !l.allow(ip) {
				log.Warn("rate limit exceeded", "event", "rate_limit_throttled", "remote_ip", ip)
				_, _ = s.Write([]byte("rate limit exceeded\n"))
				return
			}
			next(s)
		}
	}
}
