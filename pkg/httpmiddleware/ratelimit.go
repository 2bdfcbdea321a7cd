package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures a per-key request limit.
type RateLimitConfig struct {
	// Max requests per Window.
	Max    int
	Window time.Duration
	// KeyFunc groups requests; ClientIP when nil.
	KeyFunc func(*http.Request) string
}

// counter holds the count of the current fixed window and of the one before it.
type counter struct {
	start time.Time
	curr  int
	prev  int
}

// Decision is the outcome of one Limiter.Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter approximates a sliding window by weighting the previous fixed
// window with the share of it that still overlaps the sliding one.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	keys map[string]*counter
}

// NewLimiter allows max requests per key within any window-long interval.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
		keys:   make(map[string]*counter),
	}
}

// Allow records a request for key unless that would exceed the limit.
func (l *Limiter) Allow(key string) Decision {
	now := l.now()
	start := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.keys[key]
	if !ok {
		c = &counter{start: start}
		l.keys[key] = c
	}
	if !c.start.Equal(start) {
		if start.Sub(c.start) == l.window {
			c.prev = c.curr
		} else {
			c.prev = 0
		}
		c.curr = 0
		c.start = start
	}

	weight := 1 - float64(now.Sub(start))/float64(l.window)
	used := float64(c.prev)*weight + float64(c.curr)
	d := Decision{Reset: start.Add(l.window)}
	if used+1 > float64(l.max) {
		return d
	}
	c.curr++
	d.Allowed = true
	d.Remaining = max(0, int(float64(l.max)-used-1))
	return d
}

// Sweep forgets keys idle for two windows and returns how many were dropped.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Truncate(l.window).Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	for key, c := range l.keys {
		if c.start.Before(cutoff) {
			delete(l.keys, key)
			n++
		}
	}
	return n
}

// Run sweeps every two windows until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(2 * l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// RateLimit answers 429 with the standard error body once a key exceeds its
// budget. Every response carries X-RateLimit-Limit, X-RateLimit-Remaining
// and X-RateLimit-Reset. Idle keys are kept forever; see RateLimitWithCleanup.
func RateLimit(cfg RateLimitConfig) Middleware {
	return Limit(NewLimiter(cfg.Max, cfg.Window), cfg.KeyFunc)
}

// RateLimitWithCleanup is RateLimit with idle keys swept until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := NewLimiter(cfg.Max, cfg.Window)
	go l.Run(ctx)
	return Limit(l, cfg.KeyFunc)
}

// Limit enforces l on requests grouped by key.
func Limit(l *Limiter, key func(*http.Request) string) Middleware {
	if key == nil {
		key = ClientIP
	}
	limit := strconv.Itoa(l.max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Allow(key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
			if !d.Allowed {
				wait := max(0, d.Reset.Sub(l.now()).Seconds())
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait))))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// PerRoute keys the limiter by client IP and request path, so a tight limit
// on one endpoint does not consume the budget of the others.
func PerRoute(r *http.Request) string {
	return ClientIP(r) + " " + r.URL.Path
}
