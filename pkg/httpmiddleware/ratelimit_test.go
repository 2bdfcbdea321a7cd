package httpmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(max int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)}
	l := NewLimiter(max, window)
	l.now = clock.now
	return l, clock
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, remoteAddr string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	var remaining []int
	for range 3 {
		d := l.Allow("a")
		require.True(t, d.Allowed)
		remaining = append(remaining, d.Remaining)
	}
	assert.Equal(t, []int{2, 1, 0}, remaining)

	d := l.Allow("a")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Date(2026, time.March, 14, 10, 1, 0, 0, time.UTC), d.Reset)

	assert.True(t, l.Allow("b").Allowed, "keys have independent budgets")
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l, clock := newTestLimiter(4, time.Minute)
	for range 4 {
		require.True(t, l.Allow("a").Allowed)
	}

	// A quarter into the next window three quarters of the previous count
	// still applies: 4*0.75 = 3, so exactly one more request fits.
	clock.advance(time.Minute + 15*time.Second)
	assert.True(t, l.Allow("a").Allowed)
	assert.False(t, l.Allow("a").Allowed)

	// Two windows later the old count no longer applies.
	clock.advance(2 * time.Minute)
	for range 4 {
		assert.True(t, l.Allow("a").Allowed)
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	l.Allow("old")
	clock.advance(90 * time.Second)
	l.Allow("recent")

	assert.Equal(t, 0, l.Sweep(), "keys from the previous window are kept")

	clock.advance(time.Minute)
	assert.Equal(t, 1, l.Sweep())
	assert.Len(t, l.keys, 1)
	assert.Contains(t, l.keys, "recent")
}

func TestLimiter_RunStopsOnCancel(t *testing.T) {
	l := NewLimiter(1, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRateLimit_Headers(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 10, Window: time.Minute})(okHandler())

	w := serve(handler, "192.168.1.1:4444")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_Rejects(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	handler := Limit(l, nil)(okHandler())

	require.Equal(t, http.StatusOK, serve(handler, "10.0.0.1:9999").Code)

	w := serve(handler, "10.0.0.1:1111")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])

	assert.Equal(t, http.StatusOK, serve(handler, "10.0.0.2:9999").Code)
}

func TestRateLimit_KeyFuncs(t *testing.T) {
	deviceID := func(r *http.Request) string { return r.Header.Get("X-Device-ID") }
	withKey := func(k string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Device-ID", k) }
	}
	forwarded := func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18") }
	path := func(p string) func(*http.Request) {
		return func(r *http.Request) { r.URL.Path = p }
	}

	tests := []struct {
		name   string
		key    func(*http.Request) string
		first  []func(*http.Request)
		second []func(*http.Request)
		addr2  string
		want   int
	}{
		{
			name: "custom key limited", key: deviceID,
			first: []func(*http.Request){withKey("a")}, second: []func(*http.Request){withKey("a")},
			addr2: "10.0.0.5:1", want: http.StatusTooManyRequests,
		},
		{
			name: "custom key independent", key: deviceID,
			first: []func(*http.Request){withKey("a")}, second: []func(*http.Request){withKey("b")},
			addr2: "10.0.0.1:1", want: http.StatusOK,
		},
		{
			name:  "forwarded client shared across proxies",
			first: []func(*http.Request){forwarded}, second: []func(*http.Request){forwarded},
			addr2: "192.168.1.2:5555", want: http.StatusTooManyRequests,
		},
		{
			name: "per route separate paths", key: PerRoute,
			first: []func(*http.Request){path("/api/auth/login")}, second: []func(*http.Request){path("/api/orders")},
			addr2: "10.0.0.1:2", want: http.StatusOK,
		},
		{
			name: "per route same path", key: PerRoute,
			first: []func(*http.Request){path("/api/auth/login")}, second: []func(*http.Request){path("/api/auth/login")},
			addr2: "10.0.0.1:2", want: http.StatusTooManyRequests,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute, KeyFunc: tt.key})(okHandler())
			require.Equal(t, http.StatusOK, serve(handler, "10.0.0.1:1", tt.first...).Code)
			assert.Equal(t, tt.want, serve(handler, tt.addr2, tt.second...).Code)
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", remote: "10.1.1.1:5000", want: "10.1.1.1"},
		{name: "remote without port", remote: "10.1.1.1", want: "10.1.1.1"},
		{name: "forwarded list", remote: "10.1.1.1:1", headers: map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, want: "203.0.113.7"},
		{name: "real ip", remote: "10.1.1.1:1", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, want: "198.51.100.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
