package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(requests, windowMinutes int) (*RateLimiter, *testClock) {
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewRateLimiter(
		config.RateLimitConfig{Requests: requests, WindowMinutes: windowMinutes},
		nil,
		WithRateLimitClock(clock.Now),
	)
	return l, clock
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(userID uuid.UUID, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.RemoteAddr = remoteAddr
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUserID(req.Context(), userID))
	}
	return req
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	t.Parallel()

	limiter, _ := newTestLimiter(3, 15)
	handler := limiter.Handler(okHandler())
	user := uuid.New()

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestAs(user, "10.0.0.1:1234"))
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
		assert.Equal(t, "3", rr.Header().Get(HeaderRateLimitLimit))
		assert.Equal(t, strconv.Itoa(2-i), rr.Header().Get(HeaderRateLimitRemaining))
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestAs(user, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get(HeaderRateLimitRemaining))
	assert.NotEmpty(t, rr.Header().Get(HeaderRetryAfter))
	assert.Contains(t, rr.Body.String(), RateLimitMessage)
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestRateLimiterKeysByUserThenIP(t *testing.T) {
	t.Parallel()

	limiter, _ := newTestLimiter(1, 15)
	handler := limiter.Handler(okHandler())

	alice, bob := uuid.New(), uuid.New()
	cases := []struct {
		req  *http.Request
		want int
	}{
		{requestAs(alice, "10.0.0.1:1"), http.StatusOK},
		{requestAs(alice, "10.0.0.2:1"), http.StatusTooManyRequests},
		{requestAs(bob, "10.0.0.1:1"), http.StatusOK},
		{requestAs(uuid.Nil, "10.0.0.1:1"), http.StatusOK},
		{requestAs(uuid.Nil, "10.0.0.1:2"), http.StatusTooManyRequests},
		{requestAs(uuid.Nil, "10.0.0.3:1"), http.StatusOK},
	}

	for i, tc := range cases {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, tc.req)
		assert.Equal(t, tc.want, rr.Code, "case %d", i)
	}
	assert.Equal(t, 4, limiter.Tracked())
}

func TestRateLimiterRefillsOverWindow(t *testing.T) {
	t.Parallel()

	limiter, clock := newTestLimiter(2, 1)
	handler := limiter.Handler(okHandler())
	user := uuid.New()

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestAs(user, "10.0.0.1:1"))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestAs(user, "10.0.0.1:1"))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	// One token every 30 seconds.
	clock.Advance(30 * time.Second)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, requestAs(user, "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterSweep(t *testing.T) {
	t.Parallel()

	limiter, clock := newTestLimiter(5, 1)
	handler := limiter.Handler(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestAs(uuid.New(), "10.0.0.1:1"))
	clock.Advance(30 * time.Second)
	handler.ServeHTTP(httptest.NewRecorder(), requestAs(uuid.New(), "10.0.0.1:1"))

	assert.Equal(t, 0, limiter.Sweep())
	clock.Advance(31 * time.Second)
	assert.Equal(t, 1, limiter.Sweep())
	assert.Equal(t, 1, limiter.Tracked())
}

func TestNewRateLimiterRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewRateLimiter(config.RateLimitConfig{Requests: 0, WindowMinutes: 1}, nil)
	})
}
