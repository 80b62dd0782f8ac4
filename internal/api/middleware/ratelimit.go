package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"

	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/config"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitMessage is returned with 429 responses.
const RateLimitMessage = "Too many requests. Please try again later."

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter is a per-caller token bucket. Callers are identified by the
// authenticated user id, or by client IP for anonymous requests. Each bucket
// holds Requests tokens and refills completely over Window.
type RateLimiter struct {
	requests int
	window   time.Duration
	every    rate.Limit
	now      func() time.Time
	visitors *xsync.MapOf[string, *visitor]
	logger   *slog.Logger
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimitClock replaces time.Now.
func WithRateLimitClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewRateLimiter builds a limiter allowing cfg.Requests per cfg.Window().
func NewRateLimiter(cfg config.RateLimitConfig, logger *slog.Logger, opts ...RateLimiterOption) *RateLimiter {
	if cfg.Requests <= 0 || cfg.Window() <= 0 {
		// ALLOW-PANIC: Constructor enforcing valid configuration
		panic("rate limit requires positive requests and window")
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &RateLimiter{
		requests: cfg.Requests,
		window:   cfg.Window(),
		every:    rate.Every(cfg.Window() / time.Duration(cfg.Requests)),
		now:      time.Now,
		visitors: xsync.NewMapOf[string, *visitor](),
		logger:   logger.With(slog.String("component", "rate_limiter")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handler enforces the limit. It must run after authentication so that
// authenticated callers are keyed by user id.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		now := l.now()

		v, _ := l.visitors.LoadOrCompute(key, func() *visitor {
			return &visitor{limiter: rate.NewLimiter(l.every, l.requests)}
		})
		v.lastSeen.Store(now.UnixNano())

		allowed := v.limiter.AllowN(now, 1)
		l.writeHeaders(w, v.limiter, now)

		if !allowed {
			wait := time.Duration(float64(time.Second) / float64(l.every))
			w.Header().Set(HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, RateLimitMessage, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) writeHeaders(w http.ResponseWriter, limiter *rate.Limiter, now time.Time) {
	tokens := limiter.TokensAt(now)
	remaining := int(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}

	// Seconds until the bucket is full again.
	missing := float64(l.requests) - tokens
	reset := int(math.Ceil(missing / float64(l.every)))
	if reset < 0 {
		reset = 0
	}

	h := w.Header()
	h.Set(HeaderRateLimitLimit, strconv.Itoa(l.requests))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
	h.Set(HeaderRateLimitReset, strconv.Itoa(reset))
}

// Sweep forgets callers idle for at least one window; their buckets would
// be full again anyway. It returns the number removed.
func (l *RateLimiter) Sweep() int {
	cutoff := l.now().Add(-l.window).UnixNano()
	removed := 0
	l.visitors.Range(func(key string, v *visitor) bool {
		if v.lastSeen.Load() <= cutoff {
			l.visitors.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		l.logger.Debug("swept idle rate limit buckets", slog.Int("removed", removed))
	}
	return removed
}

// Tracked returns the number of callers with a live bucket.
func (l *RateLimiter) Tracked() int {
	return l.visitors.Size()
}

func clientKey(r *http.Request) string {
	if userID, ok := shared.UserIDFromContext(r.Context()); ok {
		return "user:" + userID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
