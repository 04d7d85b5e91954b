package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/userdeck/pkg/observability"
)

// RejectionMessage is the 429 body for a limiter counting over window,
// e.g. "... please try again after 15 minutes" for the default signup window.
func RejectionMessage(window time.Duration) string {
	return "Too many requests from this IP, please try again after " + humanWindow(window)
}

func humanWindow(window time.Duration) string {
	n, unit := int64(window/time.Second), "second"
	switch {
	case window >= time.Hour && window%time.Hour == 0:
		n, unit = int64(window/time.Hour), "hour"
	case window >= time.Minute && window%time.Minute == 0:
		n, unit = int64(window/time.Minute), "minute"
	case window < time.Second:
		n = 1
	}
	if n != 1 {
		unit += "s"
	}
	return strconv.FormatInt(n, 10) + " " + unit
}

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// Limit is the max requests allowed per key in one window
	Limit int
	// Window is the length of the counting window
	Window time.Duration
	// MaxKeys bounds how many client keys the in-memory limiter tracks
	MaxKeys int
}

// DefaultRateLimitConfig returns the signup limits: 100 requests per
// 15 minutes per client IP
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   100,
		Window:  15 * time.Minute,
		MaxKeys: 10000,
	}
}

// Decision is the outcome of one Take
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is the time until the current window ends
	ResetAfter time.Duration
}

// Limiter counts requests per key
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
}

type windowCounter struct {
	start    time.Time
	current  int
	previous int
}

// SlidingWindowLimiter approximates a sliding window from the counts of the
// current and previous fixed windows. State lives in an expirable LRU so
// idle keys are dropped after two windows and the key count stays bounded.
type SlidingWindowLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu       sync.Mutex
	counters *expirable.LRU[string, *windowCounter]
}

// NewRateLimiter creates a new in-memory sliding-window limiter
func NewRateLimiter(config RateLimitConfig) *SlidingWindowLimiter {
	defaults := DefaultRateLimitConfig()
	if config.Limit <= 0 {
		config.Limit = defaults.Limit
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.MaxKeys <= 0 {
		config.MaxKeys = defaults.MaxKeys
	}

	return &SlidingWindowLimiter{
		config:   config,
		now:      time.Now,
		counters: expirable.NewLRU[string, *windowCounter](config.MaxKeys, nil, 2*config.Window),
	}
}

// Take records one request for key if the estimated rate allows it
func (rl *SlidingWindowLimiter) Take(_ context.Context, key string) (Decision, error) {
	now := rl.now()
	window := rl.config.Window
	start := now.Truncate(window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.counters.Get(key)
	if !ok {
		c = &windowCounter{start: start}
	}
	if !c.start.Equal(start) {
		if start.Sub(c.start) == window {
			c.previous = c.current
		} else {
			c.previous = 0
		}
		c.current = 0
		c.start = start
	}

	elapsed := now.Sub(start)
	weight := float64(window-elapsed) / float64(window)
	estimate := float64(c.previous)*weight + float64(c.current)

	d := Decision{
		Limit:      rl.config.Limit,
		ResetAfter: window - elapsed,
	}
	if estimate+1 <= float64(rl.config.Limit) {
		c.current++
		estimate++
		d.Allowed = true
	}
	d.Remaining = rl.config.Limit - int(math.Ceil(estimate))
	if d.Remaining < 0 {
		d.Remaining = 0
	}

	// Re-adding refreshes the TTL
	rl.counters.Add(key, c)
	return d, nil
}

// Len returns the number of tracked keys
func (rl *SlidingWindowLimiter) Len() int {
	return rl.counters.Len()
}

// Reset clears the state for a key
func (rl *SlidingWindowLimiter) Reset(key string) {
	rl.counters.Remove(key)
}

// RateLimitOptions configures RateLimitMiddleware
type RateLimitOptions struct {
	// Name labels rejections in metrics
	Name string
	// Message is the 429 body message. Defaults to RejectionMessage for the
	// default signup window.
	Message string
	// TrustProxyHeaders keys on X-Forwarded-For / X-Real-IP instead of the
	// connection address. Only enable behind a proxy that sets them.
	TrustProxyHeaders bool
	// OnReject is called for every rejected request
	OnReject func(r *http.Request, key string)
	Metrics  *observability.Metrics
	Logger   *observability.Logger
}

// RateLimitMiddleware provides HTTP rate limiting keyed by client IP
type RateLimitMiddleware struct {
	limiter Limiter
	opts    RateLimitOptions
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter Limiter, opts RateLimitOptions) *RateLimitMiddleware {
	if opts.Name == "" {
		opts.Name = "default"
	}
	if opts.Message == "" {
		opts.Message = RejectionMessage(DefaultRateLimitConfig().Window)
	}
	return &RateLimitMiddleware{limiter: limiter, opts: opts}
}

// Handler wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + ClientIP(r, m.opts.TrustProxyHeaders)

		d, err := m.limiter.Take(r.Context(), key)
		if err != nil {
			// Limiters fail open
			m.logger(r).WithError(err).WithField("limiter", m.opts.Name).Warn("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		setRateLimitHeaders(w, d)
		if !d.Allowed {
			if m.opts.Metrics != nil {
				m.opts.Metrics.RateLimitRejectionsTotal.WithLabelValues(m.opts.Name).Inc()
			}
			if m.opts.OnReject != nil {
				m.opts.OnReject(r, key)
			}
			w.Header().Set("Retry-After", strconv.Itoa(ceilSeconds(d.ResetAfter)))
			writeMessage(w, http.StatusTooManyRequests, m.opts.Message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) logger(r *http.Request) *observability.Logger {
	if m.opts.Logger != nil {
		return m.opts.Logger
	}
	return observability.FromContext(r.Context())
}

func setRateLimitHeaders(w http.ResponseWriter, d Decision) {
	w.Header().Set("RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("RateLimit-Reset", strconv.Itoa(ceilSeconds(d.ResetAfter)))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// ClientIP returns the caller's address without the port. Forwarding
// headers are consulted only when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
