package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// RateLimitConfig defines the limit for a specific route or group.
type RateLimitConfig struct {
	Max    int                      // Maximum requests allowed in the window
	Window time.Duration            // Time window for the limit
	KeyFn  func(c fiber.Ctx) string // Returns the key to rate limit on (IP, userID, etc.)
}

// window is the request count of one key inside its current window.
type window struct {
	count int
	reset time.Time
}

// RateLimiter is an in-memory fixed-window rate limiter. Expired windows
// are dropped by a background sweep.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     RateLimitConfig
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFn == nil {
		cfg.KeyFn = KeyByIP
	}
	rl := &RateLimiter{
		windows: make(map[string]*window),
		cfg:     cfg,
		now:     time.Now,
	}
	go rl.sweep(5 * time.Minute)
	return rl
}

// take counts one request against key and reports the requests left in
// the window (negative once the limit is exceeded) and when it resets.
func (rl *RateLimiter) take(key string) (int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(rl.cfg.Window)}
		rl.windows[key] = w
	}
	w.count++
	return rl.cfg.Max - w.count, w.reset
}

// Allow reports whether one more request for key fits in the window.
func (rl *RateLimiter) Allow(key string) bool {
	left, _ := rl.take(key)
	return left >= 0
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		left, reset := rl.take(rl.cfg.KeyFn(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(left, 0)))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if left >= 0 {
			return c.Next()
		}

		retryAfter := int(reset.Sub(rl.now()).Seconds()) + 1
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{
				"code":       "RATE_LIMITED",
				"message":    fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
				"retryAfter": retryAfter,
			},
		})
	}
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, w := range rl.windows {
			if !now.Before(w.reset) {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}

// KeyByIP returns the client IP as the rate limit key.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyByUserID keys on the user stored by RequireUser, then the raw
// X-User-ID header, then the client IP.
func KeyByUserID(c fiber.Ctx) string {
	if uid := UserID(c); uid != "" {
		return "user:" + uid
	}
	if uid := c.Get(UserIDHeader); uid != "" {
		return "user:" + uid
	}
	return KeyByIP(c)
}

// Limit names one of the API's rate limits.
type Limit string

const (
	LimitMetadata       Limit = "metadata"        // outbound page fetches
	LimitClassify       Limit = "classify"
	LimitBookmarkWrite  Limit = "bookmark-write"
	LimitAutoCategorize Limit = "auto-categorize" // bulk rewrite of a collection
	LimitLinkHealth     Limit = "link-health"     // up to 200 outbound checks per call
	LimitSync           Limit = "sync"
	LimitStats          Limit = "stats"
	LimitImport         Limit = "import"
	LimitExport         Limit = "export"
)

// Limits holds the configuration of every named limit. Metadata and
// classification are public and keyed by IP; the rest are per user.
var Limits = map[Limit]RateLimitConfig{
	LimitMetadata:       {Max: 30, Window: time.Minute, KeyFn: KeyByIP},
	LimitClassify:       {Max: 120, Window: time.Minute, KeyFn: KeyByIP},
	LimitBookmarkWrite:  {Max: 60, Window: time.Minute, KeyFn: KeyByUserID},
	LimitAutoCategorize: {Max: 2, Window: time.Minute, KeyFn: KeyByUserID},
	LimitLinkHealth:     {Max: 5, Window: time.Minute, KeyFn: KeyByUserID},
	LimitSync:           {Max: 30, Window: time.Minute, KeyFn: KeyByUserID},
	LimitStats:          {Max: 10, Window: time.Minute, KeyFn: KeyByUserID},
	LimitImport:         {Max: 5, Window: time.Hour, KeyFn: KeyByUserID},
	LimitExport:         {Max: 10, Window: time.Hour, KeyFn: KeyByUserID},
}

// NewLimiter returns a fresh limiter for the named limit. It panics on an
// unknown name.
func NewLimiter(name Limit) *RateLimiter {
	cfg, ok := Limits[name]
	if !ok {
		panic("middleware: unknown rate limit " + string(name))
	}
	return NewRateLimiter(cfg)
}
