package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecal/internal/services"
)

// failureLimiter blocks a key after limit failures inside a sliding window.
type failureLimiter struct {
	limit  int
	window time.Duration

	mu       sync.Mutex
	failures map[string][]time.Time
}

func newFailureLimiter(limit int, window time.Duration) *failureLimiter {
	return &failureLimiter{
		limit:    limit,
		window:   window,
		failures: map[string][]time.Time{},
	}
}

func (limiter *failureLimiter) blocked(key string, now time.Time) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	return len(limiter.recentLocked(key, now)) >= limiter.limit
}

func (limiter *failureLimiter) recordFailure(key string, now time.Time) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	limiter.failures[key] = append(limiter.recentLocked(key, now), now)
}

func (limiter *failureLimiter) reset(key string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	delete(limiter.failures, key)
}

// recentLocked drops failures older than the window and forgets keys with
// none left.
func (limiter *failureLimiter) recentLocked(key string, now time.Time) []time.Time {
	threshold := now.Add(-limiter.window)
	recent := limiter.failures[key][:0]
	for _, at := range limiter.failures[key] {
		if at.After(threshold) {
			recent = append(recent, at)
		}
	}
	if len(recent) == 0 {
		delete(limiter.failures, key)
		return nil
	}
	limiter.failures[key] = recent
	return recent
}

// loginLimiterKey scopes failures to the client address and the account
// being tried.
func loginLimiterKey(c *fiber.Ctx, email string) string {
	ip := strings.TrimSpace(c.IP())
	if ip == "" {
		ip = "unknown"
	}
	return ip + "|" + services.NormalizeAuthEmail(email)
}
