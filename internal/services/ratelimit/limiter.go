// Package ratelimit provides a per-client sliding-window request throttle
// with exponential backoff. State is process-local and intentionally lost on
// restart; this is best-effort defense, not a durability guarantee.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Config controls one endpoint class. Authentication endpoints and
// registration use independently configured limiters.
type Config struct {
	// Threshold is the number of requests tolerated per window before
	// backoff kicks in.
	Threshold int
	// Window is the trailing interval over which requests are counted.
	Window time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
}

// AuthConfig is the default policy for login/verify endpoints.
func AuthConfig() Config {
	return Config{
		Threshold: 5,
		Window:    time.Minute,
		MaxDelay:  30 * time.Second,
	}
}

// RegistrationConfig is the stricter policy for account creation, tuned to
// resist account farming.
func RegistrationConfig() Config {
	return Config{
		Threshold: 3,
		Window:    time.Hour,
		MaxDelay:  30 * time.Second,
	}
}

// Limiter tracks recent request timestamps per client key. It never blocks;
// Check only reports the delay the caller should apply.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		cfg:     cfg,
		windows: make(map[string][]time.Time),
	}
}

// Check records a request for key at time now and returns the delay the
// caller must apply before processing. Requests under the threshold get zero
// delay; beyond it the delay doubles per extra request up to MaxDelay.
func (l *Limiter) Check(key string, now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.windows[key][:0]
	for _, t := range l.windows[key] {
		if now.Sub(t) < l.cfg.Window {
			recent = append(recent, t)
		}
	}

	count := len(recent)
	l.windows[key] = append(recent, now)

	if count < l.cfg.Threshold {
		return 0
	}

	exp := count - l.cfg.Threshold
	if exp > 30 { // 2^30s is far past any sane cap
		return l.cfg.MaxDelay
	}
	delay := time.Duration(math.Pow(2, float64(exp)) * float64(time.Second))
	if delay > l.cfg.MaxDelay {
		delay = l.cfg.MaxDelay
	}
	return delay
}

// Reset drops all tracked state for a key. Used by tests and by manual
// administrative resets.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}
