// Package token manages verification-token issuance and expiry.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// DefaultTTL is how long a verification token stays valid.
const DefaultTTL = 48 * time.Hour

const tokenBytes = 16 // 128 bits of entropy

// Lifecycle issues opaque verification tokens and answers expiry queries.
// The zero value is not usable; construct with NewLifecycle.
type Lifecycle struct {
	ttl time.Duration
}

func NewLifecycle(ttl time.Duration) *Lifecycle {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lifecycle{ttl: ttl}
}

// Issue produces a cryptographically random, URL-safe token and its issue
// time. Collisions are not a caller concern at 128 bits.
func (l *Lifecycle) Issue() (string, time.Time, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	return base64.RawURLEncoding.EncodeToString(b), time.Now().UTC(), nil
}

// IsExpired reports whether a token issued at issuedAt has outlived the TTL
// as of now. Pure time comparison, no side effects.
func (l *Lifecycle) IsExpired(issuedAt, now time.Time) bool {
	return now.Sub(issuedAt) > l.ttl
}

// TTL returns the configured token lifetime.
func (l *Lifecycle) TTL() time.Duration {
	return l.ttl
}
