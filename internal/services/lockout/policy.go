// Package lockout implements the account lockout state machine: failed
// attempts are counted against a threshold, locked accounts auto-unlock
// lazily after a timeout. There is no background sweeper; every transition is
// evaluated at query time inside a row-level transaction.
package lockout

import (
	"context"
	"log"
	"time"

	"accord/internal/models"
	"accord/internal/repositories"

	"github.com/google/uuid"
)

const (
	// DefaultThreshold is the failed-attempt count that locks an account.
	DefaultThreshold = 5
	// DefaultLockDuration is how long a lock holds before lazy auto-unlock.
	DefaultLockDuration = time.Hour
)

// Policy evaluates and applies lockout transitions for accounts.
type Policy struct {
	repo      repositories.UserRepository
	threshold int
	lockFor   time.Duration
	now       func() time.Time
}

func NewPolicy(repo repositories.UserRepository, threshold int, lockFor time.Duration) *Policy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if lockFor <= 0 {
		lockFor = DefaultLockDuration
	}
	return &Policy{
		repo:      repo,
		threshold: threshold,
		lockFor:   lockFor,
		now:       time.Now,
	}
}

// IsLocked reports whether the account is currently locked, applying the lazy
// auto-unlock transition first. The check-and-clear runs under a row lock so
// concurrent callers cannot observe or write stale lock state.
func (p *Policy) IsLocked(ctx context.Context, email string) (bool, error) {
	locked := false
	_, err := p.repo.UpdateByEmailWithLock(ctx, email, func(u *models.User) (bool, error) {
		if !u.IsLocked {
			return false, nil
		}
		if u.LockedAt != nil && p.now().Sub(*u.LockedAt) > p.lockFor {
			u.UnlockAccount()
			log.Printf("account %s automatically unlocked after timeout", email)
			return true, nil
		}
		locked = true
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return locked, nil
}

// RecordFailure increments the failed-attempt counter and locks the account
// when the threshold is reached. Returns whether the account is now locked.
// The increment-compare-lock sequence is a single transactional update.
func (p *Policy) RecordFailure(ctx context.Context, email string) (bool, error) {
	locked := false
	_, err := p.repo.UpdateByEmailWithLock(ctx, email, func(u *models.User) (bool, error) {
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= p.threshold && !u.IsLocked {
			u.LockAccount(p.now())
			log.Printf("account %s locked after %d failed attempts", email, u.FailedLoginAttempts)
		}
		locked = u.IsLocked
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return locked, nil
}

// RecordSuccess resets the failure counter and stamps last_login_at.
func (p *Policy) RecordSuccess(ctx context.Context, email string) (*models.User, error) {
	return p.repo.UpdateByEmailWithLock(ctx, email, func(u *models.User) (bool, error) {
		now := p.now()
		u.FailedLoginAttempts = 0
		u.LastLoginAt = &now
		return true, nil
	})
}

// Unlock performs the manual administrative reset, regardless of elapsed
// time. Returns false when the account was not locked.
func (p *Policy) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	unlocked := false
	_, err := p.repo.UpdateWithLock(ctx, id, func(u *models.User) (bool, error) {
		if !u.IsLocked {
			return false, nil
		}
		u.UnlockAccount()
		unlocked = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return unlocked, nil
}
