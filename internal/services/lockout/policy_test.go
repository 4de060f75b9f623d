package lockout

import (
	"context"
	"sync"
	"testing"
	"time"

	"accord/internal/models"
	"accord/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo repositories.UserRepository, email string) *models.User {
	t.Helper()
	u := &models.User{
		Email:    email,
		Username: "u-" + email,
		Nickname: "n-" + email,
		Password: "hash",
		Role:     models.RoleAuthenticated,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestRecordFailureLocksAtThreshold(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	p := NewPolicy(repo, 5, time.Hour)
	user := seedUser(t, repo, "alice@example.com")
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		locked, err := p.RecordFailure(ctx, user.Email)
		require.NoError(t, err)
		assert.False(t, locked, "attempt %d should not lock", i)
	}

	locked, err := p.RecordFailure(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, locked, "fifth failure must lock")

	stored, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, stored.IsLocked)
	assert.NotNil(t, stored.LockedAt)
	assert.Equal(t, 5, stored.FailedLoginAttempts)
}

func TestIsLockedWhileWithinLockWindow(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	p := NewPolicy(repo, 5, time.Hour)
	user := seedUser(t, repo, "bob@example.com")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := p.RecordFailure(ctx, user.Email)
		require.NoError(t, err)
	}

	locked, err := p.IsLocked(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestIsLockedAutoUnlocksAfterTimeout(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	p := NewPolicy(repo, 5, time.Hour)
	user := seedUser(t, repo, "carol@example.com")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := p.RecordFailure(ctx, user.Email)
		require.NoError(t, err)
	}

	// Two hours later the lazy check both answers and clears.
	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	locked, err := p.IsLocked(ctx, user.Email)
	require.NoError(t, err)
	assert.False(t, locked)

	stored, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.False(t, stored.IsLocked)
	assert.Nil(t, stored.LockedAt)
	assert.Equal(t, 0, stored.FailedLoginAttempts, "auto-unlock resets the counter")
}

func TestRecordSuccessResetsCounter(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	p := NewPolicy(repo, 5, time.Hour)
	user := seedUser(t, repo, "dave@example.com")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := p.RecordFailure(ctx, user.Email)
		require.NoError(t, err)
	}

	updated, err := p.RecordSuccess(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.FailedLoginAttempts)
	assert.NotNil(t, updated.LastLoginAt)
}

func TestManualUnlock(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	p := NewPolicy(repo, 5, time.Hour)
	user := seedUser(t, repo, "erin@example.com")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := p.RecordFailure(ctx, user.Email)
		require.NoError(t, err)
	}

	unlocked, err := p.Unlock(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)

	// Unlocking an unlocked account reports false.
	unlocked, err = p.Unlock(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, unlocked)

	stored, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.False(t, stored.IsLocked)
	assert.Equal(t, 0, stored.FailedLoginAttempts)
}

func TestConcurrentFailuresNeverUndercount(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	p := NewPolicy(repo, 5, time.Hour)
	user := seedUser(t, repo, "frank@example.com")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.RecordFailure(ctx, user.Email)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.FailedLoginAttempts)
	assert.True(t, stored.IsLocked)
}

func TestUnknownAccountPropagatesNotFound(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	p := NewPolicy(repo, 5, time.Hour)

	_, err := p.IsLocked(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}
