package repositories

import (
	"context"
	"errors"

	"accord/internal/models"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateKey      = errors.New("unique constraint violated")
	ErrDatabaseOperation = errors.New("database operation failed")
)

// UserRepository defines the interface for user-related database operations.
// The *WithLock variants run the mutation inside a row-level transaction so
// that concurrent security-state updates (failed-attempt counting, lazy
// auto-unlock) never act on stale reads.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByNickname retrieves a user by nickname.
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Update persists the full user record.
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves users with pagination plus the total count.
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int64, error)

	// UpdateWithLock loads the user by id under a SELECT ... FOR UPDATE lock,
	// applies fn, and persists when fn reports dirty. The returned user
	// reflects the post-transaction state.
	UpdateWithLock(ctx context.Context, id uuid.UUID, fn func(u *models.User) (dirty bool, err error)) (*models.User, error)

	// UpdateByEmailWithLock is UpdateWithLock keyed by email.
	UpdateByEmailWithLock(ctx context.Context, email string, fn func(u *models.User) (dirty bool, err error)) (*models.User, error)
}
