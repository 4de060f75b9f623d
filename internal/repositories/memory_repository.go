package repositories

import (
	"context"
	"sync"
	"time"

	"accord/internal/models"

	"github.com/google/uuid"
)

// memoryUserRepository is an in-memory UserRepository used by tests and local
// development. A single mutex stands in for row-level locking: every
// *WithLock mutation runs while holding it, giving the same atomicity
// guarantees the SQL implementation gets from SELECT ... FOR UPDATE.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users: make(map[uuid.UUID]*models.User),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Nickname == user.Nickname || u.Username == user.Username {
			return ErrDuplicateKey
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Nickname == nickname })
}

func (r *memoryUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findBy(func(u *models.User) bool { return u.Username == username })
}

func (r *memoryUserRepository) findBy(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepository) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	total := int64(len(all))

	if offset >= len(all) {
		return []*models.User{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memoryUserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *memoryUserRepository) UpdateWithLock(ctx context.Context, id uuid.UUID, fn func(u *models.User) (bool, error)) (*models.User, error) {
	return r.updateLocked(func(u *models.User) bool { return u.ID == id }, fn)
}

func (r *memoryUserRepository) UpdateByEmailWithLock(ctx context.Context, email string, fn func(u *models.User) (bool, error)) (*models.User, error) {
	return r.updateLocked(func(u *models.User) bool { return u.Email == email }, fn)
}

func (r *memoryUserRepository) updateLocked(match func(*models.User) bool, fn func(u *models.User) (bool, error)) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, stored := range r.users {
		if !match(stored) {
			continue
		}

		working := *stored
		dirty, err := fn(&working)
		if err != nil {
			return nil, err
		}
		if dirty {
			working.UpdatedAt = time.Now().UTC()
			cp := working
			r.users[id] = &cp
		}
		out := working
		return &out, nil
	}
	return nil, ErrUserNotFound
}
