// Package account orchestrates registration, authentication, verification and
// profile management against the persisted user store. It composes the
// password policy, token lifecycle and lockout policy; rate limiting sits in
// front of it at the transport layer.
package account

import (
	"context"
	"errors"
	"log"
	"time"

	"accord/internal/models"
	"accord/internal/repositories"
	"accord/internal/services/lockout"
	"accord/internal/services/notification"
	"accord/internal/services/password"
	"accord/internal/services/token"
	"accord/internal/utils"

	"github.com/google/uuid"
)

// maxNicknameAttempts bounds the uniqueness retry loop so pathological
// collision sequences cannot loop forever.
const maxNicknameAttempts = 10

const defaultNotifyTimeout = 5 * time.Second

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
}

// ProfileUpdate is a partial-field profile change. Nil fields are untouched;
// at least one field must be set.
type ProfileUpdate struct {
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Bio                *string `json:"bio"`
	ProfilePictureURL  *string `json:"profile_picture_url"`
	GithubProfileURL   *string `json:"github_profile_url"`
	LinkedinProfileURL *string `json:"linkedin_profile_url"`
}

func (p *ProfileUpdate) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Bio == nil &&
		p.ProfilePictureURL == nil && p.GithubProfileURL == nil && p.LinkedinProfileURL == nil
}

// AdminUpdate extends ProfileUpdate with administrative fields.
type AdminUpdate struct {
	ProfileUpdate
	Role     *models.Role `json:"role"`
	Password *string      `json:"password"`
}

func (a *AdminUpdate) empty() bool {
	return a.ProfileUpdate.empty() && a.Role == nil && a.Password == nil
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, pass string) (*models.User, error)
	VerifyEmail(ctx context.Context, id uuid.UUID, tok string) error
	RequestVerificationEmail(ctx context.Context, email string)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.User, error)
	UpdateProfessionalStatus(ctx context.Context, id uuid.UUID, isProfessional bool) (*models.User, error)
	ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error
	Unlock(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, update AdminUpdate) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repo          repositories.UserRepository
	lockout       *lockout.Policy
	tokens        *token.Lifecycle
	notifier      notification.Notifier
	notifyTimeout time.Duration
}

func NewService(repo repositories.UserRepository, lockoutPolicy *lockout.Policy, tokens *token.Lifecycle, notifier notification.Notifier) Service {
	return &service{
		repo:          repo,
		lockout:       lockoutPolicy,
		tokens:        tokens,
		notifier:      notifier,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// Register creates a new account. The first account ever created becomes a
// pre-verified admin; everyone else starts anonymous with a pending
// verification token. Notification failures never fail the registration.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Email == "" || input.Username == "" {
		return nil, ErrValidation
	}
	if !password.ValidateStrength(input.Password) {
		return nil, ErrWeakPassword
	}

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		log.Printf("registration email lookup failed: %v", err)
		return nil, ErrInternal
	}

	if _, err := s.repo.GetByUsername(ctx, input.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		log.Printf("registration username lookup failed: %v", err)
		return nil, ErrInternal
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		log.Printf("registration hashing failed: %v", err)
		return nil, ErrInternal
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		log.Printf("registration user count failed: %v", err)
		return nil, ErrInternal
	}

	user := &models.User{
		Email:     input.Email,
		Username:  input.Username,
		Password:  hashed,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
	}

	if count == 0 {
		// Bootstrap rule: the first registrant is the admin.
		user.Role = models.RoleAdmin
		user.EmailVerified = true
	} else {
		user.Role = models.RoleAnonymous
		tok, issuedAt, err := s.tokens.Issue()
		if err != nil {
			log.Printf("verification token issue failed: %v", err)
			return nil, ErrInternal
		}
		user.SetVerificationToken(tok, issuedAt)
	}

	if err := s.createWithUniqueNickname(ctx, user); err != nil {
		return nil, err
	}

	if !user.EmailVerified {
		s.notifyAsync(user, notification.EventVerificationEmail)
	}

	log.Printf("user %s registered with role %s", user.ID, user.Role)
	return user, nil
}

// createWithUniqueNickname assigns generated nicknames until the insert
// succeeds, bounded by maxNicknameAttempts.
func (s *service) createWithUniqueNickname(ctx context.Context, user *models.User) error {
	for attempt := 0; attempt < maxNicknameAttempts; attempt++ {
		user.Nickname = utils.GenerateNickname()
		if _, err := s.repo.GetByNickname(ctx, user.Nickname); err == nil {
			continue
		} else if !errors.Is(err, repositories.ErrUserNotFound) {
			log.Printf("nickname lookup failed: %v", err)
			return ErrInternal
		}

		err := s.repo.Create(ctx, user)
		if err == nil {
			return nil
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// Lost a race on the nickname index; try a fresh one.
			continue
		}
		log.Printf("user insert failed: %v", err)
		return ErrInternal
	}
	return ErrNicknameExhausted
}

// Login authenticates by email and password. All rejection reasons collapse
// to ErrInvalidCredentials externally except the locked case, which callers
// surface so the user knows to wait.
func (s *service) Login(ctx context.Context, email, pass string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			log.Printf("login rejected: unknown email %s", email)
			return nil, ErrInvalidCredentials
		}
		log.Printf("login lookup failed: %v", err)
		return nil, ErrInternal
	}

	locked, err := s.lockout.IsLocked(ctx, email)
	if err != nil {
		log.Printf("lock status check failed for %s: %v", email, err)
		return nil, ErrInternal
	}
	if locked {
		log.Printf("login rejected: account %s is locked", email)
		return nil, ErrAccountLocked
	}

	if !user.EmailVerified {
		log.Printf("login rejected: email %s not verified", email)
		return nil, ErrEmailNotVerified
	}

	ok, err := password.Verify(pass, user.Password)
	if err != nil {
		log.Printf("password verification failed for %s: %v", email, err)
		return nil, ErrInternal
	}
	if !ok {
		if _, err := s.lockout.RecordFailure(ctx, email); err != nil {
			log.Printf("failed-attempt record failed for %s: %v", email, err)
		}
		return nil, ErrInvalidCredentials
	}

	updated, err := s.lockout.RecordSuccess(ctx, email)
	if err != nil {
		log.Printf("login bookkeeping failed for %s: %v", email, err)
		return nil, ErrInternal
	}
	return updated, nil
}

// VerifyEmail accepts a presented token iff it matches the stored token and
// has not expired, then marks the email verified and promotes the role from
// ANONYMOUS to AUTHENTICATED. Mismatch and expiry are indistinguishable to
// callers; the distinction is only logged.
func (s *service) VerifyEmail(ctx context.Context, id uuid.UUID, tok string) error {
	_, err := s.repo.UpdateWithLock(ctx, id, func(u *models.User) (bool, error) {
		if u.EmailVerified || u.VerificationToken == nil || u.VerificationTokenCreatedAt == nil {
			return false, ErrTokenInvalid
		}
		if *u.VerificationToken != tok {
			log.Printf("verification rejected for %s: token mismatch", id)
			return false, ErrTokenInvalid
		}
		if s.tokens.IsExpired(*u.VerificationTokenCreatedAt, time.Now().UTC()) {
			log.Printf("verification rejected for %s: token expired", id)
			return false, ErrTokenInvalid
		}

		u.MarkEmailVerified()
		if u.Role == models.RoleAnonymous {
			u.Role = models.RoleAuthenticated
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrTokenInvalid
		}
		if errors.Is(err, ErrTokenInvalid) {
			return ErrTokenInvalid
		}
		log.Printf("email verification failed for %s: %v", id, err)
		return ErrInternal
	}
	log.Printf("email verified for user %s", id)
	return nil
}

// RequestVerificationEmail re-issues a verification token. It deliberately
// reports nothing: absent accounts, already-verified accounts and successful
// re-issues are indistinguishable to the caller, preventing enumeration.
func (s *service) RequestVerificationEmail(ctx context.Context, email string) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			log.Printf("verification re-issue lookup failed: %v", err)
		}
		return
	}
	if user.EmailVerified {
		return
	}

	tok, issuedAt, err := s.tokens.Issue()
	if err != nil {
		log.Printf("verification token re-issue failed: %v", err)
		return
	}

	updated, err := s.repo.UpdateWithLock(ctx, user.ID, func(u *models.User) (bool, error) {
		if u.EmailVerified {
			return false, nil
		}
		u.SetVerificationToken(tok, issuedAt)
		return true, nil
	})
	if err != nil {
		log.Printf("verification token store failed for %s: %v", email, err)
		return
	}

	s.notifyAsync(updated, notification.EventVerificationEmail)
}

// UpdateProfile applies a partial profile update. At least one field must be
// present.
func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.User, error) {
	if update.empty() {
		return nil, ErrValidation
	}

	user, err := s.repo.UpdateWithLock(ctx, id, func(u *models.User) (bool, error) {
		applyProfile(u, update)
		return true, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("profile update failed for %s: %v", id, err)
		return nil, ErrInternal
	}
	return user, nil
}

// UpdateProfessionalStatus flips the professional flag, stamps the change
// time and notifies the user best-effort.
func (s *service) UpdateProfessionalStatus(ctx context.Context, id uuid.UUID, isProfessional bool) (*models.User, error) {
	user, err := s.repo.UpdateWithLock(ctx, id, func(u *models.User) (bool, error) {
		now := time.Now().UTC()
		u.IsProfessional = isProfessional
		u.ProfessionalStatusUpdatedAt = &now
		return true, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("professional status update failed for %s: %v", id, err)
		return nil, ErrInternal
	}

	s.notifyAsync(user, notification.EventProfessionalStatus)
	return user, nil
}

// ResetPassword replaces the credential and unconditionally clears lockout
// state alongside it.
func (s *service) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if !password.ValidateStrength(newPassword) {
		return ErrWeakPassword
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		log.Printf("password reset hashing failed: %v", err)
		return ErrInternal
	}

	_, err = s.repo.UpdateWithLock(ctx, id, func(u *models.User) (bool, error) {
		u.Password = hashed
		u.UnlockAccount()
		return true, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrNotFound
		}
		log.Printf("password reset failed for %s: %v", id, err)
		return ErrInternal
	}
	return nil
}

// Unlock performs the manual administrative unlock.
func (s *service) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	unlocked, err := s.lockout.Unlock(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, ErrNotFound
		}
		log.Printf("manual unlock failed for %s: %v", id, err)
		return false, ErrInternal
	}
	return unlocked, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("user fetch failed for %s: %v", id, err)
		return nil, ErrInternal
	}
	return user, nil
}

// Update applies an administrative partial update, including optional role
// and password changes.
func (s *service) Update(ctx context.Context, id uuid.UUID, update AdminUpdate) (*models.User, error) {
	if update.empty() {
		return nil, ErrValidation
	}
	if update.Role != nil && !update.Role.Valid() {
		return nil, ErrValidation
	}

	var hashed string
	if update.Password != nil {
		if !password.ValidateStrength(*update.Password) {
			return nil, ErrWeakPassword
		}
		h, err := password.Hash(*update.Password)
		if err != nil {
			log.Printf("admin update hashing failed: %v", err)
			return nil, ErrInternal
		}
		hashed = h
	}

	user, err := s.repo.UpdateWithLock(ctx, id, func(u *models.User) (bool, error) {
		applyProfile(u, update.ProfileUpdate)
		if update.Role != nil {
			u.Role = *update.Role
		}
		if update.Password != nil {
			u.Password = hashed
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("admin update failed for %s: %v", id, err)
		return nil, ErrInternal
	}
	return user, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrNotFound
		}
		log.Printf("user delete failed for %s: %v", id, err)
		return ErrInternal
	}
	return nil
}

func (s *service) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	users, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		log.Printf("user list failed: %v", err)
		return nil, 0, ErrInternal
	}
	return users, total, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		log.Printf("user count failed: %v", err)
		return 0, ErrInternal
	}
	return total, nil
}

func applyProfile(u *models.User, update ProfileUpdate) {
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.ProfilePictureURL != nil {
		u.ProfilePictureURL = *update.ProfilePictureURL
	}
	if update.GithubProfileURL != nil {
		u.GithubProfileURL = *update.GithubProfileURL
	}
	if update.LinkedinProfileURL != nil {
		u.LinkedinProfileURL = *update.LinkedinProfileURL
	}
}

// notifyAsync dispatches a notification without blocking the caller. The
// primary mutation is already committed; delivery failure is only logged.
func (s *service) notifyAsync(user *models.User, event notification.Event) {
	u := *user
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, &u, event); err != nil {
			log.Printf("notification %s for %s failed: %v", event, u.Email, err)
		}
	}()
}
