package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the central account entity. Lockout and verification fields back the
// account security state machine; nullable timestamps are pointers so the
// invariants (locked implies locked_at set, token implies token_created_at set)
// are visible in the schema.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nickname string    `gorm:"size:50;uniqueIndex;not null" json:"nickname"`
	Username string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email    string    `gorm:"size:100;index;not null" json:"email"`
	Password string    `gorm:"size:255;not null" json:"-"`

	// Profile
	FirstName          string `gorm:"size:50" json:"first_name,omitempty"`
	LastName           string `gorm:"size:50" json:"last_name,omitempty"`
	Bio                string `gorm:"size:255" json:"bio,omitempty"`
	ProfilePictureURL  string `gorm:"size:255" json:"profile_picture_url,omitempty"`
	GithubProfileURL   string `gorm:"size:255" json:"github_profile_url,omitempty"`
	LinkedinProfileURL string `gorm:"size:255" json:"linkedin_profile_url,omitempty"`

	// Role and professional status
	Role                        Role       `gorm:"size:20;not null;default:'ANONYMOUS'" json:"role"`
	IsProfessional              bool       `gorm:"default:false" json:"is_professional"`
	ProfessionalStatusUpdatedAt *time.Time `json:"professional_status_updated_at,omitempty"`

	// Verification
	EmailVerified          bool       `gorm:"default:false" json:"email_verified"`
	VerificationToken      *string    `json:"-"`
	VerificationTokenCreatedAt *time.Time `json:"-"`

	// Lockout
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	IsLocked            bool       `gorm:"default:false" json:"-"`
	LockedAt            *time.Time `json:"-"`

	// Audit
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key if one was not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// LockAccount marks the account locked as of now.
func (u *User) LockAccount(now time.Time) {
	u.IsLocked = true
	u.LockedAt = &now
}

// UnlockAccount clears all lockout state.
func (u *User) UnlockAccount() {
	u.IsLocked = false
	u.FailedLoginAttempts = 0
	u.LockedAt = nil
}

// MarkEmailVerified clears the pending token and flags the email verified.
func (u *User) MarkEmailVerified() {
	u.EmailVerified = true
	u.VerificationToken = nil
	u.VerificationTokenCreatedAt = nil
}

// SetVerificationToken stores a fresh token, invalidating any prior one.
func (u *User) SetVerificationToken(token string, issuedAt time.Time) {
	u.VerificationToken = &token
	u.VerificationTokenCreatedAt = &issuedAt
}
