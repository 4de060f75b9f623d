package account

import "errors"

// Expected outcomes are typed errors; handlers map them onto the external
// error surface. Persistence and crypto failures collapse to ErrInternal and
// are logged with context where they occur.
var (
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
	ErrValidation         = errors.New("invalid account data")
	ErrEmailExists        = errors.New("email already registered")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountLocked      = errors.New("account locked")
	ErrTokenInvalid       = errors.New("invalid or expired verification token")
	ErrNotFound           = errors.New("account not found")
	ErrNicknameExhausted  = errors.New("could not allocate a unique nickname")
	ErrInternal           = errors.New("internal account service failure")
)
