// Package notification is the outbound notification boundary. Delivery is
// best-effort: callers fire and forget, failures are logged and swallowed.
package notification

import (
	"context"
	"log"

	"accord/internal/models"
)

// Event identifies the kind of notification being sent.
type Event string

const (
	EventVerificationEmail  Event = "verification_email"
	EventProfessionalStatus Event = "professional_status_changed"
	EventAccountLocked      Event = "account_locked"
)

// Notifier delivers account notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, user *models.User, event Event) error
}

// Service is a log-backed Notifier. A real deployment swaps in an SMTP or
// queue-backed implementation behind the same interface.
type Service struct{}

func NewService() *Service { return &Service{} }

func (s *Service) Notify(ctx context.Context, user *models.User, event Event) error {
	switch event {
	case EventVerificationEmail:
		log.Printf("notify %s: verification email, token issued", user.Email)
	case EventProfessionalStatus:
		log.Printf("notify %s: professional status is now %t", user.Email, user.IsProfessional)
	default:
		log.Printf("notify %s: %s", user.Email, event)
	}
	return nil
}
