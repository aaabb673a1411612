package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the authenticated caller, resolved from the identity provider's
// access token and passed explicitly into every service call.
type Session struct {
	UserID uuid.UUID
	Email  string
}

// Voter returns the session's identity in attribution-list form.
func (s Session) Voter() Voter {
	return Voter{ID: s.UserID, Email: s.Email}
}
