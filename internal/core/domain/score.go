package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Score is a user's leaderboard row, incremented once per poll where the
// submission exactly matched the answer key. Never deleted.
type Score struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
}

// UsernameFromEmail derives the display name stored on a score row: the
// local part of the email, or "Anonymous" when there is none.
func UsernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "Anonymous"
	}
	return local
}
