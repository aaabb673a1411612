package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoteRecord is the durable proof that a user has voted on a poll. At most
// one record exists per (user, poll) pair; the storage layer enforces the
// uniqueness, not application code.
type VoteRecord struct {
	UserID          uuid.UUID `json:"user_id"`
	QuestionID      int64     `json:"question_id"`
	SelectedOptions []int     `json:"selected_options"`
	CreatedAt       time.Time `json:"created_at"`
}
