package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/livepoll/livepoll/internal/core/domain"
)

// VoteRecordRepository is the vote record store. The (user, poll) uniqueness
// constraint lives here, not in application code: it is the authoritative
// duplicate-vote guard, and Commit must fail with domain.ErrDuplicateVote
// when it trips.
type VoteRecordRepository interface {
	Exists(ctx context.Context, userID uuid.UUID, pollID int64) (bool, error)
	Find(ctx context.Context, userID uuid.UUID, pollID int64) (*domain.VoteRecord, error)
	// Commit durably writes the vote record and applies the voter's tally
	// increments to the poll's votes map as one transaction. Neither write
	// is ever applied without the other. Returns the updated map.
	Commit(ctx context.Context, record *domain.VoteRecord, voter domain.Voter) (domain.VoteMap, error)
	ListForPoll(ctx context.Context, pollID int64) ([]*domain.VoteRecord, error)
	DeleteAllForPoll(ctx context.Context, pollID int64) (int64, error)
}

type VoteInput struct {
	PollID          int64
	SelectedOptions []int
}

type VoteService interface {
	// Vote accepts a voter's selection for one poll and either commits it
	// durably or rejects it cleanly. Returns the updated tally on success.
	Vote(ctx context.Context, session domain.Session, input VoteInput) (domain.VoteMap, error)
	// MyVote returns the caller's previous submission for the poll, or
	// domain.ErrNotVoted.
	MyVote(ctx context.Context, session domain.Session, pollID int64) (*domain.VoteRecord, error)
}
