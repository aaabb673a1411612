package ports

import (
	"context"

	"github.com/livepoll/livepoll/internal/core/domain"
)

type PollRepository interface {
	Save(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id int64) (*domain.Poll, error)
	GetAll(ctx context.Context) ([]*domain.Poll, error)
	UpdateVotes(ctx context.Context, id int64, votes domain.VoteMap) error
	Delete(ctx context.Context, id int64) error
}

// PollCascadeDeleter is implemented by repositories that can remove a poll
// and all of its vote records in one atomic server-side transaction. When a
// repository does not provide it, the service falls back to child-first
// sequential deletes and surfaces partial failure distinctly.
type PollCascadeDeleter interface {
	DeleteWithVotes(ctx context.Context, id int64) (votesDeleted int64, err error)
}

type CreatePollInput struct {
	Question       string
	Options        []string
	MultipleChoice bool
	CorrectOption  *int
	CorrectOptions []int
}

type PollService interface {
	Create(ctx context.Context, session domain.Session, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id int64) (*domain.Poll, error)
	ListPolls(ctx context.Context) ([]*domain.Poll, error)
	Delete(ctx context.Context, session domain.Session, id int64) error
}
