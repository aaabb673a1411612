package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

type voteService struct {
	pollRepo  ports.PollRepository
	voteRepo  ports.VoteRecordRepository
	scoreRepo ports.ScoreRepository
	logger    *slog.Logger
}

func NewVoteService(pollRepo ports.PollRepository, voteRepo ports.VoteRecordRepository, scoreRepo ports.ScoreRepository, logger *slog.Logger) ports.VoteService {
	return &voteService{
		pollRepo:  pollRepo,
		voteRepo:  voteRepo,
		scoreRepo: scoreRepo,
		logger:    logger,
	}
}

// Vote validates the selection, rejects duplicates, commits the vote record
// and tally update as one transaction, then applies the scoring side effect.
// Scoring failures are logged and swallowed: voting success is never
// conditioned on scoring success.
func (s *voteService) Vote(ctx context.Context, session domain.Session, input ports.VoteInput) (domain.VoteMap, error) {
	poll, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}

	if err := validateSelection(poll, input.SelectedOptions); err != nil {
		return nil, err
	}

	// Fast-path duplicate check. Not linearizable against a concurrent
	// submission from the same user; the store's uniqueness constraint is
	// the final backstop.
	hasVoted, err := s.voteRepo.Exists(ctx, session.UserID, input.PollID)
	if err != nil {
		return nil, &domain.StorageError{Op: "check existing vote", Err: err}
	}
	if hasVoted {
		return nil, domain.ErrDuplicateVote
	}

	record := &domain.VoteRecord{
		UserID:          session.UserID,
		QuestionID:      input.PollID,
		SelectedOptions: input.SelectedOptions,
		CreatedAt:       time.Now(),
	}

	votes, err := s.voteRepo.Commit(ctx, record, session.Voter())
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateVote) || errors.Is(err, domain.ErrPollNotFound) {
			return nil, err
		}
		return nil, &domain.StorageError{Op: "commit vote", Err: err}
	}

	if poll.MatchesAnswerKey(input.SelectedOptions) {
		username := domain.UsernameFromEmail(session.Email)
		if err := s.scoreRepo.Increment(ctx, session.UserID, username); err != nil {
			s.logger.Error("score update failed",
				"user_id", session.UserID,
				"poll_id", input.PollID,
				"error", err,
			)
		}
	}

	// The stored tally keeps attribution; the response only carries it back
	// to the poll's creator.
	if poll.IsCreator(session.UserID) {
		return votes, nil
	}
	return votes.WithoutAttribution(), nil
}

func (s *voteService) MyVote(ctx context.Context, session domain.Session, pollID int64) (*domain.VoteRecord, error) {
	record, err := s.voteRepo.Find(ctx, session.UserID, pollID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotVoted
	}
	return record, nil
}

func validateSelection(poll *domain.Poll, selected []int) error {
	if len(selected) == 0 {
		return domain.Validationf("at least one option must be selected")
	}
	if !poll.MultipleChoice && len(selected) != 1 {
		return domain.Validationf("poll accepts exactly one option, got %d", len(selected))
	}

	seen := make(map[int]bool, len(selected))
	for _, index := range selected {
		if index < 0 || index >= len(poll.Options) {
			return domain.Validationf("option index %d out of range [0, %d)", index, len(poll.Options))
		}
		if seen[index] {
			return domain.Validationf("option index %d selected twice", index)
		}
		seen[index] = true
	}
	return nil
}
