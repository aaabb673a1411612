package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

// RepairService reconciles each poll's embedded tally with the vote record
// table, the hard source of truth. The tally is best-effort under
// contention; this job recomputes it from scratch and rewrites any poll
// whose stored map diverged.
type RepairService struct {
	pollRepo ports.PollRepository
	voteRepo ports.VoteRecordRepository
	userRepo ports.UserRepository
	logger   *slog.Logger
}

func NewRepairService(pollRepo ports.PollRepository, voteRepo ports.VoteRecordRepository, userRepo ports.UserRepository, logger *slog.Logger) *RepairService {
	return &RepairService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// RepairAll reconciles every poll concurrently and returns the first error
// encountered, if any.
func (s *RepairService) RepairAll(ctx context.Context) error {
	polls, err := s.pollRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch all polls: %w", err)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(polls))

	for _, poll := range polls {
		wg.Add(1)
		go func(poll *domain.Poll) {
			defer wg.Done()
			if err := s.repairPoll(ctx, poll); err != nil {
				errChan <- fmt.Errorf("failed to repair poll %d: %w", poll.ID, err)
			}
		}(poll)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *RepairService) repairPoll(ctx context.Context, poll *domain.Poll) error {
	records, err := s.voteRepo.ListForPoll(ctx, poll.ID)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.UserID)
	}
	emails, err := s.userRepo.EmailsByIDs(ctx, ids)
	if err != nil {
		return err
	}

	rebuilt := domain.RebuildVotes(records, emails)
	if rebuilt.Equal(poll.Votes) {
		return nil
	}

	s.logger.Warn("tally diverged from vote records, rewriting",
		"poll_id", poll.ID,
		"stored_total", poll.Votes.Total(),
		"rebuilt_total", rebuilt.Total(),
	)
	return s.pollRepo.UpdateVotes(ctx, poll.ID, rebuilt)
}
