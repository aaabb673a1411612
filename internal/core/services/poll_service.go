package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

type pollService struct {
	pollRepo ports.PollRepository
	voteRepo ports.VoteRecordRepository
	userRepo ports.UserRepository
	notifier ports.Notifier
	logger   *slog.Logger
}

func NewPollService(pollRepo ports.PollRepository, voteRepo ports.VoteRecordRepository, userRepo ports.UserRepository, notifier ports.Notifier, logger *slog.Logger) ports.PollService {
	return &pollService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *pollService) Create(ctx context.Context, session domain.Session, input ports.CreatePollInput) (*domain.Poll, error) {
	if err := validatePollInput(input); err != nil {
		return nil, err
	}

	creatorID := session.UserID
	poll := &domain.Poll{
		Question:       strings.TrimSpace(input.Question),
		Options:        input.Options,
		MultipleChoice: input.MultipleChoice,
		CorrectOption:  input.CorrectOption,
		CorrectOptions: input.CorrectOptions,
		CreatorID:      &creatorID,
		Votes:          domain.VoteMap{},
	}

	if err := s.pollRepo.Save(ctx, poll); err != nil {
		return nil, &domain.StorageError{Op: "save poll", Err: err}
	}

	s.notifyCreated(ctx, poll)

	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id int64) (*domain.Poll, error) {
	return s.pollRepo.GetByID(ctx, id)
}

func (s *pollService) ListPolls(ctx context.Context) ([]*domain.Poll, error) {
	return s.pollRepo.GetAll(ctx)
}

// Delete removes a poll and all of its vote records. Creator-only. Prefers
// the repository's atomic cascade; falls back to child-first sequential
// deletes, surfacing a PartialDeletionError if the parent step fails so the
// caller can retry just the poll delete.
func (s *pollService) Delete(ctx context.Context, session domain.Session, id int64) error {
	poll, err := s.pollRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !poll.IsCreator(session.UserID) {
		return domain.ErrForbidden
	}

	if cascade, ok := s.pollRepo.(ports.PollCascadeDeleter); ok {
		votesDeleted, err := cascade.DeleteWithVotes(ctx, id)
		if err != nil {
			return &domain.StorageError{Op: "delete poll with votes", Err: err}
		}
		s.logger.Info("poll deleted", "poll_id", id, "votes_deleted", votesDeleted)
		return nil
	}

	votesDeleted, err := s.voteRepo.DeleteAllForPoll(ctx, id)
	if err != nil {
		return &domain.StorageError{Op: "delete poll votes", Err: err}
	}
	if err := s.pollRepo.Delete(ctx, id); err != nil {
		return &domain.PartialDeletionError{PollID: id, VotesDeleted: votesDeleted, Err: err}
	}
	s.logger.Info("poll deleted", "poll_id", id, "votes_deleted", votesDeleted)
	return nil
}

// notifyCreated fans the new poll out to every registered email. Best
// effort: failures are logged, never surfaced.
func (s *pollService) notifyCreated(ctx context.Context, poll *domain.Poll) {
	emails, err := s.userRepo.ListEmails(ctx)
	if err != nil {
		s.logger.Error("fetching emails for poll notification failed", "poll_id", poll.ID, "error", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	notification := ports.PollNotification{
		To:       emails,
		Question: poll.Question,
		Options:  poll.Options,
	}
	if err := s.notifier.NotifyPollCreated(ctx, notification); err != nil {
		s.logger.Error("poll notification dispatch failed", "poll_id", poll.ID, "error", err)
	}
}

func validatePollInput(input ports.CreatePollInput) error {
	if strings.TrimSpace(input.Question) == "" {
		return domain.Validationf("question is required")
	}
	if len(input.Options) < domain.MinOptions || len(input.Options) > domain.MaxOptions {
		return domain.Validationf("polls take %d to %d options, got %d", domain.MinOptions, domain.MaxOptions, len(input.Options))
	}
	for i, opt := range input.Options {
		if strings.TrimSpace(opt) == "" {
			return domain.Validationf("option %d is empty", i)
		}
	}

	if input.MultipleChoice {
		if input.CorrectOption != nil {
			return domain.Validationf("multiple-choice polls use correct_options, not correct_option")
		}
		for _, index := range input.CorrectOptions {
			if index < 0 || index >= len(input.Options) {
				return domain.Validationf("correct option index %d out of range", index)
			}
		}
	} else {
		if len(input.CorrectOptions) > 0 {
			return domain.Validationf("single-choice polls use correct_option, not correct_options")
		}
		if input.CorrectOption != nil && (*input.CorrectOption < 0 || *input.CorrectOption >= len(input.Options)) {
			return domain.Validationf("correct option index %d out of range", *input.CorrectOption)
		}
	}
	return nil
}
