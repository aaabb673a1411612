package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

// fakePollRepo is an in-memory PollRepository without cascade support, so
// the service's sequential delete path is exercised by default.
type fakePollRepo struct {
	mu          sync.Mutex
	polls       map[int64]*domain.Poll
	nextID      int64
	failSave    bool
	failDelete  bool
	voteUpdates map[int64]domain.VoteMap
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{
		polls:       make(map[int64]*domain.Poll),
		voteUpdates: make(map[int64]domain.VoteMap),
	}
}

func (r *fakePollRepo) Save(ctx context.Context, poll *domain.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errBoom
	}
	r.nextID++
	poll.ID = r.nextID
	poll.CreatedAt = time.Now()
	r.polls[poll.ID] = poll
	return nil
}

func (r *fakePollRepo) GetByID(ctx context.Context, id int64) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	copied := *poll
	return &copied, nil
}

func (r *fakePollRepo) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	polls := make([]*domain.Poll, 0, len(r.polls))
	for _, poll := range r.polls {
		copied := *poll
		polls = append(polls, &copied)
	}
	return polls, nil
}

func (r *fakePollRepo) UpdateVotes(ctx context.Context, id int64, votes domain.VoteMap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return domain.ErrPollNotFound
	}
	poll.Votes = votes
	r.voteUpdates[id] = votes
	return nil
}

func (r *fakePollRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete {
		return errBoom
	}
	if _, ok := r.polls[id]; !ok {
		return domain.ErrPollNotFound
	}
	delete(r.polls, id)
	return nil
}

// fakeCascadePollRepo adds the atomic cascade, satisfying
// ports.PollCascadeDeleter.
type fakeCascadePollRepo struct {
	*fakePollRepo
	votes *fakeVoteRepo
}

func (r *fakeCascadePollRepo) DeleteWithVotes(ctx context.Context, id int64) (int64, error) {
	deleted, err := r.votes.DeleteAllForPoll(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := r.Delete(ctx, id); err != nil {
		return 0, err
	}
	return deleted, nil
}

type fakeVoteRepo struct {
	mu            sync.Mutex
	records       map[string]*domain.VoteRecord
	polls         *fakePollRepo
	suppressCheck bool
}

func newFakeVoteRepo(polls *fakePollRepo) *fakeVoteRepo {
	return &fakeVoteRepo{
		records: make(map[string]*domain.VoteRecord),
		polls:   polls,
	}
}

func voteKey(userID uuid.UUID, pollID int64) string {
	return fmt.Sprintf("%s|%d", userID, pollID)
}

func (r *fakeVoteRepo) Exists(ctx context.Context, userID uuid.UUID, pollID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suppressCheck {
		// Simulate the pre-check racing a concurrent submission: the record
		// is there, but this reader does not see it yet.
		return false, nil
	}
	_, ok := r.records[voteKey(userID, pollID)]
	return ok, nil
}

func (r *fakeVoteRepo) Find(ctx context.Context, userID uuid.UUID, pollID int64) (*domain.VoteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[voteKey(userID, pollID)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (r *fakeVoteRepo) Commit(ctx context.Context, record *domain.VoteRecord, voter domain.Voter) (domain.VoteMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.polls.mu.Lock()
	defer r.polls.mu.Unlock()
	poll, ok := r.polls.polls[record.QuestionID]
	if !ok {
		return nil, domain.ErrPollNotFound
	}

	key := voteKey(record.UserID, record.QuestionID)
	if _, ok := r.records[key]; ok {
		return nil, domain.ErrDuplicateVote
	}
	r.records[key] = record

	poll.Votes = poll.Votes.Apply(record.SelectedOptions, voter)
	return poll.Votes, nil
}

func (r *fakeVoteRepo) ListForPoll(ctx context.Context, pollID int64) ([]*domain.VoteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []*domain.VoteRecord
	for _, record := range r.records {
		if record.QuestionID == pollID {
			copied := *record
			records = append(records, &copied)
		}
	}
	return records, nil
}

func (r *fakeVoteRepo) DeleteAllForPoll(ctx context.Context, pollID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, record := range r.records {
		if record.QuestionID == pollID {
			delete(r.records, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeScoreRepo struct {
	mu            sync.Mutex
	scores        map[uuid.UUID]*domain.Score
	failIncrement bool
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: make(map[uuid.UUID]*domain.Score)}
}

func (r *fakeScoreRepo) Increment(ctx context.Context, userID uuid.UUID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failIncrement {
		return errBoom
	}
	if score, ok := r.scores[userID]; ok {
		score.Score++
		return nil
	}
	r.scores[userID] = &domain.Score{UserID: userID, Username: username, Score: 1}
	return nil
}

func (r *fakeScoreRepo) Top(ctx context.Context, limit int) ([]*domain.Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scores := make([]*domain.Score, 0, len(r.scores))
	for _, score := range r.scores {
		copied := *score
		scores = append(scores, &copied)
	}
	return scores, nil
}

func (r *fakeScoreRepo) scoreOf(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if score, ok := r.scores[userID]; ok {
		return score.Score
	}
	return 0
}

type fakeUserRepo struct {
	emails     []string
	byID       map[string]string
	failEmails bool
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.emails = append(r.emails, user.Email)
	return nil
}

func (r *fakeUserRepo) ListEmails(ctx context.Context) ([]string, error) {
	if r.failEmails {
		return nil, errBoom
	}
	return r.emails, nil
}

func (r *fakeUserRepo) EmailsByIDs(ctx context.Context, ids []uuid.UUID) (map[string]string, error) {
	if r.byID == nil {
		return map[string]string{}, nil
	}
	return r.byID, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []ports.PollNotification
	fail  bool
}

func (n *fakeNotifier) NotifyPollCreated(ctx context.Context, notification ports.PollNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errBoom
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// fakeChangeFeed hands out a caller-controlled event channel.
type fakeChangeFeed struct {
	events chan ports.ChangeEvent
}

func newFakeChangeFeed() *fakeChangeFeed {
	return &fakeChangeFeed{events: make(chan ports.ChangeEvent)}
}

func (f *fakeChangeFeed) Events(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	return f.events, nil
}

func (f *fakeChangeFeed) Close() error {
	close(f.events)
	return nil
}
