package services

import (
	"context"
	"testing"

	"github.com/livepoll/livepoll/internal/core/domain"
	"github.com/livepoll/livepoll/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pollFixture struct {
	polls    *fakePollRepo
	votes    *fakeVoteRepo
	users    *fakeUserRepo
	notifier *fakeNotifier
	svc      ports.PollService
}

func newPollFixture(t *testing.T) *pollFixture {
	t.Helper()
	polls := newFakePollRepo()
	votes := newFakeVoteRepo(polls)
	users := &fakeUserRepo{emails: []string{"a@example.com", "b@example.com"}}
	notifier := &fakeNotifier{}
	return &pollFixture{
		polls:    polls,
		votes:    votes,
		users:    users,
		notifier: notifier,
		svc:      NewPollService(polls, votes, users, notifier, testLogger()),
	}
}

func intPtr(v int) *int { return &v }

func TestCreatePoll(t *testing.T) {
	f := newPollFixture(t)
	creator := session("creator@example.com")

	poll, err := f.svc.Create(context.Background(), creator, ports.CreatePollInput{
		Question:      "  which one  ",
		Options:       []string{"A", "B"},
		CorrectOption: intPtr(0),
	})

	require.NoError(t, err)
	assert.NotZero(t, poll.ID)
	assert.Equal(t, "which one", poll.Question, "question is trimmed")
	require.NotNil(t, poll.CreatorID)
	assert.Equal(t, creator.UserID, *poll.CreatorID)
	assert.NotNil(t, poll.Votes, "tally starts empty, not nil")
	assert.Equal(t, 0, poll.Votes.Total())

	require.Equal(t, 1, f.notifier.sentCount())
	f.notifier.mu.Lock()
	sent := f.notifier.sent[0]
	f.notifier.mu.Unlock()
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sent.To)
	assert.Equal(t, "which one", sent.Question)
}

func TestCreatePollValidation(t *testing.T) {
	f := newPollFixture(t)
	creator := session("creator@example.com")

	cases := map[string]ports.CreatePollInput{
		"empty question": {
			Question: "   ",
			Options:  []string{"A", "B"},
		},
		"too few options": {
			Question: "q",
			Options:  []string{"A"},
		},
		"too many options": {
			Question: "q",
			Options:  []string{"A", "B", "C", "D", "E"},
		},
		"blank option": {
			Question: "q",
			Options:  []string{"A", " "},
		},
		"correct option out of range": {
			Question:      "q",
			Options:       []string{"A", "B"},
			CorrectOption: intPtr(2),
		},
		"single-choice with correct_options": {
			Question:       "q",
			Options:        []string{"A", "B"},
			CorrectOptions: []int{0},
		},
		"multi-choice with correct_option": {
			Question:       "q",
			Options:        []string{"A", "B"},
			MultipleChoice: true,
			CorrectOption:  intPtr(0),
		},
		"multi-choice key out of range": {
			Question:       "q",
			Options:        []string{"A", "B"},
			MultipleChoice: true,
			CorrectOptions: []int{0, 3},
		},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), creator, input)
			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}

	polls, err := f.polls.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, polls, "rejected polls must not persist")
}

func TestCreatePollNotifierFailureSwallowed(t *testing.T) {
	f := newPollFixture(t)
	f.notifier.fail = true

	poll, err := f.svc.Create(context.Background(), session("c@example.com"), ports.CreatePollInput{
		Question: "q",
		Options:  []string{"A", "B"},
	})

	require.NoError(t, err, "notification is best effort")
	assert.NotZero(t, poll.ID)
}

func TestCreatePollEmailFetchFailureSwallowed(t *testing.T) {
	f := newPollFixture(t)
	f.users.failEmails = true

	_, err := f.svc.Create(context.Background(), session("c@example.com"), ports.CreatePollInput{
		Question: "q",
		Options:  []string{"A", "B"},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, f.notifier.sentCount())
}

func TestDeletePollForbiddenForNonCreator(t *testing.T) {
	f := newPollFixture(t)
	creator := session("c@example.com")
	poll, err := f.svc.Create(context.Background(), creator, ports.CreatePollInput{
		Question: "q",
		Options:  []string{"A", "B"},
	})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), session("other@example.com"), poll.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.polls.GetByID(context.Background(), poll.ID)
	require.NoError(t, err, "poll survives the forbidden attempt")
}

func TestDeletePollSequentialFallback(t *testing.T) {
	f := newPollFixture(t)
	creator := session("c@example.com")
	poll, err := f.svc.Create(context.Background(), creator, ports.CreatePollInput{
		Question: "q",
		Options:  []string{"A", "B"},
	})
	require.NoError(t, err)

	voteSvc := NewVoteService(f.polls, f.votes, newFakeScoreRepo(), testLogger())
	_, err = voteSvc.Vote(context.Background(), session("v@example.com"), ports.VoteInput{PollID: poll.ID, SelectedOptions: []int{0}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), creator, poll.ID))

	_, err = f.polls.GetByID(context.Background(), poll.ID)
	require.ErrorIs(t, err, domain.ErrPollNotFound)
	remaining, err := f.votes.ListForPoll(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeletePollPartialFailure(t *testing.T) {
	f := newPollFixture(t)
	creator := session("c@example.com")
	poll, err := f.svc.Create(context.Background(), creator, ports.CreatePollInput{
		Question: "q",
		Options:  []string{"A", "B"},
	})
	require.NoError(t, err)

	voteSvc := NewVoteService(f.polls, f.votes, newFakeScoreRepo(), testLogger())
	_, err = voteSvc.Vote(context.Background(), session("v@example.com"), ports.VoteInput{PollID: poll.ID, SelectedOptions: []int{0}})
	require.NoError(t, err)

	f.polls.failDelete = true
	err = f.svc.Delete(context.Background(), creator, poll.ID)

	var partial *domain.PartialDeletionError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, poll.ID, partial.PollID)
	assert.Equal(t, int64(1), partial.VotesDeleted, "child deletes already happened")
}

func TestDeletePollCascade(t *testing.T) {
	polls := newFakePollRepo()
	votes := newFakeVoteRepo(polls)
	cascade := &fakeCascadePollRepo{fakePollRepo: polls, votes: votes}
	users := &fakeUserRepo{}
	svc := NewPollService(cascade, votes, users, &fakeNotifier{}, testLogger())

	creator := session("c@example.com")
	poll, err := svc.Create(context.Background(), creator, ports.CreatePollInput{
		Question: "q",
		Options:  []string{"A", "B"},
	})
	require.NoError(t, err)

	voteSvc := NewVoteService(polls, votes, newFakeScoreRepo(), testLogger())
	_, err = voteSvc.Vote(context.Background(), session("v@example.com"), ports.VoteInput{PollID: poll.ID, SelectedOptions: []int{0}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), creator, poll.ID))

	_, err = polls.GetByID(context.Background(), poll.ID)
	require.ErrorIs(t, err, domain.ErrPollNotFound)
	remaining, err := votes.ListForPoll(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeletePollNotFound(t *testing.T) {
	f := newPollFixture(t)
	err := f.svc.Delete(context.Background(), session("c@example.com"), 42)
	require.ErrorIs(t, err, domain.ErrPollNotFound)
}
