package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteMapTotalAndPercentage(t *testing.T) {
	votes := VoteMap{
		"0": {Count: 3},
		"1": {Count: 1},
	}

	assert.Equal(t, 4, votes.Total())
	assert.InDelta(t, 75.0, votes.Percentage(0), 0.001)
	assert.InDelta(t, 25.0, votes.Percentage(1), 0.001)
	assert.Equal(t, 0.0, votes.Percentage(2))
}

func TestVoteMapPercentageEmptyPoll(t *testing.T) {
	votes := VoteMap{}

	assert.Equal(t, 0.0, votes.Percentage(0))
	assert.Equal(t, 0.0, votes.Percentage(1))
}

func TestVoteMapPercentageIsPure(t *testing.T) {
	votes := VoteMap{"0": {Count: 2}, "1": {Count: 5}}

	first := votes.Percentage(1)
	second := votes.Percentage(1)
	assert.Equal(t, first, second)

	sum := 0.0
	for i := 0; i < 2; i++ {
		sum += votes.Percentage(i)
	}
	assert.InDelta(t, 100.0, sum, 0.001)
}

func TestVoteMapApplyDoesNotMutateReceiver(t *testing.T) {
	voter := Voter{ID: uuid.New(), Email: "a@example.com"}
	original := VoteMap{"0": {Count: 1, Users: []Voter{voter}}}

	other := Voter{ID: uuid.New(), Email: "b@example.com"}
	updated := original.Apply([]int{0, 1}, other)

	assert.Equal(t, 1, original.Count(0))
	assert.Len(t, original["0"].Users, 1)

	assert.Equal(t, 2, updated.Count(0))
	assert.Equal(t, 1, updated.Count(1))
	assert.Equal(t, []Voter{voter, other}, updated["0"].Users)
	assert.Equal(t, []Voter{other}, updated["1"].Users)
}

func TestVoteMapApplyKeepsCountAndAttributionInSync(t *testing.T) {
	votes := VoteMap{}
	for i := 0; i < 5; i++ {
		voter := Voter{ID: uuid.New(), Email: "v@example.com"}
		votes = votes.Apply([]int{i % 2}, voter)
	}

	require.True(t, votes.Consistent())
	assert.Equal(t, 5, votes.Total())
	for key, entry := range votes {
		assert.Equal(t, entry.Count, len(entry.Users), "option %s", key)
	}
}

func TestVoteMapEqual(t *testing.T) {
	a := Voter{ID: uuid.New()}
	left := VoteMap{"0": {Count: 1, Users: []Voter{a}}}

	assert.True(t, left.Equal(VoteMap{"0": {Count: 1, Users: []Voter{a}}}))
	assert.False(t, left.Equal(VoteMap{"0": {Count: 2, Users: []Voter{a}}}))
	assert.False(t, left.Equal(VoteMap{}))
	assert.False(t, left.Equal(VoteMap{"1": {Count: 1, Users: []Voter{a}}}))
}

func TestRebuildVotesReplaysSubmissionOrder(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	base := time.Now()

	// Listed out of order on purpose; rebuild must sort by submission time.
	records := []*VoteRecord{
		{UserID: second, QuestionID: 1, SelectedOptions: []int{0}, CreatedAt: base.Add(time.Minute)},
		{UserID: first, QuestionID: 1, SelectedOptions: []int{0, 2}, CreatedAt: base},
	}
	emails := map[string]string{
		first.String():  "first@example.com",
		second.String(): "second@example.com",
	}

	votes := RebuildVotes(records, emails)

	require.Equal(t, 3, votes.Total())
	assert.Equal(t, 2, votes.Count(0))
	assert.Equal(t, 1, votes.Count(2))
	assert.Equal(t, "first@example.com", votes["0"].Users[0].Email)
	assert.Equal(t, "second@example.com", votes["0"].Users[1].Email)
	assert.True(t, votes.Consistent())
}

func TestMatchesAnswerKeySingleChoice(t *testing.T) {
	correct := 0
	poll := &Poll{
		Options:       []string{"A", "B"},
		CorrectOption: &correct,
	}

	assert.True(t, poll.MatchesAnswerKey([]int{0}))
	assert.False(t, poll.MatchesAnswerKey([]int{1}))
	assert.False(t, poll.MatchesAnswerKey([]int{0, 1}))
	assert.False(t, poll.MatchesAnswerKey(nil))
}

func TestMatchesAnswerKeyMultipleChoice(t *testing.T) {
	poll := &Poll{
		Options:        []string{"A", "B", "C"},
		MultipleChoice: true,
		CorrectOptions: []int{0, 2},
	}

	assert.True(t, poll.MatchesAnswerKey([]int{0, 2}))
	assert.True(t, poll.MatchesAnswerKey([]int{2, 0}), "order must not matter")
	assert.False(t, poll.MatchesAnswerKey([]int{0}))
	assert.False(t, poll.MatchesAnswerKey([]int{0, 1}))
	assert.False(t, poll.MatchesAnswerKey([]int{0, 1, 2}))
}

func TestMatchesAnswerKeyNoKey(t *testing.T) {
	poll := &Poll{Options: []string{"A", "B"}}

	assert.False(t, poll.MatchesAnswerKey([]int{0}))
}

func TestWithoutAttribution(t *testing.T) {
	voter := Voter{ID: uuid.New(), Email: "v@example.com"}
	poll := &Poll{
		Question: "q",
		Votes:    VoteMap{"0": {Count: 1, Users: []Voter{voter}}},
	}

	stripped := poll.WithoutAttribution()

	assert.Equal(t, 1, stripped.Votes.Count(0))
	assert.Empty(t, stripped.Votes["0"].Users)
	assert.Len(t, poll.Votes["0"].Users, 1, "original must keep attribution")
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "alice", UsernameFromEmail("alice@example.com"))
	assert.Equal(t, "Anonymous", UsernameFromEmail(""))
	assert.Equal(t, "Anonymous", UsernameFromEmail("@example.com"))
	assert.Equal(t, "Anonymous", UsernameFromEmail("no-at-sign"))
}
