package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinOptions = 2
	MaxOptions = 4
)

// Poll is the aggregate root. Option order is meaningful: an option's index
// is its stable identity, used as the key of the Votes map and in answer keys.
type Poll struct {
	ID             int64      `json:"id"`
	Question       string     `json:"question"`
	Options        []string   `json:"options"`
	MultipleChoice bool       `json:"multiple_choice"`
	CorrectOption  *int       `json:"correct_option,omitempty"`
	CorrectOptions []int      `json:"correct_options,omitempty"`
	CreatorID      *uuid.UUID `json:"creator_id,omitempty"`
	Votes          VoteMap    `json:"votes"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Voter identifies a user inside a tally attribution list.
type Voter struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// TallyEntry holds one option's vote count and, when attribution is tracked,
// the voters who chose it in submission order. Count must always equal
// len(Users) when Users is populated.
type TallyEntry struct {
	Count int     `json:"count"`
	Users []Voter `json:"users,omitempty"`
}

// VoteMap maps an option index (as a decimal string key, matching the stored
// JSON shape) to its tally. A missing key means zero votes for that option.
type VoteMap map[string]TallyEntry

// HasAnswerKey reports whether the creator supplied correct option(s).
func (p *Poll) HasAnswerKey() bool {
	if p.MultipleChoice {
		return len(p.CorrectOptions) > 0
	}
	return p.CorrectOption != nil
}

// IsCorrect reports whether the given option index is part of the answer key.
func (p *Poll) IsCorrect(index int) bool {
	if p.MultipleChoice {
		for _, i := range p.CorrectOptions {
			if i == index {
				return true
			}
		}
		return false
	}
	return p.CorrectOption != nil && *p.CorrectOption == index
}

// MatchesAnswerKey reports whether a submission exactly matches the answer
// key: single index equality for single-choice, exact set equality for
// multiple-choice. Polls without an answer key never match.
func (p *Poll) MatchesAnswerKey(selected []int) bool {
	if !p.HasAnswerKey() {
		return false
	}
	if !p.MultipleChoice {
		return len(selected) == 1 && *p.CorrectOption == selected[0]
	}
	if len(selected) != len(p.CorrectOptions) {
		return false
	}
	for _, s := range selected {
		if !p.IsCorrect(s) {
			return false
		}
	}
	return true
}

// IsCreator reports whether the given user created this poll. Polls without
// a recorded creator belong to nobody.
func (p *Poll) IsCreator(userID uuid.UUID) bool {
	return p.CreatorID != nil && *p.CreatorID == userID
}

// WithoutAttribution returns a copy of the poll whose tally entries carry
// counts only. The per-voter breakdown is creator-facing.
func (p *Poll) WithoutAttribution() *Poll {
	stripped := *p
	stripped.Votes = p.Votes.WithoutAttribution()
	return &stripped
}
