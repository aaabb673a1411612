package domain

import (
	"sort"
	"strconv"
)

// TallyKey converts an option index to its VoteMap key.
func TallyKey(index int) string {
	return strconv.Itoa(index)
}

// Total returns the number of ballots cast across all options.
func (v VoteMap) Total() int {
	total := 0
	for _, entry := range v {
		total += entry.Count
	}
	return total
}

// Count returns the vote count for one option. Absent keys count as zero.
func (v VoteMap) Count(index int) int {
	return v[TallyKey(index)].Count
}

// Percentage returns the share of ballots cast for the given option, in the
// range [0, 100]. A poll with no votes yields 0 for every option.
func (v VoteMap) Percentage(index int) float64 {
	total := v.Total()
	if total == 0 {
		return 0
	}
	return float64(v.Count(index)) / float64(total) * 100
}

// Apply returns a copy of the map with one ballot applied: for each selected
// index the count is incremented and the voter appended to the attribution
// list. The receiver is not modified.
func (v VoteMap) Apply(selected []int, voter Voter) VoteMap {
	updated := make(VoteMap, len(v)+len(selected))
	for key, entry := range v {
		users := make([]Voter, len(entry.Users))
		copy(users, entry.Users)
		updated[key] = TallyEntry{Count: entry.Count, Users: users}
	}
	for _, index := range selected {
		key := TallyKey(index)
		entry := updated[key]
		entry.Count++
		entry.Users = append(entry.Users, voter)
		updated[key] = entry
	}
	return updated
}

// WithoutAttribution returns a copy of the map whose entries carry counts
// only. The per-voter breakdown is creator-facing.
func (v VoteMap) WithoutAttribution() VoteMap {
	stripped := make(VoteMap, len(v))
	for key, entry := range v {
		stripped[key] = TallyEntry{Count: entry.Count}
	}
	return stripped
}

// Consistent reports whether every entry's count matches its attribution
// list. Entries without attribution are trusted on their count alone.
func (v VoteMap) Consistent() bool {
	for _, entry := range v {
		if len(entry.Users) > 0 && entry.Count != len(entry.Users) {
			return false
		}
	}
	return true
}

// Equal compares two maps entry by entry, treating absent and zero-valued
// entries as different (an explicit zero entry is preserved by storage).
func (v VoteMap) Equal(other VoteMap) bool {
	if len(v) != len(other) {
		return false
	}
	for key, entry := range v {
		o, ok := other[key]
		if !ok || entry.Count != o.Count || len(entry.Users) != len(o.Users) {
			return false
		}
		for i := range entry.Users {
			if entry.Users[i] != o.Users[i] {
				return false
			}
		}
	}
	return true
}

// RebuildVotes recomputes a poll's tally from its vote records, the
// authoritative one-row-per-ballot table. Records are replayed in submission
// order so attribution lists come out the same as incremental updates would
// have produced. Voters whose email is unknown are attributed by id alone.
func RebuildVotes(records []*VoteRecord, emails map[string]string) VoteMap {
	ordered := make([]*VoteRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	votes := make(VoteMap)
	for _, record := range ordered {
		voter := Voter{ID: record.UserID, Email: emails[record.UserID.String()]}
		votes = votes.Apply(record.SelectedOptions, voter)
	}
	return votes
}
