// Package reactions maintains the per-message reaction list. Every function
// returns a fresh list; inputs are never modified.
//
// The list keeps first-use order: the first time an emoji is used decides
// its position. Voter sets hold no duplicates, Count always equals the
// number of voters, and entries without voters are dropped.
package reactions

import "parley/pkg/models"

// Add records userID's vote for emoji. Voting twice is a no-op.
func Add(list []models.Reaction, emoji, userID string) []models.Reaction {
	out := clone(list)
	for i := range out {
		if out[i].Emoji != emoji {
			continue
		}
		if !contains(out[i].VoterIDs, userID) {
			out[i].VoterIDs = append(out[i].VoterIDs, userID)
		}
		out[i].Count = len(out[i].VoterIDs)
		return out
	}
	return append(out, models.Reaction{Emoji: emoji, VoterIDs: []string{userID}, Count: 1})
}

// Remove withdraws userID's vote for emoji and drops the entry once it has
// no voters left.
func Remove(list []models.Reaction, emoji, userID string) []models.Reaction {
	out := make([]models.Reaction, 0, len(list))
	for _, r := range list {
		voters := cloneStrings(r.VoterIDs)
		if r.Emoji == emoji {
			voters = without(voters, userID)
		}
		if len(voters) == 0 {
			continue
		}
		out = append(out, models.Reaction{Emoji: r.Emoji, VoterIDs: voters, Count: len(voters)})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Normalize merges duplicate emoji entries, dedupes voters, recomputes
// counts and drops empty entries. It repairs lists that did not come from
// Add/Remove, such as ones read back from storage.
func Normalize(list []models.Reaction) []models.Reaction {
	var out []models.Reaction
	pos := make(map[string]int, len(list))
	for _, r := range list {
		i, ok := pos[r.Emoji]
		if !ok {
			i = len(out)
			pos[r.Emoji] = i
			out = append(out, models.Reaction{Emoji: r.Emoji})
		}
		for _, v := range r.VoterIDs {
			if !contains(out[i].VoterIDs, v) {
				out[i].VoterIDs = append(out[i].VoterIDs, v)
			}
		}
	}
	kept := out[:0]
	for _, r := range out {
		if len(r.VoterIDs) == 0 {
			continue
		}
		r.Count = len(r.VoterIDs)
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// Check reports whether list satisfies the reaction invariants.
func Check(list []models.Reaction) bool {
	seen := make(map[string]struct{}, len(list))
	for _, r := range list {
		if _, dup := seen[r.Emoji]; dup {
			return false
		}
		seen[r.Emoji] = struct{}{}
		if len(r.VoterIDs) == 0 || r.Count != len(r.VoterIDs) {
			return false
		}
		voters := make(map[string]struct{}, len(r.VoterIDs))
		for _, v := range r.VoterIDs {
			if _, dup := voters[v]; dup {
				return false
			}
			voters[v] = struct{}{}
		}
	}
	return true
}

// Total returns the number of votes across all emoji.
func Total(list []models.Reaction) int {
	n := 0
	for _, r := range list {
		n += r.Count
	}
	return n
}

func clone(list []models.Reaction) []models.Reaction {
	out := make([]models.Reaction, len(list), len(list)+1)
	for i, r := range list {
		out[i] = models.Reaction{Emoji: r.Emoji, VoterIDs: cloneStrings(r.VoterIDs), Count: r.Count}
	}
	return out
}

func cloneStrings(in []string) []string {
	return append([]string(nil), in...)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func without(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
