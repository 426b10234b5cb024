package models

import "time"

type PollData struct {
	Question      string       `json:"question"`
	Options       []PollOption `json:"options"`
	IsAnonymous   bool         `json:"is_anonymous,omitempty"`
	AllowMultiple bool         `json:"allow_multiple,omitempty"`
	ClosesAt      *time.Time   `json:"closes_at,omitempty"`
}

type PollOption struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	VoterIDs []string `json:"voter_ids"`
}

// Option returns the index of the option with the given id, or -1.
func (p *PollData) Option(id string) int {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return i
		}
	}
	return -1
}

// Closed reports whether the poll stopped accepting votes at or before t.
func (p *PollData) Closed(t time.Time) bool {
	return p.ClosesAt != nil && !t.Before(*p.ClosesAt)
}

// Normalize merges options sharing an id into the first of them and drops
// repeated voters, keeping first-seen order. On single-choice polls a voter
// keeps only the first option they appear under.
func (p *PollData) Normalize() {
	if p.Options == nil {
		return
	}
	out := make([]PollOption, 0, len(p.Options))
	at := make(map[string]int, len(p.Options))
	voted := map[string]bool{}
	for _, o := range p.Options {
		i, ok := at[o.ID]
		if !ok {
			i = len(out)
			at[o.ID] = i
			out = append(out, PollOption{ID: o.ID, Text: o.Text})
		}
		for _, v := range o.VoterIDs {
			if containsString(out[i].VoterIDs, v) {
				continue
			}
			if !p.AllowMultiple && voted[v] {
				continue
			}
			voted[v] = true
			out[i].VoterIDs = append(out[i].VoterIDs, v)
		}
	}
	p.Options = out
}

// ClearVotes empties every option's voter set.
func (p *PollData) ClearVotes() {
	for i := range p.Options {
		p.Options[i].VoterIDs = nil
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (p PollData) Clone() PollData {
	out := p
	if p.ClosesAt != nil {
		t := *p.ClosesAt
		out.ClosesAt = &t
	}
	if p.Options != nil {
		out.Options = make([]PollOption, len(p.Options))
		for i, o := range p.Options {
			out.Options[i] = PollOption{ID: o.ID, Text: o.Text, VoterIDs: cloneStrings(o.VoterIDs)}
		}
	}
	return out
}
