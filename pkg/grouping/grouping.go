// Package grouping clusters a conversation's messages into display groups
// and finds the day boundaries between them. Everything here is pure.
package grouping

import (
	"time"

	"parley/pkg/models"
)

// MaxGap is the longest pause between two messages from the same sender
// that still keeps them in one group.
const MaxGap = 5 * time.Minute

// GroupMessages partitions chronologically sorted messages into groups.
// Deleted messages are skipped. A new group starts when the sender changes,
// when either side is a system message, when the gap exceeds MaxGap, or when
// the UTC day changes.
func GroupMessages(messages []models.Message) []models.MessageGroup {
	var groups []models.MessageGroup
	var cur *models.MessageGroup
	for _, m := range messages {
		if m.IsDeleted {
			continue
		}
		if cur == nil || startsGroup(cur.Messages[len(cur.Messages)-1], m) {
			groups = append(groups, models.MessageGroup{
				SenderID:          m.SenderID,
				SenderDisplayName: m.SenderDisplayName,
				SenderAvatarRef:   m.SenderAvatarRef,
				FirstTimestamp:    m.SentAt,
			})
			cur = &groups[len(groups)-1]
		}
		cur.Messages = append(cur.Messages, m.Clone())
	}
	return groups
}

func startsGroup(last, m models.Message) bool {
	switch {
	case m.SenderID != last.SenderID:
		return true
	case m.Kind == models.KindSystem || last.Kind == models.KindSystem:
		return true
	case m.SentAt.Sub(last.SentAt) > MaxGap:
		return true
	case !SameDay(m.SentAt, last.SentAt):
		return true
	}
	return false
}

// GetDateBoundaries returns, in first-seen order, the timestamp of the
// first non-deleted message of each distinct UTC day.
func GetDateBoundaries(messages []models.Message) []time.Time {
	var out []time.Time
	seen := make(map[string]struct{})
	for _, m := range messages {
		if m.IsDeleted {
			continue
		}
		day := DayKey(m.SentAt)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, m.SentAt)
	}
	return out
}

// DayKey formats t's UTC calendar day as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
