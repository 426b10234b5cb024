package store

import (
	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/reactions"
	"parley/pkg/telemetry"
)

// SendParams describes a new message. SentAt and ID are assigned by the
// store.
type SendParams struct {
	ConversationID    string
	ConversationKind  models.ConversationKind
	SenderID          string
	SenderDisplayName string
	SenderAvatarRef   string
	Content           string
	Kind              models.MessageKind
	Attachments       []models.Attachment
	Mentions          []string
	Poll              *models.PollData
	CrossModuleRef    *models.CrossModuleRef
}

func (s *Store) build(p *partition, params SendParams) models.Message {
	m := models.Message{
		ID:                s.newID(),
		ConversationID:    params.ConversationID,
		ConversationKind:  params.ConversationKind,
		SenderID:          params.SenderID,
		SenderDisplayName: params.SenderDisplayName,
		SenderAvatarRef:   params.SenderAvatarRef,
		Content:           params.Content,
		Kind:              params.Kind,
		SentAt:            s.sentAt(p),
		Attachments:       append([]models.Attachment(nil), params.Attachments...),
		Mentions:          append([]string(nil), params.Mentions...),
	}
	if !m.Kind.Valid() {
		m.Kind = models.KindText
	}
	if params.Poll != nil {
		poll := params.Poll.Clone()
		poll.Normalize()
		poll.ClearVotes()
		m.Poll = &poll
	}
	if params.CrossModuleRef != nil {
		ref := *params.CrossModuleRef
		m.CrossModuleRef = &ref
	}
	if len(m.Attachments) == 0 {
		m.Attachments = nil
	}
	if len(m.Mentions) == 0 {
		m.Mentions = nil
	}
	return m
}

// Send appends a new message to its conversation and returns a copy.
func (s *Store) Send(params SendParams) models.Message {
	p := s.partitionOrCreate(params.ConversationID)
	p.mu.Lock()
	defer p.mu.Unlock()
	m := s.build(p, params)
	p.add(m)
	p.version++
	logger.Debug("message_sent", "conversation", m.ConversationID, "id", m.ID, "kind", m.Kind.String())
	telemetry.RecordMutation("send", true)
	return m.Clone()
}

// ReplyInThread stores a reply to parentMessageID and updates the parent's
// thread aggregates in the same critical section. A reply to a parent that
// does not exist is stored as an orphan.
func (s *Store) ReplyInThread(params SendParams, parentMessageID string) models.Message {
	p := s.partitionOrCreate(params.ConversationID)
	p.mu.Lock()
	defer p.mu.Unlock()
	m := s.build(p, params)
	m.ThreadRootID = parentMessageID
	p.add(m)
	p.version++

	root := p.get(parentMessageID)
	telemetry.RecordMutation("reply", root != nil)
	if root == nil {
		logger.Debug("thread_parent_missing", "conversation", m.ConversationID, "parent", parentMessageID, "id", m.ID)
		return m.Clone()
	}
	root.ThreadReplyCount++
	if !containsString(root.ThreadParticipantIDs, m.SenderID) {
		root.ThreadParticipantIDs = append(root.ThreadParticipantIDs, m.SenderID)
	}
	last := m.SentAt
	root.ThreadLastReplyAt = &last
	return m.Clone()
}

// mutate runs fn on the stored message under the conversation's write lock.
// fn reports whether it changed anything. mutate reports whether the
// message exists.
func (s *Store) mutate(op, conversationID, messageID string, fn func(m *models.Message) bool) bool {
	p := s.partition(conversationID)
	if p == nil {
		logger.Debug("mutation_target_missing", "op", op, "conversation", conversationID, "id", messageID)
		telemetry.RecordMutation(op, false)
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.get(messageID)
	if m == nil {
		logger.Debug("mutation_target_missing", "op", op, "conversation", conversationID, "id", messageID)
		telemetry.RecordMutation(op, false)
		return false
	}
	if fn(m) {
		p.version++
	}
	telemetry.RecordMutation(op, true)
	return true
}

// Edit replaces the content of a message and stamps it edited. Tombstones
// are left alone.
func (s *Store) Edit(conversationID, messageID, newContent string) bool {
	return s.mutate("edit", conversationID, messageID, func(m *models.Message) bool {
		if m.IsDeleted {
			return false
		}
		now := s.clock.Now()
		m.Content = newContent
		m.IsEdited = true
		m.EditedAt = &now
		return true
	})
}

// Delete turns a message into a tombstone.
func (s *Store) Delete(conversationID, messageID string) bool {
	return s.mutate("delete", conversationID, messageID, func(m *models.Message) bool {
		if m.IsDeleted {
			return false
		}
		m.IsDeleted = true
		return true
	})
}

func (s *Store) AddReaction(conversationID, messageID, emoji, userID string) bool {
	return s.mutate("add_reaction", conversationID, messageID, func(m *models.Message) bool {
		before := reactions.Total(m.Reactions)
		m.Reactions = reactions.Add(m.Reactions, emoji, userID)
		return reactions.Total(m.Reactions) != before
	})
}

func (s *Store) RemoveReaction(conversationID, messageID, emoji, userID string) bool {
	return s.mutate("remove_reaction", conversationID, messageID, func(m *models.Message) bool {
		before := reactions.Total(m.Reactions)
		m.Reactions = reactions.Remove(m.Reactions, emoji, userID)
		return reactions.Total(m.Reactions) != before
	})
}

func (s *Store) Pin(conversationID, messageID string) bool {
	return s.setFlag("pin", conversationID, messageID, func(m *models.Message) *bool { return &m.IsPinned }, true)
}

func (s *Store) Unpin(conversationID, messageID string) bool {
	return s.setFlag("unpin", conversationID, messageID, func(m *models.Message) *bool { return &m.IsPinned }, false)
}

func (s *Store) Bookmark(conversationID, messageID string) bool {
	return s.setFlag("bookmark", conversationID, messageID, func(m *models.Message) *bool { return &m.IsBookmarked }, true)
}

func (s *Store) Unbookmark(conversationID, messageID string) bool {
	return s.setFlag("unbookmark", conversationID, messageID, func(m *models.Message) *bool { return &m.IsBookmarked }, false)
}

func (s *Store) setFlag(op, conversationID, messageID string, field func(*models.Message) *bool, v bool) bool {
	return s.mutate(op, conversationID, messageID, func(m *models.Message) bool {
		f := field(m)
		if *f == v {
			return false
		}
		*f = v
		return true
	})
}

// VotePoll adds userID to the voters of optionID. Messages without a poll,
// unknown options and closed polls are ignored. On single-choice polls the
// user's vote moves to optionID.
func (s *Store) VotePoll(conversationID, messageID, optionID, userID string) bool {
	return s.mutate("vote_poll", conversationID, messageID, func(m *models.Message) bool {
		if m.Poll == nil {
			return false
		}
		idx := m.Poll.Option(optionID)
		if idx < 0 {
			logger.Debug("poll_option_missing", "conversation", conversationID, "id", messageID, "option", optionID)
			return false
		}
		if m.Poll.Closed(s.clock.Now()) {
			logger.Debug("poll_closed", "conversation", conversationID, "id", messageID)
			return false
		}
		changed := false
		if !m.Poll.AllowMultiple {
			for i := range m.Poll.Options {
				if i == idx {
					continue
				}
				o := &m.Poll.Options[i]
				if containsString(o.VoterIDs, userID) {
					o.VoterIDs = removeString(o.VoterIDs, userID)
					changed = true
				}
			}
		}
		o := &m.Poll.Options[idx]
		if !containsString(o.VoterIDs, userID) {
			o.VoterIDs = append(o.VoterIDs, userID)
			changed = true
		}
		return changed
	})
}

// RetractPollVote removes userID from the voters of optionID.
func (s *Store) RetractPollVote(conversationID, messageID, optionID, userID string) bool {
	return s.mutate("retract_poll_vote", conversationID, messageID, func(m *models.Message) bool {
		if m.Poll == nil {
			return false
		}
		idx := m.Poll.Option(optionID)
		if idx < 0 || m.Poll.Closed(s.clock.Now()) {
			return false
		}
		o := &m.Poll.Options[idx]
		if !containsString(o.VoterIDs, userID) {
			return false
		}
		o.VoterIDs = removeString(o.VoterIDs, userID)
		return true
	})
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
