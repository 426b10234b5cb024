package store

import "parley/pkg/models"

// Lookup returns a copy of one message.
func (s *Store) Lookup(conversationID, messageID string) (models.Message, bool) {
	p := s.partition(conversationID)
	if p == nil {
		return models.Message{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	m := p.get(messageID)
	if m == nil {
		return models.Message{}, false
	}
	return m.Clone(), true
}

// GetForConversation returns every message in the conversation, tombstones
// included, in storage order.
func (s *Store) GetForConversation(conversationID string) []models.Message {
	return s.collect(conversationID, func(*models.Message) bool { return true })
}

// GetThread returns the replies to rootID in send order.
func (s *Store) GetThread(conversationID, rootID string) []models.Message {
	return s.collect(conversationID, func(m *models.Message) bool { return m.ThreadRootID == rootID })
}

// GetPinned returns pinned messages that are not deleted.
func (s *Store) GetPinned(conversationID string) []models.Message {
	return s.collect(conversationID, func(m *models.Message) bool { return m.IsPinned && !m.IsDeleted })
}

func (s *Store) collect(conversationID string, keep func(*models.Message) bool) []models.Message {
	p := s.partition(conversationID)
	if p == nil {
		return []models.Message{}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Message, 0, len(p.messages))
	for i := range p.messages {
		if keep(&p.messages[i]) {
			out = append(out, p.messages[i].Clone())
		}
	}
	return out
}
