package store

import (
	"errors"
	"fmt"

	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/reactions"
)

// Load replaces the conversation's partition with what the backend holds.
// Reaction lists, poll voter sets and thread aggregates are rebuilt from
// source data on the way in.
func (s *Store) Load(conversationID string) error {
	msgs, err := s.backend.Load(conversationID)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	for i := range msgs {
		msgs[i].Reactions = reactions.Normalize(msgs[i].Reactions)
		if msgs[i].Poll != nil {
			msgs[i].Poll.Normalize()
		}
	}
	repairThreads(msgs)

	p := s.partitionOrCreate(conversationID)
	p.mu.Lock()
	p.reset(msgs)
	p.version++
	p.saved = p.version
	p.mu.Unlock()
	logger.Debug("conversation_loaded", "conversation", conversationID, "messages", len(msgs))
	return nil
}

// LoadAll loads every conversation the backend knows about.
func (s *Store) LoadAll() error {
	ids, err := s.backend.Conversations()
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	for _, id := range ids {
		if err := s.Load(id); err != nil {
			return err
		}
	}
	logger.Info("conversations_loaded", "count", len(ids))
	return nil
}

// Save writes the conversation's current messages to the backend.
func (s *Store) Save(conversationID string) error {
	p := s.partition(conversationID)
	if p == nil {
		logger.Debug("save_target_missing", "conversation", conversationID)
		return nil
	}
	_, err := s.save(conversationID, p)
	return err
}

// SaveDirty saves every conversation mutated since its last save and
// returns how many were written. It keeps going past failures and returns
// them joined.
func (s *Store) SaveDirty() (int, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.parts))
	parts := make([]*partition, 0, len(s.parts))
	for id, p := range s.parts {
		ids = append(ids, id)
		parts = append(parts, p)
	}
	s.mu.RUnlock()

	var errs []error
	n := 0
	for i, p := range parts {
		p.mu.RLock()
		dirty := p.dirty()
		p.mu.RUnlock()
		if !dirty {
			continue
		}
		wrote, err := s.save(ids[i], p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if wrote {
			n++
		}
	}
	return n, errors.Join(errs...)
}

func (s *Store) save(conversationID string, p *partition) (bool, error) {
	p.mu.RLock()
	version := p.version
	snapshot := make([]models.Message, len(p.messages))
	for i := range p.messages {
		snapshot[i] = p.messages[i].Clone()
	}
	p.mu.RUnlock()

	if err := s.backend.Save(conversationID, snapshot); err != nil {
		logger.Error("conversation_save_failed", "conversation", conversationID, "error", err)
		return false, fmt.Errorf("save conversation %s: %w", conversationID, err)
	}

	p.mu.Lock()
	if version > p.saved {
		p.saved = version
	}
	p.mu.Unlock()
	return true, nil
}

// repairThreads recomputes every root's reply count, participants and
// last reply time from the replies actually present.
func repairThreads(msgs []models.Message) {
	roots := make(map[string]int, len(msgs))
	for i := range msgs {
		roots[msgs[i].ID] = i
		msgs[i].ThreadReplyCount = 0
		msgs[i].ThreadParticipantIDs = nil
		msgs[i].ThreadLastReplyAt = nil
	}
	for i := range msgs {
		r := &msgs[i]
		if r.ThreadRootID == "" {
			continue
		}
		j, ok := roots[r.ThreadRootID]
		if !ok {
			continue
		}
		root := &msgs[j]
		root.ThreadReplyCount++
		if !containsString(root.ThreadParticipantIDs, r.SenderID) {
			root.ThreadParticipantIDs = append(root.ThreadParticipantIDs, r.SenderID)
		}
		if root.ThreadLastReplyAt == nil || r.SentAt.After(*root.ThreadLastReplyAt) {
			at := r.SentAt
			root.ThreadLastReplyAt = &at
		}
	}
}
