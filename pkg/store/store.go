// Package store is the conversation-partitioned message store.
//
// Every conversation is a partition with its own lock: mutations on one
// conversation are serialized, different conversations proceed in
// parallel. Messages are never physically removed; Delete leaves a
// tombstone. Reads hand out deep copies.
//
// Operations that reference a missing conversation or message are silent
// no-ops (logged at debug). Mutations report whether the target existed so
// callers that need stricter behaviour can act on it.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"parley/pkg/models"
	"parley/pkg/store/kv"
	"parley/pkg/timeutil"
)

type partition struct {
	mu       sync.RWMutex
	messages []models.Message
	index    map[string]int // message id -> position in messages
	lastSent time.Time

	version uint64 // bumped on every mutation
	saved   uint64 // version last written to the backend
}

func newPartition() *partition {
	return &partition{index: make(map[string]int)}
}

func (p *partition) get(id string) *models.Message {
	i, ok := p.index[id]
	if !ok {
		return nil
	}
	return &p.messages[i]
}

func (p *partition) add(m models.Message) {
	p.index[m.ID] = len(p.messages)
	p.messages = append(p.messages, m)
	if m.SentAt.After(p.lastSent) {
		p.lastSent = m.SentAt
	}
}

func (p *partition) reset(messages []models.Message) {
	p.messages = messages
	p.index = make(map[string]int, len(messages))
	p.lastSent = time.Time{}
	for i, m := range messages {
		p.index[m.ID] = i
		if m.SentAt.After(p.lastSent) {
			p.lastSent = m.SentAt
		}
	}
}

func (p *partition) dirty() bool { return p.version != p.saved }

// Store holds all conversations. Create one with New.
type Store struct {
	mu      sync.RWMutex
	parts   map[string]*partition
	clock   timeutil.Clock
	backend kv.Backend
	newID   func() string
}

type Option func(*Store)

func WithClock(c timeutil.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithBackend sets where Load and Save read and write. The default is an
// in-memory backend.
func WithBackend(b kv.Backend) Option {
	return func(s *Store) { s.backend = b }
}

// WithIDGenerator replaces the uuid generator for new message ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func New(opts ...Option) *Store {
	s := &Store{
		parts: make(map[string]*partition),
		clock: timeutil.System,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.backend == nil {
		s.backend = kv.NewMemory()
	}
	return s
}

// Backend returns the backend the store persists to.
func (s *Store) Backend() kv.Backend { return s.backend }

func (s *Store) partition(conversationID string) *partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parts[conversationID]
}

func (s *Store) partitionOrCreate(conversationID string) *partition {
	if p := s.partition(conversationID); p != nil {
		return p
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.parts[conversationID]; ok {
		return p
	}
	p := newPartition()
	s.parts[conversationID] = p
	return p
}

// sentAt returns the clock time, held back so that it never precedes the
// newest message already in p.
func (s *Store) sentAt(p *partition) time.Time {
	now := s.clock.Now()
	if now.Before(p.lastSent) {
		return p.lastSent
	}
	return now
}

// Conversations returns the ids of all known conversations, sorted.
func (s *Store) Conversations() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.parts))
	for id := range s.parts {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Stats is a point-in-time summary used by metrics.
type Stats struct {
	Conversations int
	Messages      int
	Dirty         int
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	parts := make([]*partition, 0, len(s.parts))
	for _, p := range s.parts {
		parts = append(parts, p)
	}
	s.mu.RUnlock()

	st := Stats{Conversations: len(parts)}
	for _, p := range parts {
		p.mu.RLock()
		st.Messages += len(p.messages)
		if p.dirty() {
			st.Dirty++
		}
		p.mu.RUnlock()
	}
	return st
}
