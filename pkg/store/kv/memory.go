package kv

import (
	"sort"
	"sync"

	"parley/pkg/models"
)

// Memory is a Backend kept in process memory. Lists are stored encoded so
// that loads never share state with earlier saves.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	names  map[string]string
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte), names: make(map[string]string)}
}

func (m *Memory) Load(conversationID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	b, ok := m.data[conversationID]
	if !ok {
		return nil, nil
	}
	return decodeMessages(b)
}

func (m *Memory) Save(conversationID string, messages []models.Message) error {
	b, err := encodeMessages(messages)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[conversationID] = b
	return nil
}

func (m *Memory) Conversations() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]string, 0, len(m.data))
	for id := range m.data {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) GetName(conversationID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	n, ok := m.names[conversationID]
	return n, ok, nil
}

func (m *Memory) SetName(conversationID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.names[conversationID] = name
	return nil
}

func (m *Memory) Names() (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make(map[string]string, len(m.names))
	for k, v := range m.names {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
