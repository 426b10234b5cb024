// Package kv holds the durable side of the message store: a Backend that
// saves and loads one conversation's full message list at a time.
package kv

import (
	"encoding/json"
	"errors"
	"fmt"

	"parley/pkg/models"
)

// ErrClosed is returned by a Backend used after Close.
var ErrClosed = errors.New("backend closed")

// Backend persists message lists keyed by conversation id. Load of an
// unknown conversation returns an empty list and no error.
type Backend interface {
	Load(conversationID string) ([]models.Message, error)
	Save(conversationID string, messages []models.Message) error
	Conversations() ([]string, error)
	Close() error
}

// MetaStore is implemented by backends that also keep per-conversation
// string metadata such as display names.
type MetaStore interface {
	GetName(conversationID string) (string, bool, error)
	SetName(conversationID, name string) error
	Names() (map[string]string, error)
}

func encodeMessages(messages []models.Message) ([]byte, error) {
	if messages == nil {
		messages = []models.Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return b, nil
}

func decodeMessages(b []byte) ([]models.Message, error) {
	var out []models.Message
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return out, nil
}
