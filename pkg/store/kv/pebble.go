package kv

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/pebble"

	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/store/keys"
)

// PebbleOptions configures OpenPebble.
type PebbleOptions struct {
	// ReadOnly opens an existing database for inspection.
	ReadOnly bool
	// NoSync skips fsync on writes. Only for tests and benchmarks.
	NoSync bool
}

// Pebble is a Backend on a pebble database using the c:<id>:msgs and
// c:<id>:name key layout. Ids are stored through keys.EscapeID, so any
// conversation id can be saved.
type Pebble struct {
	mu   sync.RWMutex
	db   *pebble.DB
	path string
	wo   *pebble.WriteOptions
}

// OpenPebble opens (or creates) the database at path.
func OpenPebble(path string, o PebbleOptions) (*Pebble, error) {
	db, err := pebble.Open(path, &pebble.Options{ReadOnly: o.ReadOnly})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	p := &Pebble{db: db, path: path, wo: pebble.Sync}
	if o.NoSync {
		p.wo = pebble.NoSync
	}
	if !o.ReadOnly {
		if err := p.ensureVersion(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	logger.Debug("pebble_opened", "path", path, "read_only", o.ReadOnly)
	return p, nil
}

func (p *Pebble) ensureVersion() error {
	v, err := p.get(keys.SystemVersionKey)
	if err != nil && !IsNotFound(err) {
		return err
	}
	if err == nil {
		if string(v) != keys.SchemaVersion {
			return fmt.Errorf("unsupported schema version %q (want %s)", v, keys.SchemaVersion)
		}
		return nil
	}
	return p.db.Set([]byte(keys.SystemVersionKey), []byte(keys.SchemaVersion), p.wo)
}

// Path returns the directory the database was opened from.
func (p *Pebble) Path() string { return p.path }

func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

func (p *Pebble) client() (*pebble.DB, error) {
	if p.db == nil {
		return nil, ErrClosed
	}
	return p.db, nil
}

func (p *Pebble) get(key string) ([]byte, error) {
	db, err := p.client()
	if err != nil {
		return nil, err
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		if IsNotFound(err) {
			logger.Debug("get_key_missing", "key", key)
		} else {
			logger.Error("get_key_failed", "key", key, "error", err)
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (p *Pebble) set(key string, value []byte) error {
	db, err := p.client()
	if err != nil {
		return err
	}
	if err := db.Set([]byte(key), value, p.wo); err != nil {
		logger.Error("save_key_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("save_key_ok", "key", key, "len", len(value))
	return nil
}

func (p *Pebble) Load(conversationID string) ([]models.Message, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, err := p.get(keys.GenMessagesKey(conversationID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", conversationID, err)
	}
	return decodeMessages(v)
}

func (p *Pebble) Save(conversationID string, messages []models.Message) error {
	b, err := encodeMessages(messages)
	if err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.set(keys.GenMessagesKey(conversationID), b); err != nil {
		return fmt.Errorf("save %s: %w", conversationID, err)
	}
	return nil
}

// Conversations lists every conversation that has a saved message list.
func (p *Pebble) Conversations() ([]string, error) {
	var out []string
	err := p.Scan(keys.ConversationPrefix, func(k, _ []byte) error {
		parts, err := keys.ParseConversationKey(string(k))
		if err != nil {
			logger.Warn("unknown_conversation_key", "key", string(k), "error", err)
			return nil
		}
		if parts.Kind == keys.KindMessages {
			out = append(out, parts.ConversationID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (p *Pebble) GetName(conversationID string) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, err := p.get(keys.GenNameKey(conversationID))
	if err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(v), true, nil
}

func (p *Pebble) SetName(conversationID, name string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set(keys.GenNameKey(conversationID), []byte(name))
}

func (p *Pebble) Names() (map[string]string, error) {
	out := make(map[string]string)
	err := p.Scan(keys.ConversationPrefix, func(k, v []byte) error {
		parts, err := keys.ParseConversationKey(string(k))
		if err != nil {
			return nil
		}
		if parts.Kind == keys.KindName {
			out[parts.ConversationID] = string(v)
		}
		return nil
	})
	return out, err
}

// Scan calls fn for every key with the given prefix, in key order. The
// slices passed to fn are only valid for the duration of the call.
func (p *Pebble) Scan(prefix string, fn func(key, value []byte) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, err := p.client()
	if err != nil {
		return err
	}
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: prefixEnd([]byte(prefix)),
	})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close flushes and closes the database. Calling it twice is safe.
func (p *Pebble) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
