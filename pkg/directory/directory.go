// Package directory keeps conversation display names. Search uses it to
// resolve the in: filter and to label results.
package directory

import (
	"fmt"
	"sort"
	"sync"

	"parley/pkg/logger"
	"parley/pkg/store/kv"
)

// Directory maps conversation ids to display names. When built over a
// MetaStore, names are written through and can be reloaded.
type Directory struct {
	mu    sync.RWMutex
	names map[string]string
	meta  kv.MetaStore
}

// New returns a Directory. meta may be nil for a purely in-memory one.
func New(meta kv.MetaStore) *Directory {
	return &Directory{names: make(map[string]string), meta: meta}
}

// FromBackend uses b's metadata support when it has any.
func FromBackend(b kv.Backend) *Directory {
	meta, _ := b.(kv.MetaStore)
	return New(meta)
}

// Load replaces the in-memory names with the persisted ones.
func (d *Directory) Load() error {
	if d.meta == nil {
		return nil
	}
	names, err := d.meta.Names()
	if err != nil {
		return fmt.Errorf("load display names: %w", err)
	}
	d.mu.Lock()
	d.names = names
	d.mu.Unlock()
	logger.Debug("display_names_loaded", "count", len(names))
	return nil
}

// SetName records name for conversationID, persisting it first when a
// MetaStore is attached.
func (d *Directory) SetName(conversationID, name string) error {
	if d.meta != nil {
		if err := d.meta.SetName(conversationID, name); err != nil {
			return fmt.Errorf("set display name for %s: %w", conversationID, err)
		}
	}
	d.mu.Lock()
	d.names[conversationID] = name
	d.mu.Unlock()
	return nil
}

// Name returns the display name, or "" when none is set.
func (d *Directory) Name(conversationID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.names[conversationID]
}

// Lookup is Name, shaped to plug into search.
func (d *Directory) Lookup() func(string) string {
	return d.Name
}

// Entry pairs an id with its display name.
type Entry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// List returns all named conversations ordered by id.
func (d *Directory) List() []Entry {
	d.mu.RLock()
	out := make([]Entry, 0, len(d.names))
	for id, n := range d.names {
		out = append(out, Entry{ID: id, DisplayName: n})
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
