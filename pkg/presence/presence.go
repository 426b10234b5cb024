// Package presence tracks who is typing in which conversation.
//
// Facts are plain data stamped with the time typing started. Nothing here
// runs timers: stale facts stay until SweepStale is called, which the
// server does on a fixed interval.
package presence

import (
	"sort"
	"sync"

	"parley/pkg/models"
	"parley/pkg/timeutil"
)

// DefaultTTLMillis is how long a typing fact lives without a refresh.
const DefaultTTLMillis int64 = 10_000

type factKey struct {
	user, conversation string
}

// Tracker holds typing facts keyed by (user, conversation).
type Tracker struct {
	mu    sync.RWMutex
	facts map[factKey]models.TypingFact
	clock timeutil.Clock

	subMu  sync.Mutex
	subs   map[int]func(conversationID string)
	nextID int
}

type Option func(*Tracker)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c timeutil.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		facts: make(map[factKey]models.TypingFact),
		clock: timeutil.System,
		subs:  make(map[int]func(string)),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Tracker) nowMillis() int64 {
	return t.clock.Now().UnixMilli()
}

// StartTyping records that userID is typing in conversationID, or refreshes
// the existing fact.
func (t *Tracker) StartTyping(userID, displayName, conversationID string) {
	k := factKey{userID, conversationID}
	t.mu.Lock()
	t.facts[k] = models.TypingFact{
		UserID:          userID,
		UserDisplayName: displayName,
		ConversationID:  conversationID,
		StartedAtMillis: t.nowMillis(),
	}
	t.mu.Unlock()
	t.notify(conversationID)
}

// StopTyping removes the fact for (userID, conversationID) if there is one.
func (t *Tracker) StopTyping(userID, conversationID string) {
	k := factKey{userID, conversationID}
	t.mu.Lock()
	_, ok := t.facts[k]
	delete(t.facts, k)
	t.mu.Unlock()
	if ok {
		t.notify(conversationID)
	}
}

// GetTyping returns the facts for conversationID ordered by start time.
func (t *Tracker) GetTyping(conversationID string) []models.TypingFact {
	t.mu.RLock()
	out := []models.TypingFact{}
	for k, f := range t.facts {
		if k.conversation == conversationID {
			out = append(out, f)
		}
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAtMillis != out[j].StartedAtMillis {
			return out[i].StartedAtMillis < out[j].StartedAtMillis
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Len returns the number of live facts across all conversations.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.facts)
}

// SweepStale drops every fact older than ttlMillis at nowMillis and
// returns how many were dropped. A non-positive ttl uses DefaultTTLMillis.
// The set is rebuilt and swapped in whole under the write lock.
func (t *Tracker) SweepStale(nowMillis, ttlMillis int64) int {
	if ttlMillis <= 0 {
		ttlMillis = DefaultTTLMillis
	}
	t.mu.Lock()
	kept := make(map[factKey]models.TypingFact, len(t.facts))
	changed := make(map[string]struct{})
	for k, f := range t.facts {
		if nowMillis-f.StartedAtMillis > ttlMillis {
			changed[k.conversation] = struct{}{}
			continue
		}
		kept[k] = f
	}
	removed := len(t.facts) - len(kept)
	t.facts = kept
	t.mu.Unlock()

	for cid := range changed {
		t.notify(cid)
	}
	return removed
}

// Sweep is SweepStale against the tracker's own clock.
func (t *Tracker) Sweep(ttlMillis int64) int {
	return t.SweepStale(t.nowMillis(), ttlMillis)
}

// Subscribe registers fn to be called with a conversation id whenever that
// conversation's typing set changes. Callbacks run on the caller's
// goroutine with no locks held. The returned func unregisters fn.
func (t *Tracker) Subscribe(fn func(conversationID string)) (cancel func()) {
	t.subMu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.subMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			t.subMu.Lock()
			delete(t.subs, id)
			t.subMu.Unlock()
		})
	}
}

func (t *Tracker) notify(conversationID string) {
	t.subMu.Lock()
	fns := make([]func(string), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.subMu.Unlock()
	for _, fn := range fns {
		fn(conversationID)
	}
}
