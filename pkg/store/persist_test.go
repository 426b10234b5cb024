package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/pkg/models"
	"parley/pkg/store/kv"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	p, err := kv.OpenPebble(filepath.Join(t.TempDir(), "db"), kv.PebbleOptions{NoSync: true})
	require.NoError(t, err)
	defer p.Close()

	s, _ := newTestStore(t, WithBackend(p))
	root := send(s, "eng", "u1", "root")
	reply(s, "eng", root.ID, "u2")
	s.AddReaction("eng", root.ID, "👍", "u3")
	send(s, "ops", "u1", "other")

	n, err := s.SaveDirty()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.SaveDirty()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	fresh := New(WithBackend(p))
	require.NoError(t, fresh.LoadAll())
	assert.Equal(t, []string{"eng", "ops"}, fresh.Conversations())
	assert.Equal(t, s.GetForConversation("eng"), fresh.GetForConversation("eng"))
	assert.Equal(t, 0, fresh.Stats().Dirty)
}

func TestSaveDirtyAcceptsAnyConversationID(t *testing.T) {
	p, err := kv.OpenPebble(filepath.Join(t.TempDir(), "db"), kv.PebbleOptions{NoSync: true})
	require.NoError(t, err)
	defer p.Close()

	s, _ := newTestStore(t, WithBackend(p))
	send(s, "general chat", "u1", "hi")
	send(s, "room:42", "u2", "hey")

	n, err := s.SaveDirty()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, s.Stats().Dirty)

	fresh := New(WithBackend(p))
	require.NoError(t, fresh.LoadAll())
	assert.Equal(t, []string{"general chat", "room:42"}, fresh.Conversations())
	assert.Equal(t, s.GetForConversation("general chat"), fresh.GetForConversation("general chat"))
}

func TestLoadRepairsPersistedState(t *testing.T) {
	mem := kv.NewMemory()
	sent := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, mem.Save("c1", []models.Message{
		{ID: "root", ConversationID: "c1", SenderID: "u1", SentAt: sent, ThreadReplyCount: 9, ThreadParticipantIDs: []string{"x", "x"},
			Reactions: []models.Reaction{{Emoji: "👍", VoterIDs: []string{"u1", "u1"}, Count: 5}, {Emoji: "🎉", Count: 2}}},
		{ID: "r1", ConversationID: "c1", SenderID: "u2", SentAt: sent.Add(time.Minute), ThreadRootID: "root"},
		{ID: "r2", ConversationID: "c1", SenderID: "u2", SentAt: sent.Add(2 * time.Minute), ThreadRootID: "root", IsDeleted: true},
	}))

	s := New(WithBackend(mem))
	require.NoError(t, s.Load("c1"))
	root, ok := s.Lookup("c1", "root")
	require.True(t, ok)
	assert.Equal(t, 2, root.ThreadReplyCount)
	assert.Equal(t, []string{"u2"}, root.ThreadParticipantIDs)
	assert.Equal(t, sent.Add(2*time.Minute), *root.ThreadLastReplyAt)
	assert.Equal(t, []models.Reaction{{Emoji: "👍", VoterIDs: []string{"u1"}, Count: 1}}, root.Reactions)
}

func TestLoadRepairsPollVoters(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Save("c1", []models.Message{{
		ID: "p1", ConversationID: "c1", SenderID: "u1", Kind: models.KindPoll,
		Poll: &models.PollData{Question: "lunch?", Options: []models.PollOption{
			{ID: "a", Text: "pizza", VoterIDs: []string{"u2", "u2"}},
			{ID: "b", Text: "sushi", VoterIDs: []string{"u2", "u3"}},
			{ID: "a", Text: "pizza", VoterIDs: []string{"u4"}},
		}},
	}}))

	s := New(WithBackend(mem))
	require.NoError(t, s.Load("c1"))
	got, ok := s.Lookup("c1", "p1")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"a": "u2,u4", "b": "u3"}, voters(got))
	assert.Equal(t, 0, s.Stats().Dirty)
}

func TestLoadedConversationKeepsTimeMonotonic(t *testing.T) {
	mem := kv.NewMemory()
	late := t0.Add(24 * time.Hour)
	require.NoError(t, mem.Save("c1", []models.Message{{ID: "old", ConversationID: "c1", SentAt: late}}))
	s, _ := newTestStore(t, WithBackend(mem))
	require.NoError(t, s.Load("c1"))
	m := send(s, "c1", "u1", "after load")
	assert.Equal(t, late, m.SentAt)
}

func TestMutationsMarkDirty(t *testing.T) {
	s, _ := newTestStore(t)
	m := send(s, "c1", "u1", "x")
	_, err := s.SaveDirty()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Stats().Dirty)

	// no-op mutations leave the conversation clean
	s.Unpin("c1", m.ID)
	s.RemoveReaction("c1", m.ID, "👍", "u1")
	assert.Equal(t, 0, s.Stats().Dirty)

	s.Pin("c1", m.ID)
	assert.Equal(t, 1, s.Stats().Dirty)
	require.NoError(t, s.Save("c1"))
	assert.Equal(t, 0, s.Stats().Dirty)
}

type failingBackend struct{ kv.Backend }

var errDisk = errors.New("disk on fire")

func (failingBackend) Save(string, []models.Message) error { return errDisk }

func TestSaveDirtyReportsFailures(t *testing.T) {
	s, _ := newTestStore(t, WithBackend(failingBackend{kv.NewMemory()}))
	send(s, "c1", "u1", "x")
	send(s, "c2", "u1", "y")
	n, err := s.SaveDirty()
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, errDisk)
	assert.Equal(t, 2, s.Stats().Dirty)
}

func TestSaveUnknownConversation(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.Save("ghost"))
}
