package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsEncodeAsNames(t *testing.T) {
	m := Message{ID: "m1", Kind: KindFormResponse, ConversationKind: GroupDirectMessage}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"kind":"form_response"`)
	assert.Contains(t, string(b), `"conversation_kind":"group_dm"`)

	var back Message
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, KindFormResponse, back.Kind)
	assert.Equal(t, GroupDirectMessage, back.ConversationKind)
}

func TestUnknownKindRejected(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"kind":"carrier_pigeon"}`), &m)
	if err == nil || !strings.Contains(err.Error(), "unknown message kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
	if _, err := MessageKind(200).MarshalText(); err == nil {
		t.Fatalf("expected error marshalling out-of-range kind")
	}
	if s := MessageKind(200).String(); s != "MessageKind(200)" {
		t.Fatalf("String() = %q", s)
	}
}

func TestEmptyKindDefaults(t *testing.T) {
	k, err := ParseMessageKind("")
	require.NoError(t, err)
	assert.Equal(t, KindText, k)
	ck, err := ParseConversationKind("")
	require.NoError(t, err)
	assert.Equal(t, Channel, ck)
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	orig := Message{
		ID:                   "m1",
		EditedAt:             &now,
		ThreadParticipantIDs: []string{"u1"},
		Reactions:            []Reaction{{Emoji: "👍", VoterIDs: []string{"u1"}, Count: 1}},
		Mentions:             []string{"u2"},
		Attachments:          []Attachment{{ID: "f1"}},
		Poll: &PollData{
			Question: "lunch?",
			Options:  []PollOption{{ID: "a", Text: "yes", VoterIDs: []string{"u3"}}},
			ClosesAt: &now,
		},
		CrossModuleRef: &CrossModuleRef{Module: "tasks", EntityID: "t1"},
	}
	c := orig.Clone()
	c.ThreadParticipantIDs[0] = "x"
	c.Reactions[0].VoterIDs[0] = "x"
	c.Mentions[0] = "x"
	c.Attachments[0].ID = "x"
	c.Poll.Options[0].VoterIDs[0] = "x"
	*c.EditedAt = now.Add(time.Hour)
	*c.Poll.ClosesAt = now.Add(time.Hour)
	c.CrossModuleRef.EntityID = "x"

	assert.Equal(t, "u1", orig.ThreadParticipantIDs[0])
	assert.Equal(t, "u1", orig.Reactions[0].VoterIDs[0])
	assert.Equal(t, "u2", orig.Mentions[0])
	assert.Equal(t, "f1", orig.Attachments[0].ID)
	assert.Equal(t, "u3", orig.Poll.Options[0].VoterIDs[0])
	assert.True(t, orig.EditedAt.Equal(now))
	assert.True(t, orig.Poll.ClosesAt.Equal(now))
	assert.Equal(t, "t1", orig.CrossModuleRef.EntityID)
}

func TestPollHelpers(t *testing.T) {
	closes := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &PollData{Options: []PollOption{{ID: "a"}, {ID: "b"}}, ClosesAt: &closes}
	assert.Equal(t, 1, p.Option("b"))
	assert.Equal(t, -1, p.Option("zz"))
	assert.False(t, p.Closed(closes.Add(-time.Second)))
	assert.True(t, p.Closed(closes))
	assert.False(t, (&PollData{}).Closed(closes))
}

func TestPollNormalize(t *testing.T) {
	p := &PollData{Options: []PollOption{
		{ID: "a", Text: "Park", VoterIDs: []string{"x", "x"}},
		{ID: "b", Text: "Beach", VoterIDs: []string{"x", "y"}},
		{ID: "a", Text: "Park again", VoterIDs: []string{"z"}},
	}}
	p.Normalize()
	require.Len(t, p.Options, 2)
	assert.Equal(t, "Park", p.Options[0].Text)
	assert.Equal(t, []string{"x", "z"}, p.Options[0].VoterIDs)
	assert.Equal(t, []string{"y"}, p.Options[1].VoterIDs)

	multi := &PollData{AllowMultiple: true, Options: []PollOption{
		{ID: "a", VoterIDs: []string{"x"}},
		{ID: "b", VoterIDs: []string{"x", "x"}},
	}}
	multi.Normalize()
	assert.Equal(t, []string{"x"}, multi.Options[1].VoterIDs)

	multi.ClearVotes()
	assert.Nil(t, multi.Options[0].VoterIDs)
	assert.Nil(t, multi.Options[1].VoterIDs)
}

func TestSearchFilterIsEmpty(t *testing.T) {
	assert.True(t, SearchFilter{}.IsEmpty())
	assert.False(t, SearchFilter{Has: "pin"}.IsEmpty())
}
