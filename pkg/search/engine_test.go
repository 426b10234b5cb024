package search

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/pkg/models"
)

type fixture map[string][]models.Message

func (f fixture) Conversations() []string {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f fixture) GetForConversation(id string) []models.Message { return f[id] }

var names = map[string]string{"c-eng": "Engineering", "c-mkt": "Marketing"}

func lookup(id string) string { return names[id] }

var base = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func newFixture() fixture {
	thumbs := []models.Reaction{{Emoji: "👍", VoterIDs: []string{"u9"}, Count: 1}}
	return fixture{
		"c-eng": {
			{ID: "m1", ConversationID: "c-eng", SenderID: "u1", SenderDisplayName: "Jordan Lee", Content: "The Database migration is done", SentAt: base, Reactions: thumbs},
			{ID: "m2", ConversationID: "c-eng", SenderID: "u1", SenderDisplayName: "Jordan Lee", Content: "database backups look fine", SentAt: base.Add(time.Minute)},
			{ID: "m3", ConversationID: "c-eng", SenderID: "u2", SenderDisplayName: "Riley", Content: "database is slow", SentAt: base.Add(2 * time.Minute), Reactions: thumbs},
			{ID: "m4", ConversationID: "c-eng", SenderID: "u1", SenderDisplayName: "Jordan Lee", Content: "dropping the database", SentAt: base.Add(3 * time.Minute), Reactions: thumbs, IsDeleted: true},
		},
		"c-mkt": {
			{ID: "m5", ConversationID: "c-mkt", SenderID: "u1", SenderDisplayName: "Jordan Lee", Content: "database of leads", SentAt: base.Add(4 * time.Minute), Reactions: thumbs},
		},
	}
}

func ids(results []models.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Message.ID
	}
	return out
}

func TestSearchRoundTrip(t *testing.T) {
	e := NewEngine(newFixture())
	got := e.Query("database from:jordan in:engineering has:reaction", lookup)
	require.Equal(t, []string{"m1"}, ids(got))
	assert.Equal(t, "Engineering", got[0].ConversationDisplayName)
	assert.Equal(t, []string{"The Database migration is done"}, got[0].Highlights)
}

func TestSearchOrdersNewestFirst(t *testing.T) {
	e := NewEngine(newFixture())
	got := e.Search("database", models.SearchFilter{}, lookup)
	assert.Equal(t, []string{"m5", "m3", "m2", "m1"}, ids(got))
}

func TestSearchFilters(t *testing.T) {
	e := NewEngine(newFixture())
	tests := []struct {
		name   string
		filter models.SearchFilter
		want   []string
	}{
		{"from matches sender id", models.SearchFilter{From: "U2"}, []string{"m3"}},
		{"in is substring", models.SearchFilter{In: "market"}, []string{"m5"}},
		{"unknown has matches nothing", models.SearchFilter{Has: "video"}, nil},
		{"before is strict", models.SearchFilter{Before: base.Add(time.Minute).Format(time.RFC3339)}, []string{"m1"}},
		{"after is strict", models.SearchFilter{After: base.Add(2 * time.Minute).Format(time.RFC3339)}, []string{"m5"}},
		{"malformed date ignored", models.SearchFilter{After: "last tuesday"}, []string{"m5", "m3", "m2", "m1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Search("", tc.filter, lookup)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, ids(got))
			for _, r := range got {
				assert.Empty(t, r.Highlights)
			}
		})
	}
}

func TestSearchHasVocabulary(t *testing.T) {
	f := fixture{"c": {
		{ID: "link", Content: "see https://example.com", SentAt: base},
		{ID: "file", Content: "report", Attachments: []models.Attachment{{ID: "a1"}}, SentAt: base.Add(time.Second)},
		{ID: "pin", Content: "rules", IsPinned: true, SentAt: base.Add(2 * time.Second)},
	}}
	e := NewEngine(f)
	for _, has := range []string{HasLink, HasFile, HasPin} {
		got := e.Search("", models.SearchFilter{Has: has}, nil)
		assert.Equal(t, []string{has}, ids(got), has)
	}
}

func TestSearchFallsBackToConversationID(t *testing.T) {
	e := NewEngine(newFixture())
	got := e.Search("", models.SearchFilter{In: "c-mkt"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "c-mkt", got[0].ConversationDisplayName)
}

func TestHighlight(t *testing.T) {
	long := "0123456789012345678901234567890123456789 NEEDLE 0123456789012345678901234567890123456789"
	tests := []struct {
		content, term, want string
	}{
		{"short needle text", "NEEDLE", "short needle text"},
		{long, "needle", "...12345678901234567890123456789 NEEDLE 01234567890123456789012345678..."},
		{"naïve café au lait", "CAFÉ", "naïve café au lait"},
	}
	for _, tc := range tests {
		if got := Highlight(tc.content, tc.term); got != tc.want {
			t.Fatalf("Highlight(%q, %q) = %q, want %q", tc.content, tc.term, got, tc.want)
		}
	}
}
