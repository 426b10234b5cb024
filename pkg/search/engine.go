package search

import (
	"sort"
	"strings"
	"time"

	"parley/pkg/logger"
	"parley/pkg/models"
)

// Source is the read side of a message store.
type Source interface {
	Conversations() []string
	GetForConversation(conversationID string) []models.Message
}

// DisplayNameLookup resolves a conversation id to its display name. An
// empty result falls back to the id itself.
type DisplayNameLookup func(conversationID string) string

// Has vocabulary.
const (
	HasReaction = "reaction"
	HasLink     = "link"
	HasFile     = "file"
	HasPin      = "pin"
)

// Engine evaluates queries against a Source.
type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Query parses raw and runs it.
func (e *Engine) Query(raw string, lookup DisplayNameLookup) []models.SearchResult {
	q := ParseQuery(raw)
	return e.Search(q.FreeText, q.Filter, lookup)
}

// Search returns every non-deleted message matching freeText and filter,
// newest first.
func (e *Engine) Search(freeText string, filter models.SearchFilter, lookup DisplayNameLookup) []models.SearchResult {
	m := newMatcher(freeText, filter)
	var out []models.SearchResult
	for _, cid := range e.src.Conversations() {
		name := displayName(lookup, cid)
		if filter.In != "" && !containsFold(name, filter.In) {
			continue
		}
		for _, msg := range e.src.GetForConversation(cid) {
			if !m.match(&msg) {
				continue
			}
			res := models.SearchResult{Message: msg, ConversationDisplayName: name, Highlights: []string{}}
			if freeText != "" {
				res.Highlights = []string{Highlight(msg.Content, freeText)}
			}
			out = append(out, res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Message.SentAt.After(out[j].Message.SentAt)
	})
	logger.Debug("search_done", "free_text", freeText, "filter", filter, "results", len(out))
	return out
}

func displayName(lookup DisplayNameLookup, cid string) string {
	if lookup != nil {
		if n := lookup(cid); n != "" {
			return n
		}
	}
	return cid
}

type matcher struct {
	freeText string
	from     string
	has      string
	before   *time.Time
	after    *time.Time
}

func newMatcher(freeText string, f models.SearchFilter) matcher {
	m := matcher{freeText: freeText, from: f.From, has: f.Has}
	if t, ok := ParseDate(f.Before); ok {
		m.before = &t
	}
	if t, ok := ParseDate(f.After); ok {
		m.after = &t
	}
	return m
}

func (m matcher) match(msg *models.Message) bool {
	if msg.IsDeleted {
		return false
	}
	if m.freeText != "" && !containsFold(msg.Content, m.freeText) {
		return false
	}
	if m.from != "" && !containsFold(msg.SenderDisplayName, m.from) && !containsFold(msg.SenderID, m.from) {
		return false
	}
	if m.has != "" && !hasMatch(msg, m.has) {
		return false
	}
	if m.before != nil && !msg.SentAt.Before(*m.before) {
		return false
	}
	if m.after != nil && !msg.SentAt.After(*m.after) {
		return false
	}
	return true
}

// hasMatch is case-sensitive on the vocabulary; unknown values match
// nothing.
func hasMatch(msg *models.Message, has string) bool {
	switch has {
	case HasReaction:
		return len(msg.Reactions) > 0
	case HasLink:
		return strings.Contains(msg.Content, "http")
	case HasFile:
		return len(msg.Attachments) > 0
	case HasPin:
		return msg.IsPinned
	default:
		return false
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

// ParseDate accepts RFC 3339, a zone-less timestamp (read as UTC) or a
// bare date (UTC midnight). Anything else reports false.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func containsFold(s, sub string) bool {
	return indexFold([]rune(s), []rune(sub)) >= 0
}
