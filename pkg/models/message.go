package models

import "time"

type Message struct {
	ID               string           `json:"id"`
	ConversationID   string           `json:"conversation_id"`
	ConversationKind ConversationKind `json:"conversation_kind"`

	// sender identity is captured at send time so history survives
	// profile changes
	SenderID          string `json:"sender_id"`
	SenderDisplayName string `json:"sender_display_name"`
	SenderAvatarRef   string `json:"sender_avatar_ref,omitempty"`

	Content string      `json:"content"`
	Kind    MessageKind `json:"kind"`

	SentAt   time.Time  `json:"sent_at"`
	EditedAt *time.Time `json:"edited_at,omitempty"`
	IsEdited bool       `json:"is_edited,omitempty"`

	// IsDeleted marks a tombstone; the message stays in storage.
	IsDeleted bool `json:"is_deleted,omitempty"`

	// ThreadRootID is set on replies. The thread aggregates below live on
	// the root only.
	ThreadRootID         string     `json:"thread_root_id,omitempty"`
	ThreadReplyCount     int        `json:"thread_reply_count,omitempty"`
	ThreadParticipantIDs []string   `json:"thread_participant_ids,omitempty"`
	ThreadLastReplyAt    *time.Time `json:"thread_last_reply_at,omitempty"`

	Reactions []Reaction `json:"reactions,omitempty"`

	IsPinned     bool `json:"is_pinned,omitempty"`
	IsBookmarked bool `json:"is_bookmarked,omitempty"`

	Attachments    []Attachment    `json:"attachments,omitempty"`
	Mentions       []string        `json:"mentions,omitempty"`
	Poll           *PollData       `json:"poll,omitempty"`
	CrossModuleRef *CrossModuleRef `json:"cross_module_ref,omitempty"`
}

// Reaction aggregates the votes for one emoji. Count always equals
// len(VoterIDs).
type Reaction struct {
	Emoji    string   `json:"emoji"`
	VoterIDs []string `json:"voter_ids"`
	Count    int      `json:"count"`
}

// Attachment is an opaque file reference.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// CrossModuleRef points at an entity owned by another subsystem.
type CrossModuleRef struct {
	Module   string `json:"module"`
	EntityID string `json:"entity_id"`
}

// IsThreadReply reports whether m belongs to a thread.
func (m *Message) IsThreadReply() bool { return m.ThreadRootID != "" }

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	out := m
	if m.EditedAt != nil {
		t := *m.EditedAt
		out.EditedAt = &t
	}
	if m.ThreadLastReplyAt != nil {
		t := *m.ThreadLastReplyAt
		out.ThreadLastReplyAt = &t
	}
	out.ThreadParticipantIDs = cloneStrings(m.ThreadParticipantIDs)
	if m.Reactions != nil {
		out.Reactions = make([]Reaction, len(m.Reactions))
		for i, r := range m.Reactions {
			out.Reactions[i] = Reaction{Emoji: r.Emoji, VoterIDs: cloneStrings(r.VoterIDs), Count: r.Count}
		}
	}
	if m.Attachments != nil {
		out.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	out.Mentions = cloneStrings(m.Mentions)
	if m.Poll != nil {
		p := m.Poll.Clone()
		out.Poll = &p
	}
	if m.CrossModuleRef != nil {
		ref := *m.CrossModuleRef
		out.CrossModuleRef = &ref
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
