package models

import "fmt"

// MessageKind classifies a message's content.
type MessageKind uint8

const (
	KindText MessageKind = iota
	KindSystem
	KindFileShare
	KindPoll
	KindFormResponse
	KindAgentAction
)

var messageKindNames = [...]string{
	KindText:         "text",
	KindSystem:       "system",
	KindFileShare:    "file_share",
	KindPoll:         "poll",
	KindFormResponse: "form_response",
	KindAgentAction:  "agent_action",
}

func (k MessageKind) Valid() bool { return int(k) < len(messageKindNames) }

func (k MessageKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("MessageKind(%d)", uint8(k))
	}
	return messageKindNames[k]
}

func (k MessageKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid message kind %d", uint8(k))
	}
	return []byte(messageKindNames[k]), nil
}

func (k *MessageKind) UnmarshalText(b []byte) error {
	v, err := ParseMessageKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseMessageKind maps a wire name to a MessageKind. The empty string is
// text.
func ParseMessageKind(s string) (MessageKind, error) {
	if s == "" {
		return KindText, nil
	}
	for i, name := range messageKindNames {
		if name == s {
			return MessageKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown message kind %q", s)
}

// ConversationKind tells channels from direct messages.
type ConversationKind uint8

const (
	Channel ConversationKind = iota
	DirectMessage
	GroupDirectMessage
)

var conversationKindNames = [...]string{
	Channel:            "channel",
	DirectMessage:      "dm",
	GroupDirectMessage: "group_dm",
}

func (k ConversationKind) Valid() bool { return int(k) < len(conversationKindNames) }

func (k ConversationKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("ConversationKind(%d)", uint8(k))
	}
	return conversationKindNames[k]
}

func (k ConversationKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid conversation kind %d", uint8(k))
	}
	return []byte(conversationKindNames[k]), nil
}

func (k *ConversationKind) UnmarshalText(b []byte) error {
	v, err := ParseConversationKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseConversationKind maps a wire name to a ConversationKind. The empty
// string is a channel.
func ParseConversationKind(s string) (ConversationKind, error) {
	if s == "" {
		return Channel, nil
	}
	for i, name := range conversationKindNames {
		if name == s {
			return ConversationKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown conversation kind %q", s)
}
