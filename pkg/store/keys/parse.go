package keys

import (
	"fmt"
	"strings"
)

// Kind of a parsed conversation key.
type Kind int

const (
	KindMessages Kind = iota + 1
	KindName
)

type ConversationKeyParts struct {
	ConversationID string
	Kind           Kind
}

// ParseConversationKey splits a c:<id>:<suffix> key and decodes the id.
func ParseConversationKey(key string) (*ConversationKeyParts, error) {
	rest, ok := strings.CutPrefix(key, ConversationPrefix)
	i := strings.LastIndexByte(rest, ':')
	if !ok || i < 0 {
		return nil, fmt.Errorf("invalid conversation key: %q", key)
	}
	var (
		k   Kind
		err error
	)
	switch rest[i+1:] {
	case "msgs":
		k, err = KindMessages, ValidateMessagesKey(key)
	case "name":
		k, err = KindName, ValidateNameKey(key)
	default:
		return nil, fmt.Errorf("unknown conversation key suffix %q in %q", rest[i+1:], key)
	}
	if err != nil {
		return nil, err
	}
	id, err := UnescapeID(rest[:i])
	if err != nil {
		return nil, err
	}
	return &ConversationKeyParts{ConversationID: id, Kind: k}, nil
}
