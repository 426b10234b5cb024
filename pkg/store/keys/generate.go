package keys

import (
	"fmt"
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

func GenMessagesKey(conversationID string) string {
	return fmt.Sprintf(MessagesKey, EscapeID(conversationID))
}

func GenNameKey(conversationID string) string {
	return fmt.Sprintf(NameKey, EscapeID(conversationID))
}

// EscapeID percent-encodes every byte outside [A-Za-z0-9._-] so that any
// conversation id fits in a single key segment. Ids made only of those
// bytes come back unchanged.
func EscapeID(id string) string {
	n := 0
	for i := 0; i < len(id); i++ {
		if !safeByte(id[i]) {
			n++
		}
	}
	if n == 0 {
		return id
	}
	var b strings.Builder
	b.Grow(len(id) + 2*n)
	for i := 0; i < len(id); i++ {
		c := id[i]
		if safeByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// UnescapeID reverses EscapeID.
func UnescapeID(segment string) (string, error) {
	id, err := url.PathUnescape(segment)
	if err != nil {
		return "", fmt.Errorf("%w: key segment %q: %v", ErrInvalidID, segment, err)
	}
	return id, nil
}

func safeByte(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '.' || c == '_' || c == '-'
}
