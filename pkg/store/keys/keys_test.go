package keys

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateAndParse(t *testing.T) {
	k := GenMessagesKey("eng.general")
	if k != "c:eng.general:msgs" {
		t.Fatalf("unexpected key %q", k)
	}
	if err := ValidateMessagesKey(k); err != nil {
		t.Fatalf("validate: %v", err)
	}
	p, err := ParseConversationKey(k)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.ConversationID != "eng.general" || p.Kind != KindMessages {
		t.Fatalf("unexpected parts %+v", p)
	}

	n := GenNameKey("dm_1-2")
	if err := ValidateNameKey(n); err != nil {
		t.Fatalf("validate name: %v", err)
	}
	p, err = ParseConversationKey(n)
	if err != nil || p.Kind != KindName {
		t.Fatalf("parse name: %+v %v", p, err)
	}
}

func TestValidateConversationID(t *testing.T) {
	good := []string{"a", "eng-general", "A.b_c-1", strings.Repeat("x", 256)}
	bad := []string{"", "has space", "c:1", "slash/", strings.Repeat("x", 257)}
	for _, id := range good {
		if err := ValidateConversationID(id); err != nil {
			t.Fatalf("ValidateConversationID(%q) = %v", id, err)
		}
	}
	for _, id := range bad {
		if err := ValidateConversationID(id); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("ValidateConversationID(%q) = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestEscapedIDsRoundTrip(t *testing.T) {
	for _, id := range []string{"eng", "general chat", "a:b", "100%", "dm/ü", ""} {
		k := GenMessagesKey(id)
		if err := ValidateMessagesKey(k); err != nil {
			t.Fatalf("GenMessagesKey(%q) = %q: %v", id, k, err)
		}
		p, err := ParseConversationKey(k)
		if err != nil {
			t.Fatalf("parse %q: %v", k, err)
		}
		if p.ConversationID != id {
			t.Fatalf("round trip %q -> %q -> %q", id, k, p.ConversationID)
		}
	}
	if got := GenNameKey("a b"); got != "c:a%20b:name" {
		t.Fatalf("GenNameKey = %q", got)
	}
}

func TestParseRejectsForeignKeys(t *testing.T) {
	for _, k := range []string{"system:version", "c:x", "c:x:other", "t:x:msgs", "c:bad id:msgs", "c:50%:msgs", "c:%zz:name"} {
		if _, err := ParseConversationKey(k); err == nil {
			t.Fatalf("ParseConversationKey(%q) succeeded", k)
		}
	}
}
