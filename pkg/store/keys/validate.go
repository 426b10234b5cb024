package keys

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidID is returned for ids rejected at the caller boundary and for
// key segments that do not decode.
var ErrInvalidID = errors.New("invalid id")

var (
	// conservative ID validation for ids that arrive over HTTP or the CLI:
	// letters, digits, dot, underscore, dash and a reasonable upper bound.
	idRegexp = regexp.MustCompile(`^[A-Za-z0-9._-]{1,256}$`)

	// stored segments are EscapeID output
	messagesKeyRegexp = regexp.MustCompile(`^c:((?:[A-Za-z0-9._-]|%[0-9A-F]{2})*):msgs$`)
	nameKeyRegexp     = regexp.MustCompile(`^c:((?:[A-Za-z0-9._-]|%[0-9A-F]{2})*):name$`)
)

func ValidateConversationID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: conversation id empty", ErrInvalidID)
	}
	if !idRegexp.MatchString(id) {
		return fmt.Errorf("%w: conversation id %q", ErrInvalidID, id)
	}
	return nil
}

func ValidateMessagesKey(key string) error {
	if !messagesKeyRegexp.MatchString(key) {
		return fmt.Errorf("invalid messages key format: %q", key)
	}
	return nil
}

func ValidateNameKey(key string) error {
	if !nameKeyRegexp.MatchString(key) {
		return fmt.Errorf("invalid name key format: %q", key)
	}
	return nil
}
