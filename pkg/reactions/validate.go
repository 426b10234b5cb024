package reactions

import (
	"errors"

	"github.com/forPelevin/gomoji"
)

// ErrInvalidReaction is returned when a reaction is not exactly one emoji.
var ErrInvalidReaction = errors.New("reaction must be a single emoji")

// Validate checks that reaction consists of exactly one emoji and nothing
// else.
func Validate(reaction string) error {
	found := gomoji.CollectAll(reaction)
	if len(found) != 1 {
		return ErrInvalidReaction
	}
	if found[0].Character != reaction {
		return ErrInvalidReaction
	}
	return nil
}
