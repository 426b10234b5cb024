package reactions

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"parley/pkg/models"
)

func TestAddCreatesAndDedupes(t *testing.T) {
	var list []models.Reaction
	list = Add(list, "👍", "u1")
	list = Add(list, "👍", "u1")
	list = Add(list, "👍", "u2")
	list = Add(list, "🎉", "u1")

	assert.Equal(t, []models.Reaction{
		{Emoji: "👍", VoterIDs: []string{"u1", "u2"}, Count: 2},
		{Emoji: "🎉", VoterIDs: []string{"u1"}, Count: 1},
	}, list)
}

func TestRemoveDropsEmptyEntries(t *testing.T) {
	list := Add(Add(nil, "👍", "u1"), "🎉", "u2")
	list = Remove(list, "👍", "u1")
	assert.Equal(t, []models.Reaction{{Emoji: "🎉", VoterIDs: []string{"u2"}, Count: 1}}, list)

	// removing a vote that isn't there changes nothing
	list = Remove(list, "🎉", "ghost")
	assert.Equal(t, 1, list[0].Count)

	list = Remove(list, "🎉", "u2")
	assert.Empty(t, list)
}

func TestFirstUseOrderSurvivesRemoval(t *testing.T) {
	list := Add(nil, "a", "u1")
	list = Add(list, "b", "u1")
	list = Add(list, "c", "u1")
	list = Remove(list, "b", "u1")
	list = Add(list, "b", "u2")
	got := []string{list[0].Emoji, list[1].Emoji, list[2].Emoji}
	assert.Equal(t, []string{"a", "c", "b"}, got)
}

func TestInputsAreNotModified(t *testing.T) {
	orig := []models.Reaction{{Emoji: "👍", VoterIDs: []string{"u1"}, Count: 1}}
	_ = Add(orig, "👍", "u2")
	_ = Remove(orig, "👍", "u1")
	assert.Equal(t, []models.Reaction{{Emoji: "👍", VoterIDs: []string{"u1"}, Count: 1}}, orig)
}

// Any interleaving of adds and removes keeps the invariants.
func TestInvariantHoldsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	emojis := []string{"👍", "🎉", "🔥", "👀"}
	users := []string{"u1", "u2", "u3", "u4", "u5"}
	var list []models.Reaction
	for i := 0; i < 2000; i++ {
		e := emojis[rng.Intn(len(emojis))]
		u := users[rng.Intn(len(users))]
		if rng.Intn(3) == 0 {
			list = Remove(list, e, u)
		} else {
			list = Add(list, e, u)
		}
		if !Check(list) {
			t.Fatalf("invariant broken after step %d: %+v", i, list)
		}
	}
}

func TestNormalizeRepairsStoredLists(t *testing.T) {
	broken := []models.Reaction{
		{Emoji: "👍", VoterIDs: []string{"u1", "u1"}, Count: 7},
		{Emoji: "🎉", VoterIDs: nil, Count: 3},
		{Emoji: "👍", VoterIDs: []string{"u2"}, Count: 1},
	}
	assert.False(t, Check(broken))
	fixed := Normalize(broken)
	assert.True(t, Check(fixed))
	assert.Equal(t, []models.Reaction{{Emoji: "👍", VoterIDs: []string{"u1", "u2"}, Count: 2}}, fixed)
	assert.Equal(t, 2, Total(fixed))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"👍", true},
		{"🎉", true},
		{"", false},
		{"ok", false},
		{"👍👍", false},
		{"👍 nice", false},
	}
	for _, c := range cases {
		err := Validate(c.in)
		if c.valid && err != nil {
			t.Fatalf("Validate(%q) = %v, want nil", c.in, err)
		}
		if !c.valid && !errors.Is(err, ErrInvalidReaction) {
			t.Fatalf("Validate(%q) = %v, want ErrInvalidReaction", c.in, err)
		}
	}
}
