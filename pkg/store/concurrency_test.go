package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"parley/pkg/reactions"
)

// Concurrent writers on shared and separate conversations. Run with -race.
func TestConcurrentMutations(t *testing.T) {
	s := New()
	root := s.Send(SendParams{ConversationID: "shared", SenderID: "owner", Content: "root"})

	const workers = 16
	const perWorker = 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", w)
			own := fmt.Sprintf("conv-%d", w)
			for i := 0; i < perWorker; i++ {
				s.ReplyInThread(SendParams{ConversationID: "shared", SenderID: user}, root.ID)
				s.AddReaction("shared", root.ID, "👍", user)
				if i%2 == 0 {
					s.RemoveReaction("shared", root.ID, "👍", user)
				}
				s.Send(SendParams{ConversationID: own, SenderID: user})
				_ = s.GetForConversation("shared")
				_, _ = s.SaveDirty()
			}
		}(w)
	}
	wg.Wait()

	got, _ := s.Lookup("shared", root.ID)
	assert.Equal(t, workers*perWorker, got.ThreadReplyCount)
	assert.Len(t, got.ThreadParticipantIDs, workers)
	assert.True(t, reactions.Check(got.Reactions))
	assert.Len(t, s.Conversations(), workers+1)
	for w := 0; w < workers; w++ {
		assert.Len(t, s.GetForConversation(fmt.Sprintf("conv-%d", w)), perWorker)
	}
}
