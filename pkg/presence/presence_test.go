package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/pkg/timeutil"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestSweepKeepsFreshFacts(t *testing.T) {
	clk := timeutil.NewManual(t0)
	tr := New(WithClock(clk))

	tr.StartTyping("old", "Old", "c1")
	clk.Advance(10 * time.Second)
	tr.StartTyping("mid", "Mid", "c1")
	clk.Advance(5 * time.Second)
	tr.StartTyping("new", "New", "c1")

	// ages are now 15s, 5s and 0s
	removed := tr.SweepStale(clk.Now().UnixMilli(), DefaultTTLMillis)
	assert.Equal(t, 1, removed)

	got := tr.GetTyping("c1")
	require.Len(t, got, 2)
	assert.Equal(t, "mid", got[0].UserID)
	assert.Equal(t, "new", got[1].UserID)
}

func TestSweepBoundaryIsExclusive(t *testing.T) {
	clk := timeutil.NewManual(t0)
	tr := New(WithClock(clk))
	tr.StartTyping("u1", "U1", "c1")
	clk.Advance(10 * time.Second)
	assert.Equal(t, 0, tr.Sweep(10_000))
	clk.Advance(time.Millisecond)
	assert.Equal(t, 1, tr.Sweep(10_000))
	assert.Equal(t, 0, tr.Len())
}

func TestStartTypingRefreshes(t *testing.T) {
	clk := timeutil.NewManual(t0)
	tr := New(WithClock(clk))
	tr.StartTyping("u1", "U1", "c1")
	clk.Advance(8 * time.Second)
	tr.StartTyping("u1", "U1", "c1")
	clk.Advance(8 * time.Second)

	assert.Equal(t, 0, tr.Sweep(DefaultTTLMillis))
	got := tr.GetTyping("c1")
	require.Len(t, got, 1)
	assert.Equal(t, t0.Add(8*time.Second).UnixMilli(), got[0].StartedAtMillis)
}

func TestStopTypingAndScoping(t *testing.T) {
	tr := New()
	tr.StartTyping("u1", "U1", "c1")
	tr.StartTyping("u1", "U1", "c2")
	tr.StopTyping("u1", "c1")
	tr.StopTyping("nobody", "c1")

	assert.Empty(t, tr.GetTyping("c1"))
	assert.NotNil(t, tr.GetTyping("c1"))
	assert.Len(t, tr.GetTyping("c2"), 1)
}

func TestSubscribe(t *testing.T) {
	clk := timeutil.NewManual(t0)
	tr := New(WithClock(clk))
	var got []string
	cancel := tr.Subscribe(func(cid string) { got = append(got, cid) })

	tr.StartTyping("u1", "U1", "c1")
	tr.StopTyping("u1", "c1")
	tr.StopTyping("u1", "c1") // no change, no event
	tr.StartTyping("u2", "U2", "c2")
	clk.Advance(time.Minute)
	tr.Sweep(DefaultTTLMillis)
	cancel()
	cancel()
	tr.StartTyping("u3", "U3", "c3")

	assert.Equal(t, []string{"c1", "c1", "c2", "c2"}, got)
}

// Start/stop racing against sweeps must not lose facts that are fresh.
func TestConcurrentSweep(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tr.StartTyping("u", "U", "c")
				tr.Sweep(DefaultTTLMillis)
				tr.StopTyping("u", "c")
			}
		}(i)
	}
	wg.Wait()
	tr.StartTyping("last", "Last", "c")
	tr.Sweep(DefaultTTLMillis)
	assert.Len(t, tr.GetTyping("c"), 1)
}
