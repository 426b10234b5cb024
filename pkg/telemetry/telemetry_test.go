package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceWrittenOnClose(t *testing.T) {
	dir := t.TempDir()
	tel, err := New(Options{Dir: dir, FlushInterval: time.Hour})
	require.NoError(t, err)

	tr := tel.Track("search")
	tr.Mark("parse")
	tr.Mark("evaluate")
	tr.Finish()
	tr.Finish()
	tel.Close()
	tel.Close()

	f, err := os.Open(filepath.Join(dir, "search.jsonl"))
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	var lines []Trace
	for sc.Scan() {
		var got Trace
		require.NoError(t, json.Unmarshal(sc.Bytes(), &got))
		lines = append(lines, got)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, "search", lines[0].Name)
	assert.GreaterOrEqual(t, len(lines[0].Steps), 2)
	assert.Equal(t, "parse", lines[0].Steps[0].Name)
}

func TestTrackWithoutInitIsNoop(t *testing.T) {
	tr := Track("nothing")
	tr.Mark("a")
	tr.Finish()
	assert.Len(t, tr.Steps, 1)
}

func TestRecordMutation(t *testing.T) {
	before := testutil.ToFloat64(Mutations.WithLabelValues("pin", "missing"))
	RecordMutation("pin", false)
	assert.Equal(t, before+1, testutil.ToFloat64(Mutations.WithLabelValues("pin", "missing")))
}

func TestGaugesFollowSources(t *testing.T) {
	SetSources(Sources{Messages: func() int { return 42 }})
	defer SetSources(Sources{})
	assert.Equal(t, float64(42), testutil.ToFloat64(messages))
	assert.Equal(t, float64(0), testutil.ToFloat64(conversations))
}
