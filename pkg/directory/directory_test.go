package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/pkg/store/kv"
)

func TestInMemory(t *testing.T) {
	d := New(nil)
	assert.Equal(t, "", d.Name("c1"))
	require.NoError(t, d.SetName("c1", "General"))
	require.NoError(t, d.SetName("a0", "Announcements"))
	assert.Equal(t, "General", d.Lookup()("c1"))
	assert.Equal(t, []Entry{{"a0", "Announcements"}, {"c1", "General"}}, d.List())
	assert.NoError(t, d.Load())
}

func TestPersistsThroughMetaStore(t *testing.T) {
	mem := kv.NewMemory()
	d := FromBackend(mem)
	require.NoError(t, d.SetName("eng", "Engineering"))

	again := FromBackend(mem)
	assert.Equal(t, "", again.Name("eng"))
	require.NoError(t, again.Load())
	assert.Equal(t, "Engineering", again.Name("eng"))
}

func TestSetNameFailureLeavesMemoryUntouched(t *testing.T) {
	mem := kv.NewMemory()
	d := New(mem)
	require.NoError(t, mem.Close())
	assert.ErrorIs(t, d.SetName("eng", "Engineering"), kv.ErrClosed)
	assert.Equal(t, "", d.Name("eng"))
}
