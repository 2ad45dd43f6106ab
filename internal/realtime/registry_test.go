package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RecordLookup(t *testing.T) {
	r := NewRegistry()

	_, replaced := r.Record("alice", "c1")
	assert.False(t, replaced)

	connID, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "c1", connID)

	_, ok = r.Lookup("bob")
	assert.False(t, ok)
}

func TestRegistry_LatestConnectionWins(t *testing.T) {
	r := NewRegistry()
	r.Record("alice", "c1")

	prev, replaced := r.Record("alice", "c2")
	assert.True(t, replaced)
	assert.Equal(t, "c1", prev)

	connID, _ := r.Lookup("alice")
	assert.Equal(t, "c2", connID)

	// The replaced connection closing must not log the account out.
	_, removed := r.Remove("c1")
	assert.False(t, removed)
	connID, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "c2", connID)

	accountID, removed := r.Remove("c2")
	assert.True(t, removed)
	assert.Equal(t, "alice", accountID)
	assert.Empty(t, r.Snapshot())
}

func TestRegistry_RecordSameConnectionTwice(t *testing.T) {
	r := NewRegistry()
	r.Record("alice", "c1")

	_, replaced := r.Record("alice", "c1")
	assert.False(t, replaced)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SnapshotSorted(t *testing.T) {
	r := NewRegistry()
	r.Record("carol", "c3")
	r.Record("alice", "c1")
	r.Record("bob", "c2")

	assert.Equal(t, []string{"alice", "bob", "carol"}, r.Snapshot())
}

func TestRegistry_ConnectDisconnectRoundTrip(t *testing.T) {
	r := NewRegistry()
	r.Record("bob", "c2")
	before := r.Snapshot()

	r.Record("alice", "c1")
	r.Remove("c1")

	assert.Equal(t, before, r.Snapshot())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			account := fmt.Sprintf("u%02d", i)
			conn := fmt.Sprintf("c%02d", i)
			r.Record(account, conn)
			_ = r.Snapshot()
			if i%2 == 0 {
				r.Remove(conn)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, r.Len())
	for _, id := range r.Snapshot() {
		var n int
		_, err := fmt.Sscanf(id, "u%02d", &n)
		require.NoError(t, err)
		assert.Equal(t, 1, n%2, "even accounts disconnected, found %s", id)
	}
}
