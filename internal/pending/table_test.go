// ABOUTME: Tests for the pending-artifact table
// ABOUTME: Verifies atomic take semantics and the concurrent reject-vs-reply contract

package pending

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormex-rc/courier/internal/platform"
)

func ref(id string) platform.MessageRef {
	return platform.MessageRef{Channel: "dm:1", ID: platform.MessageID(id)}
}

func TestTable_PutAndLookup(t *testing.T) {
	tbl := NewTable()
	tbl.Put(&Artifact{Ref: ref("10"), Kind: OwnerForward, Correspondent: "100"})

	a, ok := tbl.Lookup("10")
	require.True(t, ok)
	assert.Equal(t, OwnerForward, a.Kind)
	assert.Equal(t, platform.UserID("100"), a.Correspondent)

	_, ok = tbl.Lookup("11")
	assert.False(t, ok)
}

func TestTable_TakeRemoves(t *testing.T) {
	tbl := NewTable()
	tbl.Put(&Artifact{Ref: ref("10")})

	_, ok := tbl.Take("10")
	require.True(t, ok)

	_, ok = tbl.Take("10")
	assert.False(t, ok, "second take must no-op")
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_TakeFailsWhileClaimed(t *testing.T) {
	tbl := NewTable()
	tbl.Put(&Artifact{Ref: ref("10")})

	_, ok := tbl.Acquire("10")
	require.True(t, ok)

	_, ok = tbl.Take("10")
	assert.False(t, ok, "take must fail while a reply claim is held")

	tbl.Release("10")

	_, ok = tbl.Take("10")
	assert.True(t, ok, "take succeeds once the claim is released")
}

func TestTable_AcquireAfterTake(t *testing.T) {
	tbl := NewTable()
	tbl.Put(&Artifact{Ref: ref("10")})

	_, ok := tbl.Take("10")
	require.True(t, ok)

	_, ok = tbl.Acquire("10")
	assert.False(t, ok, "removed artifact cannot be claimed")

	// Release on a removed artifact is a no-op.
	tbl.Release("10")
}

func TestTable_MultipleClaims(t *testing.T) {
	tbl := NewTable()
	tbl.Put(&Artifact{Ref: ref("10")})

	_, ok := tbl.Acquire("10")
	require.True(t, ok)
	_, ok = tbl.Acquire("10")
	require.True(t, ok)

	tbl.Release("10")
	_, ok = tbl.Take("10")
	assert.False(t, ok, "one claim still outstanding")

	tbl.Release("10")
	_, ok = tbl.Take("10")
	assert.True(t, ok)
}

// Simulates the reject-vs-reply race: many goroutines try both resolutions on
// the same artifact; exactly one take and a consistent set of claims may win,
// and nothing resolves after removal.
func TestTable_ConcurrentRejectAndReply(t *testing.T) {
	for round := 0; round < 100; round++ {
		tbl := NewTable()
		tbl.Put(&Artifact{Ref: ref("10")})

		var takes, replies int
		var mu sync.Mutex
		var wg sync.WaitGroup

		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, ok := tbl.Take("10"); ok {
				mu.Lock()
				takes++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			if _, ok := tbl.Acquire("10"); ok {
				mu.Lock()
				replies++
				mu.Unlock()
				tbl.Release("10")
			}
		}()
		wg.Wait()

		if takes == 1 && replies == 1 {
			t.Fatal("reject and reply both resolved the same artifact")
		}
		require.Equal(t, 1, takes+replies, "exactly one resolution must win")
	}
}
