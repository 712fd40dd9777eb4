// ABOUTME: Tests for the append-only conversation log
// ABOUTME: Verifies ordering, bounded recent reads, and concurrent appends

package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendAssignsIDAndTimestamp(t *testing.T) {
	log := NewLog()

	stored := log.Append(Entry{Sender: "100", Content: "hello", Direction: Inbound})
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.At.IsZero())
	assert.Equal(t, 1, log.Len())
}

func TestLog_RecentReturnsLastNInOrder(t *testing.T) {
	log := NewLog()
	for i := 0; i < 10; i++ {
		log.Append(Entry{Sender: "100", Content: fmt.Sprintf("msg-%d", i)})
	}

	recent := log.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "msg-7", recent[0].Content)
	assert.Equal(t, "msg-8", recent[1].Content)
	assert.Equal(t, "msg-9", recent[2].Content)
}

func TestLog_RecentShorterThanRequested(t *testing.T) {
	log := NewLog()
	log.Append(Entry{Content: "only"})

	recent := log.Recent(5)
	require.Len(t, recent, 1)
	assert.Equal(t, "only", recent[0].Content)

	assert.Empty(t, NewLog().Recent(5))
	assert.Empty(t, log.Recent(0))
}

func TestLog_TimestampsNonDecreasing(t *testing.T) {
	log := NewLog()
	for i := 0; i < 50; i++ {
		log.Append(Entry{Content: "x"})
	}

	entries := log.Recent(50)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].At.Before(entries[i-1].At))
	}
}

func TestLog_ConcurrentAppends(t *testing.T) {
	log := NewLog()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				log.Append(Entry{Content: "c"})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, log.Len())
}
