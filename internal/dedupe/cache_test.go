// ABOUTME: Tests for the event dedupe cache
// ABOUTME: Validates TTL expiration, size capping, and atomic check-and-mark

package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_CheckAndMark_NewKey(t *testing.T) {
	cache := New(5*time.Minute, 100)
	defer cache.Close()

	assert.False(t, cache.CheckAndMark("event-1"), "first sighting is not a duplicate")
	assert.True(t, cache.CheckAndMark("event-1"), "second sighting is a duplicate")
}

func TestCache_CheckAndMark_Expired(t *testing.T) {
	cache := New(10*time.Millisecond, 100)
	defer cache.Close()

	assert.False(t, cache.CheckAndMark("event-1"))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, cache.CheckAndMark("event-1"), "expired key counts as new")
}

func TestCache_SizeCap(t *testing.T) {
	cache := New(5*time.Minute, 3)
	defer cache.Close()

	for i := 0; i < 4; i++ {
		cache.CheckAndMark(fmt.Sprintf("event-%d", i))
	}

	// Oldest entry was evicted to make room.
	assert.False(t, cache.CheckAndMark("event-0"))
	assert.True(t, cache.CheckAndMark("event-3"))
}

func TestCache_ConcurrentCheckAndMark(t *testing.T) {
	cache := New(5*time.Minute, 100)
	defer cache.Close()

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !cache.CheckAndMark("same-event") {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), firsts.Load(), "exactly one goroutine may treat the event as new")
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	cache := New(time.Minute, 10)
	cache.Close()
	cache.Close()
}
