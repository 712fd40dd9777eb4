// ABOUTME: Tests for the conversation registry
// ABOUTME: Verifies idempotent creation, authorization set semantics, and history access

package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormex-rc/courier/internal/history"
	"github.com/stormex-rc/courier/internal/platform"
)

func TestRegistry_GetOrCreate_Idempotent(t *testing.T) {
	reg := NewRegistry(nil)

	first := reg.GetOrCreate("100")
	second := reg.GetOrCreate("100")
	assert.Same(t, first, second)
}

func TestRegistry_GetOrCreate_ConcurrentSameCorrespondent(t *testing.T) {
	reg := NewRegistry(nil)

	convs := make([]*Conversation, 16)
	var wg sync.WaitGroup
	for i := range convs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			convs[i] = reg.GetOrCreate("100")
		}(i)
	}
	wg.Wait()

	for _, c := range convs {
		assert.Same(t, convs[0], c)
	}
}

func TestRegistry_AuthorizeAndList(t *testing.T) {
	reg := NewRegistry(nil)

	reg.Authorize("100", "201")
	reg.Authorize("100", "202")
	reg.Authorize("100", "201") // duplicate is a no-op

	got := reg.ListAuthorized("100")
	assert.Equal(t, []platform.UserID{"201", "202"}, got)
}

func TestRegistry_Revoke(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Authorize("100", "201")

	assert.True(t, reg.Revoke("100", "201"))
	assert.False(t, reg.Revoke("100", "201"), "second revoke should report missing")
	assert.False(t, reg.Revoke("999", "201"), "unknown correspondent")
	assert.Empty(t, reg.ListAuthorized("100"))
}

func TestRegistry_IsResponder(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Authorize("100", "201")
	reg.Authorize("300", "202")

	assert.True(t, reg.IsResponder("201"))
	assert.True(t, reg.IsResponder("202"))
	assert.False(t, reg.IsResponder("999"))
}

func TestRegistry_HistoryRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)

	reg.AppendHistory("100", history.Entry{Sender: "100", Content: "hello", Direction: history.Inbound})
	reg.AppendHistory("100", history.Entry{Sender: "1", Content: "hi there", Direction: history.Outbound})

	require.Equal(t, 2, reg.HistoryLen("100"))

	recent := reg.RecentHistory("100", 10)
	require.Len(t, recent, 2)
	assert.Equal(t, "hello", recent[0].Content)
	assert.Equal(t, history.Inbound, recent[0].Direction)
	assert.Equal(t, "hi there", recent[1].Content)
	assert.Equal(t, history.Outbound, recent[1].Direction)
}

func TestRegistry_HistoryUnknownCorrespondent(t *testing.T) {
	reg := NewRegistry(nil)

	assert.Nil(t, reg.RecentHistory("404", 5))
	assert.Equal(t, 0, reg.HistoryLen("404"))
}
