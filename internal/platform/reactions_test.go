// ABOUTME: Tests for the reaction affordance enumeration
// ABOUTME: Verifies the symbol mapping round-trips and numbered picks stay in range

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaction_SymbolRoundTrip(t *testing.T) {
	all := []Reaction{
		ReactionAcknowledge, ReactionManageUsers, ReactionReject,
		ReactionAddUser, ReactionRemoveUser, ReactionViewHistory,
		ReactionBack, ReactionClose,
		ReactionInviteAccept, ReactionInviteDecline,
		ReactionOne, ReactionFive, ReactionNine,
	}

	for _, r := range all {
		sym := r.Symbol()
		require.NotEmpty(t, sym)

		back, ok := FromSymbol(sym)
		require.True(t, ok, "symbol %q did not map back", sym)
		assert.Equal(t, r, back)
	}
}

func TestReaction_SymbolsDistinct(t *testing.T) {
	seen := make(map[string]Reaction)
	for r, sym := range symbols {
		prev, dup := seen[sym]
		require.False(t, dup, "symbol %q used by both %d and %d", sym, prev, r)
		seen[sym] = r
	}
}

func TestFromSymbol_Unknown(t *testing.T) {
	_, ok := FromSymbol("\U0001f680") // 🚀 is not an affordance
	assert.False(t, ok)

	assert.Empty(t, ReactionUnknown.Symbol())
}

func TestNumbered(t *testing.T) {
	for i := 1; i <= MaxNumbered; i++ {
		r, ok := Numbered(i)
		require.True(t, ok)

		pos, ok := r.Position()
		require.True(t, ok)
		assert.Equal(t, i, pos)
	}

	_, ok := Numbered(0)
	assert.False(t, ok)
	_, ok = Numbered(10)
	assert.False(t, ok)

	_, ok = ReactionBack.Position()
	assert.False(t, ok)
}
