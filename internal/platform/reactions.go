// ABOUTME: Closed enumeration of reaction affordances used as control inputs
// ABOUTME: Maps bidirectionally to platform display symbols at the gateway boundary

package platform

// Reaction is a control affordance attached to a message. The relay core works
// exclusively with these values; the raw emoji symbols exist only at the
// gateway boundary.
type Reaction int

const (
	ReactionUnknown Reaction = iota

	// Forwarded-message affordances.
	ReactionAcknowledge
	ReactionManageUsers
	ReactionReject

	// Management-menu affordances.
	ReactionAddUser
	ReactionRemoveUser
	ReactionViewHistory
	ReactionBack
	ReactionClose

	// Invitation affordances.
	ReactionInviteAccept
	ReactionInviteDecline

	// Numbered pick affordances (remove-list entries 1..9).
	ReactionOne
	ReactionTwo
	ReactionThree
	ReactionFour
	ReactionFive
	ReactionSix
	ReactionSeven
	ReactionEight
	ReactionNine
)

// MaxNumbered is how many numbered pick affordances exist.
const MaxNumbered = 9

var symbols = map[Reaction]string{
	ReactionAcknowledge:   "✅",
	ReactionManageUsers:   "⚙️",
	ReactionReject:        "❌",
	ReactionAddUser:       "➕",
	ReactionRemoveUser:    "➖",
	ReactionViewHistory:   "\U0001f4dc", // 📜
	ReactionBack:          "\U0001f519", // 🔙
	ReactionClose:         "❎",
	ReactionInviteAccept:  "\U0001f44d", // 👍
	ReactionInviteDecline: "\U0001f44e", // 👎
	ReactionOne:           "1️⃣",
	ReactionTwo:           "2️⃣",
	ReactionThree:         "3️⃣",
	ReactionFour:          "4️⃣",
	ReactionFive:          "5️⃣",
	ReactionSix:           "6️⃣",
	ReactionSeven:         "7️⃣",
	ReactionEight:         "8️⃣",
	ReactionNine:          "9️⃣",
}

var bySymbol = make(map[string]Reaction, len(symbols))

func init() {
	for r, s := range symbols {
		bySymbol[s] = r
	}
}

// Symbol returns the display symbol for a reaction, or "" for unknown values.
func (r Reaction) Symbol() string {
	return symbols[r]
}

// FromSymbol maps a raw platform symbol back to its reaction affordance.
func FromSymbol(symbol string) (Reaction, bool) {
	r, ok := bySymbol[symbol]
	return r, ok
}

// Numbered returns the pick affordance for a 1-based position. The second
// return is false when the position is outside 1..MaxNumbered.
func Numbered(position int) (Reaction, bool) {
	if position < 1 || position > MaxNumbered {
		return ReactionUnknown, false
	}
	return ReactionOne + Reaction(position-1), true
}

// Position returns the 1-based position of a numbered pick affordance, or
// false for any other reaction.
func (r Reaction) Position() (int, bool) {
	if r < ReactionOne || r > ReactionNine {
		return 0, false
	}
	return int(r-ReactionOne) + 1, true
}
