// ABOUTME: Mock Gateway implementation for testing
// ABOUTME: Records outbound calls in memory and supports scripted failures

package platform

import (
	"context"
	"strconv"
	"sync"
)

// SentMessage records one Deliver or Send call made against the mock.
type SentMessage struct {
	Ref       MessageRef
	To        UserID // zero for Send calls
	Content   Content
	Text      string // Send calls only
	Reactions []Reaction
}

// MockGateway is an in-memory Gateway implementation for testing. Message ids
// are sequential numeric strings and DM channels are derived from the
// recipient id, so tests can address messages deterministically.
type MockGateway struct {
	mu     sync.Mutex
	nextID int

	Sent    []*SentMessage
	Reacted map[MessageID][]Reaction
	Cleared []MessageRef
	Deleted []MessageRef
	Edited  map[MessageID]Content

	Users map[UserID]*User

	// DeliverErr fails Deliver calls to specific recipients.
	DeliverErr map[UserID]error
	// ReactErr fails all React calls when set.
	ReactErr error
	// DeleteErr fails all Delete calls when set.
	DeleteErr error
	// EditErr fails all Edit calls when set.
	EditErr error
}

// NewMockGateway creates an empty MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Reacted:    make(map[MessageID][]Reaction),
		Edited:     make(map[MessageID]Content),
		Users:      make(map[UserID]*User),
		DeliverErr: make(map[UserID]error),
	}
}

// DMChannel returns the mock channel id used for a recipient's DM.
func DMChannel(to UserID) ChannelID {
	return ChannelID("dm:" + string(to))
}

func (m *MockGateway) allocate(channel ChannelID) MessageRef {
	m.nextID++
	return MessageRef{Channel: channel, ID: MessageID(strconv.Itoa(m.nextID))}
}

// Deliver records a DM delivery and returns a generated ref.
func (m *MockGateway) Deliver(ctx context.Context, to UserID, content Content, reactions ...Reaction) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.DeliverErr[to]; err != nil {
		return MessageRef{}, err
	}

	ref := m.allocate(DMChannel(to))
	m.Sent = append(m.Sent, &SentMessage{
		Ref:       ref,
		To:        to,
		Content:   content,
		Reactions: append([]Reaction(nil), reactions...),
	})
	return ref, nil
}

// Send records an in-channel notice.
func (m *MockGateway) Send(ctx context.Context, channel ChannelID, text string) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref := m.allocate(channel)
	m.Sent = append(m.Sent, &SentMessage{Ref: ref, Text: text})
	return ref, nil
}

// React records a reaction add.
func (m *MockGateway) React(ctx context.Context, ref MessageRef, reaction Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReactErr != nil {
		return m.ReactErr
	}
	m.Reacted[ref.ID] = append(m.Reacted[ref.ID], reaction)
	return nil
}

// ClearReactions records a reaction clear.
func (m *MockGateway) ClearReactions(ctx context.Context, ref MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Reacted, ref.ID)
	m.Cleared = append(m.Cleared, ref)
	return nil
}

// Delete records a message deletion.
func (m *MockGateway) Delete(ctx context.Context, ref MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, ref)
	return nil
}

// Edit records a message edit.
func (m *MockGateway) Edit(ctx context.Context, ref MessageRef, content Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EditErr != nil {
		return m.EditErr
	}
	m.Edited[ref.ID] = content
	return nil
}

// ResolveUser looks up a scripted user, returning ErrNotFound for unknown ids.
func (m *MockGateway) ResolveUser(ctx context.Context, id UserID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *u
	return &result, nil
}

// AddUser scripts a resolvable user and returns its id.
func (m *MockGateway) AddUser(id UserID, displayName string) UserID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Users[id] = &User{ID: id, DisplayName: displayName}
	return id
}

// SentTo returns all recorded Deliver calls addressed to a recipient.
func (m *MockGateway) SentTo(to UserID) []*SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*SentMessage
	for _, s := range m.Sent {
		if s.To == to {
			out = append(out, s)
		}
	}
	return out
}

// LastTo returns the most recent Deliver call to a recipient, or nil.
func (m *MockGateway) LastTo(to UserID) *SentMessage {
	msgs := m.SentTo(to)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// WasDeleted reports whether a Delete call was recorded for the ref.
func (m *MockGateway) WasDeleted(ref MessageRef) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.Deleted {
		if d == ref {
			return true
		}
	}
	return false
}
