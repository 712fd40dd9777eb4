// ABOUTME: Core types for the chat-platform boundary
// ABOUTME: Ids, inbound event payloads, outbound content, and the Gateway interface

package platform

import (
	"context"
	"errors"
	"time"
)

// Delivery error taxonomy. Gateway implementations translate platform errors
// into these sentinels so handlers can branch with errors.Is.
var (
	// ErrForbidden means the recipient is unreachable (blocked the bot or has
	// DMs disabled). Logged, never fatal.
	ErrForbidden = errors.New("delivery forbidden")

	// ErrNotFound means a stale id: the user or message no longer resolves.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited means the platform refused the call due to rate limits.
	ErrRateLimited = errors.New("rate limited")
)

// UserID is an opaque numeric platform identity.
type UserID string

// ChannelID identifies a platform channel (for this bot, almost always a DM).
type ChannelID string

// MessageID is the platform-assigned id of one delivered message.
type MessageID string

// MessageRef addresses a delivered message. The platform needs both the
// channel and the message id for react/edit/delete calls.
type MessageRef struct {
	Channel ChannelID
	ID      MessageID
}

// User is a resolved platform identity.
type User struct {
	ID          UserID
	DisplayName string
}

// Message is an inbound message event as delivered by the gateway.
type Message struct {
	Ref         MessageRef
	Author      UserID
	AuthorName  string
	Content     string
	Attachments []string
	Timestamp   time.Time
	DM          bool

	// ReplyTo is set when the message is a threaded reply to an earlier one.
	ReplyTo *MessageRef
}

// ReactionEvent is an inbound reaction-add or reaction-remove event.
type ReactionEvent struct {
	Ref     MessageRef
	Reactor UserID
	Symbol  string
}

// Content is the renderable payload of an outbound message. Gateways decide
// how to present it (embed, plain text, ...).
type Content struct {
	Title       string
	Body        string
	Footer      string
	Attachments []string
}

// Gateway is everything the relay core needs from the chat platform. All
// methods are blocking and safe for concurrent use.
type Gateway interface {
	// Deliver sends content to a user's DM channel and attaches the given
	// reaction affordances to the sent message.
	Deliver(ctx context.Context, to UserID, content Content, reactions ...Reaction) (MessageRef, error)

	// Send posts a plain-text notice into an existing channel.
	Send(ctx context.Context, channel ChannelID, text string) (MessageRef, error)

	// React adds a single reaction to a message.
	React(ctx context.Context, ref MessageRef, reaction Reaction) error

	// ClearReactions removes all reactions from a message.
	ClearReactions(ctx context.Context, ref MessageRef) error

	// Delete removes a message.
	Delete(ctx context.Context, ref MessageRef) error

	// Edit replaces the content of a previously sent message.
	Edit(ctx context.Context, ref MessageRef, content Content) error

	// ResolveUser looks up a platform identity by id.
	ResolveUser(ctx context.Context, id UserID) (*User, error)
}
