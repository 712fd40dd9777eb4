// ABOUTME: Responder-invitation state machine with a prompt-with-timeout sub-protocol
// ABOUTME: Prompt waits never block event dispatch; transitions are atomic first-wins

package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/stormex-rc/courier/internal/conversation"
	"github.com/stormex-rc/courier/internal/history"
	"github.com/stormex-rc/courier/internal/platform"
)

// ExcerptLimit is how many history entries an accepting responder receives.
const ExcerptLimit = 5

// State tracks an invitation's lifecycle. Declined invitations are removed
// from the table instead of holding a terminal state.
type State int

const (
	StateSent State = iota
	StateAccepted
)

// Invitation is one outstanding offer to a candidate responder, keyed by the
// platform id of the invitation message.
type Invitation struct {
	Ref           platform.MessageRef
	Correspondent platform.UserID
	Candidate     platform.UserID
	state         State
}

// Options configures the workflow.
type Options struct {
	Owner         platform.UserID
	PromptTimeout time.Duration
}

// Workflow owns the invitation table and the prompt waiters. It holds only
// ids into the conversation registry.
type Workflow struct {
	gw     platform.Gateway
	reg    *conversation.Registry
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	byID    map[platform.MessageID]*Invitation
	prompts map[platform.ChannelID]chan platform.Message
}

// New creates a workflow.
func New(gw platform.Gateway, reg *conversation.Registry, opts Options, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PromptTimeout <= 0 {
		opts.PromptTimeout = 60 * time.Second
	}
	return &Workflow{
		gw:      gw,
		reg:     reg,
		opts:    opts,
		logger:  logger.With("component", "invite"),
		byID:    make(map[platform.MessageID]*Invitation),
		prompts: make(map[platform.ChannelID]chan platform.Message),
	}
}

// Invite runs the full invitation entry flow for a correspondent: prompt the
// owner for a candidate id, wait for the answer (bounded), resolve the
// candidate, and send the invitation. It blocks the calling goroutine, never
// the dispatch loop: the caller runs on a per-event goroutine and the answer
// arrives through Offer.
func (w *Workflow) Invite(ctx context.Context, correspondent platform.UserID) {
	promptRef, err := w.gw.Deliver(ctx, w.opts.Owner, platform.Content{
		Body: "Reply with the numeric id of the user to add as a responder.",
	})
	if err != nil {
		w.logger.Error("invite prompt delivery failed", "error", err, "correspondent", correspondent)
		return
	}

	answer, ok := w.awaitAnswer(ctx, promptRef.Channel)
	if !ok {
		w.notifyOwner(ctx, "Invitation timed out: no id received.")
		return
	}

	raw := strings.TrimSpace(answer.Content)
	if !isNumeric(raw) {
		w.notifyOwner(ctx, fmt.Sprintf("%q is not a numeric user id. Invitation aborted.", raw))
		return
	}

	candidate := platform.UserID(raw)
	if candidate == w.opts.Owner {
		w.notifyOwner(ctx, "You are the owner and can already respond. Invitation aborted.")
		return
	}
	if lo.Contains(w.reg.ListAuthorized(correspondent), candidate) {
		w.notifyOwner(ctx, "That user is already a responder for this conversation.")
		return
	}

	user, err := w.gw.ResolveUser(ctx, candidate)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			w.notifyOwner(ctx, fmt.Sprintf("User %s not found. Invitation aborted.", candidate))
		} else {
			w.logger.Error("candidate resolution failed", "error", err, "candidate", candidate)
			w.notifyOwner(ctx, "Could not resolve that user. Invitation aborted.")
		}
		return
	}

	corrName := w.displayName(ctx, correspondent)
	invRef, err := w.gw.Deliver(ctx, candidate, platform.Content{
		Title: "Responder invitation",
		Body: fmt.Sprintf(
			"You have been invited to help answer direct messages from %s.\n"+
				"If you accept, their messages will be forwarded to you and your replies will be relayed back.\n"+
				"React %s to accept or %s to decline.",
			corrName,
			platform.ReactionInviteAccept.Symbol(),
			platform.ReactionInviteDecline.Symbol(),
		),
	}, platform.ReactionInviteAccept, platform.ReactionInviteDecline)
	if err != nil {
		if errors.Is(err, platform.ErrForbidden) {
			w.notifyOwner(ctx, fmt.Sprintf("Cannot DM %s; they may have DMs disabled.", user.DisplayName))
		} else {
			w.logger.Error("invitation delivery failed", "error", err, "candidate", candidate)
			w.notifyOwner(ctx, "Sending the invitation failed. Try again later.")
		}
		return
	}

	w.mu.Lock()
	w.byID[invRef.ID] = &Invitation{
		Ref:           invRef,
		Correspondent: correspondent,
		Candidate:     candidate,
		state:         StateSent,
	}
	w.mu.Unlock()

	w.logger.Info("invitation sent", "candidate", candidate, "correspondent", correspondent)
	w.notifyOwner(ctx, fmt.Sprintf("Invitation sent to %s.", user.DisplayName))
}

// awaitAnswer registers a prompt waiter on the channel and blocks until the
// owner's next message there, the timeout, or context cancellation. Only one
// prompt per channel may be outstanding.
func (w *Workflow) awaitAnswer(ctx context.Context, channel platform.ChannelID) (platform.Message, bool) {
	w.mu.Lock()
	if _, busy := w.prompts[channel]; busy {
		w.mu.Unlock()
		w.notifyOwner(ctx, "Another invitation prompt is already waiting for an answer.")
		return platform.Message{}, false
	}
	ch := make(chan platform.Message, 1)
	w.prompts[channel] = ch
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		// Offer may have removed the entry already; only delete our own waiter
		// so a newer prompt on the same channel is left alone.
		if w.prompts[channel] == ch {
			delete(w.prompts, channel)
		}
		w.mu.Unlock()
	}()

	timer := time.NewTimer(w.opts.PromptTimeout)
	defer timer.Stop()

	select {
	case msg := <-ch:
		return msg, true
	case <-timer.C:
		return platform.Message{}, false
	case <-ctx.Done():
		return platform.Message{}, false
	}
}

// Offer hands an inbound message to an outstanding prompt waiter. It claims
// the message only when the author is the owner and a prompt is waiting on
// that exact channel; everything else stays with the normal routing path.
func (w *Workflow) Offer(msg platform.Message) bool {
	if msg.Author != w.opts.Owner {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ch, ok := w.prompts[msg.Ref.Channel]
	if !ok {
		return false
	}
	select {
	case ch <- msg:
		// The waiter removes the prompt entry itself; deleting here keeps a
		// second owner message from being claimed before it wakes up.
		delete(w.prompts, msg.Ref.Channel)
		return true
	default:
		return false
	}
}

// HandleReaction processes a reaction on an invitation message. Returns true
// when the message id belongs to this workflow (even if the reaction itself
// is ignored), so the router stops searching other registries.
func (w *Workflow) HandleReaction(ctx context.Context, ev platform.ReactionEvent) bool {
	w.mu.Lock()
	inv, ok := w.byID[ev.Ref.ID]
	w.mu.Unlock()
	if !ok {
		return false
	}

	reaction, known := platform.FromSymbol(ev.Symbol)
	if !known || ev.Reactor != inv.Candidate {
		return true
	}

	switch reaction {
	case platform.ReactionInviteAccept:
		w.accept(ctx, ev.Ref.ID)
	case platform.ReactionInviteDecline:
		w.decline(ctx, ev.Ref.ID)
	}
	return true
}

// accept transitions Sent -> Accepted exactly once, authorizes the candidate,
// and sends the onboarding messages.
func (w *Workflow) accept(ctx context.Context, id platform.MessageID) {
	w.mu.Lock()
	inv, ok := w.byID[id]
	if !ok || inv.state != StateSent {
		w.mu.Unlock()
		return
	}
	inv.state = StateAccepted
	w.mu.Unlock()

	w.reg.Authorize(inv.Correspondent, inv.Candidate)
	w.logger.Info("invitation accepted", "candidate", inv.Candidate, "correspondent", inv.Correspondent)

	if excerpt := w.reg.RecentHistory(inv.Correspondent, ExcerptLimit); len(excerpt) > 0 {
		if _, err := w.gw.Deliver(ctx, inv.Candidate, platform.Content{
			Title: "Recent conversation",
			Body:  strings.Join(formatExcerpt(excerpt), "\n"),
		}); err != nil {
			w.logger.Warn("history excerpt delivery failed", "error", err, "candidate", inv.Candidate)
		}
	}

	if _, err := w.gw.Deliver(ctx, inv.Candidate, platform.Content{
		Body: "You are now a responder for this conversation. Reply to any forwarded message to answer.",
	}); err != nil {
		w.logger.Warn("onboarding notice delivery failed", "error", err, "candidate", inv.Candidate)
	}

	w.notifyOwner(ctx, fmt.Sprintf("%s accepted the invitation.", w.displayName(ctx, inv.Candidate)))

	// Best effort: mark the invitation message itself as accepted.
	if err := w.gw.Edit(ctx, inv.Ref, platform.Content{
		Title: "Responder invitation",
		Body:  "Invitation accepted.",
	}); err != nil {
		w.logger.Debug("invitation edit failed", "error", err)
	}
}

// decline removes the invitation record first (first resolution wins), then
// cleans up the invitation message.
func (w *Workflow) decline(ctx context.Context, id platform.MessageID) {
	w.mu.Lock()
	inv, ok := w.byID[id]
	if !ok || inv.state != StateSent {
		w.mu.Unlock()
		return
	}
	delete(w.byID, id)
	w.mu.Unlock()

	w.logger.Info("invitation declined", "candidate", inv.Candidate, "correspondent", inv.Correspondent)

	if _, err := w.gw.Deliver(ctx, inv.Candidate, platform.Content{
		Body: "Invitation declined.",
	}); err != nil {
		w.logger.Debug("decline notice delivery failed", "error", err)
	}
	if err := w.gw.Delete(ctx, inv.Ref); err != nil {
		w.logger.Debug("invitation message delete failed", "error", err)
	}
}

// Knows reports whether a message id belongs to an outstanding invitation.
func (w *Workflow) Knows(id platform.MessageID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.byID[id]
	return ok
}

func (w *Workflow) notifyOwner(ctx context.Context, text string) {
	if _, err := w.gw.Deliver(ctx, w.opts.Owner, platform.Content{Body: text}); err != nil {
		w.logger.Warn("owner notice delivery failed", "error", err)
	}
}

func (w *Workflow) displayName(ctx context.Context, id platform.UserID) string {
	if u, err := w.gw.ResolveUser(ctx, id); err == nil && u.DisplayName != "" {
		return u.DisplayName
	}
	return "user " + string(id)
}

func formatExcerpt(entries []history.Entry) []string {
	return lo.Map(entries, func(e history.Entry, _ int) string {
		name := e.SenderName
		if name == "" {
			name = "user " + string(e.Sender)
		}
		return fmt.Sprintf("[%s] %s: %s", e.At.Format("15:04"), name, e.Content)
	})
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
