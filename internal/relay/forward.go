// ABOUTME: Forwarding of correspondent DMs and resolution of responder replies
// ABOUTME: Per-recipient delivery failures never abort the remaining deliveries

package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stormex-rc/courier/internal/history"
	"github.com/stormex-rc/courier/internal/pending"
	"github.com/stormex-rc/courier/internal/platform"
)

// forward relays a correspondent's DM to the owner and every authorized
// responder, registering a pending artifact per delivered copy.
func (r *Router) forward(ctx context.Context, msg platform.Message) {
	r.reg.GetOrCreate(msg.Author)
	r.reg.AppendHistory(msg.Author, history.Entry{
		Sender:      msg.Author,
		SenderName:  msg.AuthorName,
		Content:     msg.Content,
		Attachments: msg.Attachments,
		Direction:   history.Inbound,
	})

	name := msg.AuthorName
	if name == "" {
		name = "user " + string(msg.Author)
	}
	content := platform.Content{
		Title:       "Message from " + name,
		Body:        msg.Content,
		Footer:      "Correspondent ID: " + string(msg.Author),
		Attachments: msg.Attachments,
	}

	ownerRef, err := r.gw.Deliver(ctx, r.cfg.Owner, content,
		platform.ReactionAcknowledge, platform.ReactionManageUsers, platform.ReactionReject)
	if err != nil {
		r.logger.Error("owner delivery failed", "error", err, "correspondent", msg.Author)
	} else {
		artifact := &pending.Artifact{
			Ref:           ownerRef,
			Kind:          pending.OwnerForward,
			Correspondent: msg.Author,
		}
		if confirmRef, cErr := r.gw.Deliver(ctx, msg.Author, platform.Content{
			Body: "Your message has been forwarded. You will receive any reply here.",
		}); cErr != nil {
			r.logger.Debug("confirmation delivery failed", "error", cErr, "correspondent", msg.Author)
		} else {
			artifact.Confirmation = &confirmRef
		}
		r.pending.Put(artifact)
	}

	for _, responder := range r.reg.ListAuthorized(msg.Author) {
		ref, err := r.gw.Deliver(ctx, responder, content, platform.ReactionAcknowledge)
		if err != nil {
			r.logger.Warn("responder delivery failed", "error", err, "responder", responder)
			continue
		}
		r.pending.Put(&pending.Artifact{
			Ref:           ref,
			Kind:          pending.ResponderForward,
			Correspondent: msg.Author,
			Responder:     responder,
		})
	}

	r.logger.Info("message forwarded",
		"correspondent", msg.Author,
		"responders", len(r.reg.ListAuthorized(msg.Author)))
}

// resolveReply relays a responder's threaded reply back to the correspondent.
// The claim on the artifact blocks a concurrent rejection from removing it
// mid-flight; replies to unknown references are ignored as unrelated.
func (r *Router) resolveReply(ctx context.Context, msg platform.Message) {
	artifact, ok := r.pending.Acquire(msg.ReplyTo.ID)
	if !ok {
		return
	}
	defer r.pending.Release(msg.ReplyTo.ID)

	name := msg.AuthorName
	if name == "" {
		name = "user " + string(msg.Author)
	}

	_, err := r.gw.Deliver(ctx, artifact.Correspondent, platform.Content{
		Title: "Reply from " + name,
		Body:  msg.Content,
	})
	switch {
	case errors.Is(err, platform.ErrForbidden):
		r.notifyChannel(ctx, msg.Ref.Channel, "Cannot deliver the reply: the user's DMs are closed.")
		return
	case errors.Is(err, platform.ErrNotFound):
		r.notifyChannel(ctx, msg.Ref.Channel, "Cannot deliver the reply: user not found.")
		return
	case err != nil:
		r.logger.Error("reply delivery failed", "error", err, "correspondent", artifact.Correspondent)
		r.notifyChannel(ctx, msg.Ref.Channel, fmt.Sprintf("Delivering the reply failed: %v", err))
		return
	}

	r.reg.AppendHistory(artifact.Correspondent, history.Entry{
		Sender:     msg.Author,
		SenderName: msg.AuthorName,
		Content:    msg.Content,
		Direction:  history.Outbound,
	})

	if msg.Author != r.cfg.Owner {
		if _, err := r.gw.Deliver(ctx, r.cfg.Owner, platform.Content{
			Title:  "Reply sent by " + name,
			Body:   msg.Content,
			Footer: "Correspondent ID: " + string(artifact.Correspondent),
		}); err != nil {
			r.logger.Warn("owner reply notification failed", "error", err)
		}
	}

	if err := r.gw.React(ctx, msg.Ref, platform.ReactionAcknowledge); err != nil {
		r.logger.Debug("reply acknowledgment failed", "error", err)
	}
}

// handleForwardReaction processes reactions on forwarded-message copies.
// Acknowledgments carry no transition; reject and manage act only when the
// owner reacts on the owner-forward copy.
func (r *Router) handleForwardReaction(ctx context.Context, artifact *pending.Artifact, ev platform.ReactionEvent) {
	reaction, known := platform.FromSymbol(ev.Symbol)
	if !known {
		return
	}
	if artifact.Kind != pending.OwnerForward || ev.Reactor != r.cfg.Owner {
		return
	}

	switch reaction {
	case platform.ReactionReject:
		r.reject(ctx, ev.Ref.ID)
	case platform.ReactionManageUsers:
		if err := r.gw.ClearReactions(ctx, ev.Ref); err != nil {
			r.logger.Debug("reaction clear failed", "error", err)
		}
		if err := r.sessions.Open(ctx, artifact.Correspondent); err != nil {
			r.logger.Error("menu open failed", "error", err, "correspondent", artifact.Correspondent)
		}
	}
}

// reject removes the artifact (first resolution wins), deletes the forwarded
// copy and its companion confirmation, and leaves the correspondent a
// transient rejection notice.
func (r *Router) reject(ctx context.Context, id platform.MessageID) {
	artifact, ok := r.pending.Take(id)
	if !ok {
		// A concurrent reply won, or the artifact is already gone.
		return
	}

	if err := r.gw.Delete(ctx, artifact.Ref); err != nil {
		r.logger.Debug("forward delete failed", "error", err)
	}
	if artifact.Confirmation != nil {
		if err := r.gw.Delete(ctx, *artifact.Confirmation); err != nil {
			r.logger.Debug("confirmation delete failed", "error", err)
		}
	}

	noticeRef, err := r.gw.Deliver(ctx, artifact.Correspondent, platform.Content{
		Body: "The recipient declined this message.",
	})
	if err != nil {
		r.logger.Debug("rejection notice delivery failed", "error", err, "correspondent", artifact.Correspondent)
		return
	}

	time.AfterFunc(r.cfg.RejectNoticeTTL, func() {
		deleteCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.gw.Delete(deleteCtx, noticeRef); err != nil {
			r.logger.Debug("rejection notice delete failed", "error", err)
		}
	})

	r.logger.Info("forward rejected", "correspondent", artifact.Correspondent, "message", id)
}

func (r *Router) notifyChannel(ctx context.Context, channel platform.ChannelID, text string) {
	if _, err := r.gw.Send(ctx, channel, text); err != nil {
		r.logger.Warn("channel notice failed", "error", err, "channel", channel)
	}
}
