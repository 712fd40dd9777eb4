// ABOUTME: Classifies inbound gateway events and dispatches to the state machines
// ABOUTME: Holds the four registries; reaction lookups go pending -> invite -> session

package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/stormex-rc/courier/internal/conversation"
	"github.com/stormex-rc/courier/internal/dedupe"
	"github.com/stormex-rc/courier/internal/invite"
	"github.com/stormex-rc/courier/internal/pending"
	"github.com/stormex-rc/courier/internal/platform"
	"github.com/stormex-rc/courier/internal/session"
)

// Config carries the router's tunables.
type Config struct {
	Owner         platform.UserID
	CommandPrefix string

	// RejectNoticeTTL is how long a rejection notice stays before it
	// self-deletes.
	RejectNoticeTTL time.Duration
}

// Router owns the registries and classifies every inbound event. One Router
// per process; handlers are invoked on per-event goroutines by the gateway
// adapter and synchronize through the registries.
type Router struct {
	gw       platform.Gateway
	reg      *conversation.Registry
	pending  *pending.Table
	invites  *invite.Workflow
	sessions *session.Manager
	seen     *dedupe.Cache
	cfg      Config
	logger   *slog.Logger
}

// New wires a router from its registries.
func New(gw platform.Gateway, reg *conversation.Registry, tbl *pending.Table, invites *invite.Workflow, sessions *session.Manager, seen *dedupe.Cache, cfg Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RejectNoticeTTL <= 0 {
		cfg.RejectNoticeTTL = 5 * time.Second
	}
	return &Router{
		gw:       gw,
		reg:      reg,
		pending:  tbl,
		invites:  invites,
		sessions: sessions,
		seen:     seen,
		cfg:      cfg,
		logger:   logger.With("component", "relay"),
	}
}

// HandleMessage classifies an inbound message event. Fire-and-forget: all
// failures are logged or surfaced to the humans involved, never returned.
func (r *Router) HandleMessage(ctx context.Context, msg platform.Message) {
	if !msg.DM {
		return
	}
	if r.seen != nil && r.seen.CheckAndMark(string(msg.Ref.ID)) {
		r.logger.Debug("duplicate message event dropped", "message", msg.Ref.ID)
		return
	}
	if r.cfg.CommandPrefix != "" && strings.HasPrefix(msg.Content, r.cfg.CommandPrefix) {
		return
	}

	// An outstanding invite prompt gets first claim on owner messages in
	// its channel.
	if r.invites.Offer(msg) {
		return
	}

	if msg.ReplyTo != nil {
		r.resolveReply(ctx, msg)
		return
	}

	// Non-reply DMs from the owner or a responder carry no routing meaning.
	if msg.Author == r.cfg.Owner || r.reg.IsResponder(msg.Author) {
		return
	}

	r.forward(ctx, msg)
}

// HandleReactionAdd looks the target message up across the three registries
// in priority order and dispatches to the first match.
func (r *Router) HandleReactionAdd(ctx context.Context, ev platform.ReactionEvent) {
	if artifact, ok := r.pending.Lookup(ev.Ref.ID); ok {
		r.handleForwardReaction(ctx, artifact, ev)
		return
	}
	if r.invites.HandleReaction(ctx, ev) {
		return
	}
	if r.sessions.HandleReaction(ctx, ev) {
		return
	}
	r.logger.Debug("reaction on unknown message ignored", "message", ev.Ref.ID)
}

// HandleReactionRemove is an intentional no-op: no workflow currently depends
// on reaction removal. Kept as the extension point for when one does.
func (r *Router) HandleReactionRemove(ctx context.Context, ev platform.ReactionEvent) {
	r.logger.Debug("reaction removed", "message", ev.Ref.ID, "reactor", ev.Reactor)
}
