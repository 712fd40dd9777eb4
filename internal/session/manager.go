// ABOUTME: Reaction-driven management menus for the owner
// ABOUTME: Single-use sessions; drill-downs edit the menu message in place

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/stormex-rc/courier/internal/conversation"
	"github.com/stormex-rc/courier/internal/history"
	"github.com/stormex-rc/courier/internal/platform"
)

const (
	// HistoryViewLimit is how many entries the history view renders.
	HistoryViewLimit = 10
	// TruncateAt caps rendered entry content in the history view.
	TruncateAt = 500
)

// Kind identifies which menu a session is showing.
type Kind int

const (
	MainMenu Kind = iota
	RemoveList
	HistoryView
)

// Session is one live menu message shown to the owner. picks maps numbered
// affordances to responder ids for the remove-list.
type Session struct {
	Ref           platform.MessageRef
	Kind          Kind
	Correspondent platform.UserID
	picks         map[platform.Reaction]platform.UserID
}

// Inviter starts the responder-invitation workflow. Satisfied by
// invite.Workflow.
type Inviter interface {
	Invite(ctx context.Context, correspondent platform.UserID)
}

// Options configures the manager.
type Options struct {
	Owner platform.UserID
}

// Manager owns the session table: at most one live session per menu message.
type Manager struct {
	gw      platform.Gateway
	reg     *conversation.Registry
	inviter Inviter
	opts    Options
	logger  *slog.Logger

	mu   sync.Mutex
	byID map[platform.MessageID]*Session
}

// NewManager creates a manager.
func NewManager(gw platform.Gateway, reg *conversation.Registry, inviter Inviter, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		gw:      gw,
		reg:     reg,
		inviter: inviter,
		opts:    opts,
		logger:  logger.With("component", "session"),
		byID:    make(map[platform.MessageID]*Session),
	}
}

// Open delivers a fresh main menu for a correspondent to the owner and
// registers its session.
func (m *Manager) Open(ctx context.Context, correspondent platform.UserID) error {
	content, reactions := m.renderMain(ctx, correspondent)
	ref, err := m.gw.Deliver(ctx, m.opts.Owner, content, reactions...)
	if err != nil {
		return fmt.Errorf("delivering menu: %w", err)
	}

	m.register(&Session{Ref: ref, Kind: MainMenu, Correspondent: correspondent})
	return nil
}

// Knows reports whether a message id has a live session.
func (m *Manager) Knows(id platform.MessageID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok
}

// HandleReaction processes a reaction on a menu message. Returns true when
// the message id has a live session, even if the reaction is ignored.
// Only the first valid reaction wins: the session record is removed
// atomically before any side effect runs.
func (m *Manager) HandleReaction(ctx context.Context, ev platform.ReactionEvent) bool {
	reaction, known := platform.FromSymbol(ev.Symbol)

	m.mu.Lock()
	s, ok := m.byID[ev.Ref.ID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if ev.Reactor != m.opts.Owner || !known || !s.accepts(reaction) {
		m.mu.Unlock()
		return true
	}
	delete(m.byID, ev.Ref.ID)
	m.mu.Unlock()

	switch s.Kind {
	case MainMenu:
		m.handleMain(ctx, s, reaction)
	case RemoveList:
		m.handleRemoveList(ctx, s, reaction)
	case HistoryView:
		// Back is the only affordance.
		m.show(ctx, s, MainMenu)
	}
	return true
}

// accepts reports whether a reaction is a valid transition for this session.
// Invalid reactions must not consume the session.
func (s *Session) accepts(r platform.Reaction) bool {
	switch s.Kind {
	case MainMenu:
		switch r {
		case platform.ReactionAddUser, platform.ReactionRemoveUser,
			platform.ReactionViewHistory, platform.ReactionClose:
			return true
		}
	case RemoveList:
		if r == platform.ReactionBack {
			return true
		}
		_, picked := s.picks[r]
		return picked
	case HistoryView:
		return r == platform.ReactionBack
	}
	return false
}

func (m *Manager) handleMain(ctx context.Context, s *Session, reaction platform.Reaction) {
	switch reaction {
	case platform.ReactionAddUser:
		// Leaf action: the menu session ends and the invitation workflow
		// takes over the owner's channel.
		m.inviter.Invite(ctx, s.Correspondent)
	case platform.ReactionRemoveUser:
		m.show(ctx, s, RemoveList)
	case platform.ReactionViewHistory:
		m.show(ctx, s, HistoryView)
	case platform.ReactionClose:
		if err := m.gw.Delete(ctx, s.Ref); err != nil {
			m.logger.Debug("menu delete failed", "error", err)
		}
	}
}

func (m *Manager) handleRemoveList(ctx context.Context, s *Session, reaction platform.Reaction) {
	if reaction == platform.ReactionBack {
		m.show(ctx, s, MainMenu)
		return
	}

	responder, ok := s.picks[reaction]
	if !ok {
		return
	}

	if m.reg.Revoke(s.Correspondent, responder) {
		m.logger.Info("responder removed", "responder", responder, "correspondent", s.Correspondent)
		if _, err := m.gw.Deliver(ctx, responder, platform.Content{
			Body: "You are no longer a responder for this conversation.",
		}); err != nil {
			m.logger.Debug("removal notice delivery failed", "error", err, "responder", responder)
		}
		if _, err := m.gw.Deliver(ctx, m.opts.Owner, platform.Content{
			Body: fmt.Sprintf("Removed %s from the responder list.", m.displayName(ctx, responder)),
		}); err != nil {
			m.logger.Warn("owner notice delivery failed", "error", err)
		}
	}

	// Drill back up to the refreshed main menu.
	m.show(ctx, s, MainMenu)
}

// show replaces the menu message content in place and registers the new
// session under the same message id.
func (m *Manager) show(ctx context.Context, s *Session, kind Kind) {
	var content platform.Content
	var reactions []platform.Reaction
	next := &Session{Ref: s.Ref, Kind: kind, Correspondent: s.Correspondent}

	switch kind {
	case MainMenu:
		content, reactions = m.renderMain(ctx, s.Correspondent)
	case RemoveList:
		content, reactions, next.picks = m.renderRemoveList(ctx, s.Correspondent)
	case HistoryView:
		content = m.renderHistory(ctx, s.Correspondent)
		reactions = []platform.Reaction{platform.ReactionBack}
	}

	if err := m.gw.ClearReactions(ctx, s.Ref); err != nil {
		m.logger.Debug("reaction clear failed", "error", err)
	}
	if err := m.gw.Edit(ctx, s.Ref, content); err != nil {
		m.logger.Error("menu edit failed", "error", err, "message", s.Ref.ID)
		return
	}
	for _, r := range reactions {
		if err := m.gw.React(ctx, s.Ref, r); err != nil {
			m.logger.Debug("menu reaction failed", "error", err, "reaction", r.Symbol())
		}
	}

	m.register(next)
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.Ref.ID] = s
}

func (m *Manager) renderMain(ctx context.Context, correspondent platform.UserID) (platform.Content, []platform.Reaction) {
	responders := m.reg.ListAuthorized(correspondent)

	var body strings.Builder
	if len(responders) == 0 {
		body.WriteString("No responders besides you.\n")
	} else {
		body.WriteString("Responders:\n")
		for _, line := range lo.Map(responders, func(id platform.UserID, _ int) string {
			return fmt.Sprintf("- %s (%s)", m.displayName(ctx, id), id)
		}) {
			body.WriteString(line + "\n")
		}
	}
	fmt.Fprintf(&body, "History: %d message(s)\n\n", m.reg.HistoryLen(correspondent))
	fmt.Fprintf(&body, "%s add responder  %s remove responder  %s view history  %s close",
		platform.ReactionAddUser.Symbol(),
		platform.ReactionRemoveUser.Symbol(),
		platform.ReactionViewHistory.Symbol(),
		platform.ReactionClose.Symbol(),
	)

	content := platform.Content{
		Title: "Conversation controls — " + m.displayName(ctx, correspondent),
		Body:  body.String(),
	}
	reactions := []platform.Reaction{
		platform.ReactionAddUser, platform.ReactionRemoveUser,
		platform.ReactionViewHistory, platform.ReactionClose,
	}
	return content, reactions
}

func (m *Manager) renderRemoveList(ctx context.Context, correspondent platform.UserID) (platform.Content, []platform.Reaction, map[platform.Reaction]platform.UserID) {
	responders := m.reg.ListAuthorized(correspondent)
	title := "Remove responder — " + m.displayName(ctx, correspondent)

	if len(responders) == 0 {
		content := platform.Content{Title: title, Body: "Nothing to remove."}
		return content, []platform.Reaction{platform.ReactionBack}, nil
	}

	if len(responders) > platform.MaxNumbered {
		responders = responders[:platform.MaxNumbered]
	}

	picks := make(map[platform.Reaction]platform.UserID, len(responders))
	var body strings.Builder
	reactions := make([]platform.Reaction, 0, len(responders)+1)
	for i, id := range responders {
		r, _ := platform.Numbered(i + 1)
		picks[r] = id
		reactions = append(reactions, r)
		fmt.Fprintf(&body, "%s %s (%s)\n", r.Symbol(), m.displayName(ctx, id), id)
	}
	reactions = append(reactions, platform.ReactionBack)

	return platform.Content{Title: title, Body: body.String()}, reactions, picks
}

func (m *Manager) renderHistory(ctx context.Context, correspondent platform.UserID) platform.Content {
	entries := m.reg.RecentHistory(correspondent, HistoryViewLimit)
	title := "History — " + m.displayName(ctx, correspondent)

	if len(entries) == 0 {
		return platform.Content{Title: title, Body: "No messages yet."}
	}

	lines := lo.Map(entries, func(e history.Entry, _ int) string {
		name := e.SenderName
		if name == "" {
			name = m.displayName(ctx, e.Sender)
		}
		return fmt.Sprintf("[%s] %s: %s", e.At.Format("15:04"), name, truncate(e.Content, TruncateAt))
	})
	return platform.Content{Title: title, Body: strings.Join(lines, "\n")}
}

func (m *Manager) displayName(ctx context.Context, id platform.UserID) string {
	if u, err := m.gw.ResolveUser(ctx, id); err == nil && u.DisplayName != "" {
		return u.DisplayName
	}
	return "user " + string(id)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
