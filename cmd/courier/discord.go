// ABOUTME: Discord implementation of the platform.Gateway interface
// ABOUTME: Translates REST calls and gateway events between discordgo and the relay core

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/stormex-rc/courier/internal/config"
	"github.com/stormex-rc/courier/internal/platform"
	"github.com/stormex-rc/courier/internal/relay"
)

const embedColor = 0x5865F2

// DiscordGateway adapts a discordgo session to the relay core. DM channel ids
// are cached per recipient so repeated deliveries skip the channel-create call.
type DiscordGateway struct {
	session *discordgo.Session
	cfg     config.DiscordConfig
	logger  *slog.Logger

	mu         sync.Mutex
	dmChannels map[platform.UserID]string
}

// NewDiscordGateway creates a gateway for the given bot token. The session is
// configured but not opened; call Run to connect.
func NewDiscordGateway(cfg config.DiscordConfig, logger *slog.Logger) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentDirectMessages |
		discordgo.IntentDirectMessageReactions |
		discordgo.IntentMessageContent

	return &DiscordGateway{
		session:    session,
		cfg:        cfg,
		logger:     logger.With("component", "discord"),
		dmChannels: make(map[platform.UserID]string),
	}, nil
}

// Run connects to Discord, routes events into the router until the context is
// canceled, then closes the connection.
func (g *DiscordGateway) Run(ctx context.Context, router *relay.Router) error {
	g.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		g.logger.Info("connected", "user", r.User.Username, "guilds", len(r.Guilds))
		g.updatePresence()
	})
	g.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
			return
		}
		msg := g.toMessage(m.Message)
		go router.HandleMessage(ctx, msg)
	})
	g.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.UserID == s.State.User.ID {
			return
		}
		go router.HandleReactionAdd(ctx, toReactionEvent(r.MessageReaction))
	})
	g.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		if r.UserID == s.State.User.ID {
			return
		}
		go router.HandleReactionRemove(ctx, toReactionEvent(r.MessageReaction))
	})

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("opening gateway connection: %w", err)
	}

	<-ctx.Done()

	g.logger.Info("shutting down gateway connection")
	if err := g.session.Close(); err != nil {
		return fmt.Errorf("closing gateway connection: %w", err)
	}
	return nil
}

// Deliver sends an embed to the recipient's DM channel and attaches the
// reaction affordances. Reaction failures are logged, not fatal: the message
// is already delivered.
func (g *DiscordGateway) Deliver(ctx context.Context, to platform.UserID, content platform.Content, reactions ...platform.Reaction) (platform.MessageRef, error) {
	channelID, err := g.dmChannel(ctx, to)
	if err != nil {
		return platform.MessageRef{}, err
	}

	msg, err := g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{renderEmbed(content)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.MessageRef{}, translateErr(err)
	}

	ref := platform.MessageRef{Channel: platform.ChannelID(channelID), ID: platform.MessageID(msg.ID)}
	for _, r := range reactions {
		if err := g.session.MessageReactionAdd(channelID, msg.ID, r.Symbol(), discordgo.WithContext(ctx)); err != nil {
			g.logger.Warn("attaching reaction failed", "error", err, "message", msg.ID, "reaction", r.Symbol())
		}
	}
	return ref, nil
}

// Send posts a plain-text notice into an existing channel.
func (g *DiscordGateway) Send(ctx context.Context, channel platform.ChannelID, text string) (platform.MessageRef, error) {
	msg, err := g.session.ChannelMessageSend(string(channel), text, discordgo.WithContext(ctx))
	if err != nil {
		return platform.MessageRef{}, translateErr(err)
	}
	return platform.MessageRef{Channel: channel, ID: platform.MessageID(msg.ID)}, nil
}

// React adds a single reaction to a message.
func (g *DiscordGateway) React(ctx context.Context, ref platform.MessageRef, reaction platform.Reaction) error {
	err := g.session.MessageReactionAdd(string(ref.Channel), string(ref.ID), reaction.Symbol(), discordgo.WithContext(ctx))
	return translateErr(err)
}

// ClearReactions removes every reaction from a message.
func (g *DiscordGateway) ClearReactions(ctx context.Context, ref platform.MessageRef) error {
	err := g.session.MessageReactionsRemoveAll(string(ref.Channel), string(ref.ID), discordgo.WithContext(ctx))
	return translateErr(err)
}

// Delete removes a message.
func (g *DiscordGateway) Delete(ctx context.Context, ref platform.MessageRef) error {
	err := g.session.ChannelMessageDelete(string(ref.Channel), string(ref.ID), discordgo.WithContext(ctx))
	return translateErr(err)
}

// Edit replaces a message's embed in place.
func (g *DiscordGateway) Edit(ctx context.Context, ref platform.MessageRef, content platform.Content) error {
	edit := discordgo.NewMessageEdit(string(ref.Channel), string(ref.ID)).SetEmbed(renderEmbed(content))
	_, err := g.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return translateErr(err)
}

// ResolveUser looks a user up by id.
func (g *DiscordGateway) ResolveUser(ctx context.Context, id platform.UserID) (*platform.User, error) {
	u, err := g.session.User(string(id), discordgo.WithContext(ctx))
	if err != nil {
		return nil, translateErr(err)
	}
	return &platform.User{ID: id, DisplayName: displayName(u)}, nil
}

// dmChannel returns the DM channel id for a recipient, creating it on first use.
func (g *DiscordGateway) dmChannel(ctx context.Context, to platform.UserID) (string, error) {
	g.mu.Lock()
	if id, ok := g.dmChannels[to]; ok {
		g.mu.Unlock()
		return id, nil
	}
	g.mu.Unlock()

	ch, err := g.session.UserChannelCreate(string(to), discordgo.WithContext(ctx))
	if err != nil {
		return "", translateErr(err)
	}

	g.mu.Lock()
	g.dmChannels[to] = ch.ID
	g.mu.Unlock()
	return ch.ID, nil
}

func (g *DiscordGateway) updatePresence() {
	data := discordgo.UpdateStatusData{Status: g.cfg.Status}
	if g.cfg.ActivityName != "" {
		data.Activities = []*discordgo.Activity{{
			Name: g.cfg.ActivityName,
			Type: activityType(g.cfg.ActivityType),
		}}
	}
	if err := g.session.UpdateStatusComplex(data); err != nil {
		g.logger.Warn("presence update failed", "error", err)
	}
}

func activityType(name string) discordgo.ActivityType {
	switch name {
	case "listening":
		return discordgo.ActivityTypeListening
	case "watching":
		return discordgo.ActivityTypeWatching
	case "competing":
		return discordgo.ActivityTypeCompeting
	case "streaming":
		return discordgo.ActivityTypeStreaming
	default:
		return discordgo.ActivityTypeGame
	}
}

func (g *DiscordGateway) toMessage(m *discordgo.Message) platform.Message {
	msg := platform.Message{
		Ref:        platform.MessageRef{Channel: platform.ChannelID(m.ChannelID), ID: platform.MessageID(m.ID)},
		Author:     platform.UserID(m.Author.ID),
		AuthorName: displayName(m.Author),
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		DM:         m.GuildID == "",
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, a.URL)
	}
	if ref := m.MessageReference; ref != nil && ref.MessageID != "" {
		msg.ReplyTo = &platform.MessageRef{
			Channel: platform.ChannelID(ref.ChannelID),
			ID:      platform.MessageID(ref.MessageID),
		}
	}
	return msg
}

func toReactionEvent(r *discordgo.MessageReaction) platform.ReactionEvent {
	return platform.ReactionEvent{
		Ref:     platform.MessageRef{Channel: platform.ChannelID(r.ChannelID), ID: platform.MessageID(r.MessageID)},
		Reactor: platform.UserID(r.UserID),
		Symbol:  r.Emoji.APIName(),
	}
}

func renderEmbed(content platform.Content) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       content.Title,
		Description: content.Body,
		Color:       embedColor,
	}
	if content.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: content.Footer}
	}
	for i, url := range content.Attachments {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Attachment %d", i+1),
			Value: url,
		})
	}
	return e
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// translateErr maps discordgo REST failures onto the platform sentinel errors
// the relay core branches on.
func translateErr(err error) error {
	if err == nil {
		return nil
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", platform.ErrForbidden, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", platform.ErrNotFound, err)
		}
	}

	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return fmt.Errorf("%w: %v", platform.ErrRateLimited, err)
	}
	return err
}
