// Package discord connects the command router to a Discord bot session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/pointsbot/internal/services/commands"
)

// Intents the bot needs: guild messages with content, and reactions for
// the reset-all confirmation
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsMessageContent

// MessageHandler processes inbound chat messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, conv commands.Conversation, msg commands.Message) error
}

// Bot relays Discord messages to a MessageHandler
type Bot struct {
	session *discordgo.Session
	handler MessageHandler
	waiters *reactionWaiters
	logger  *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	removes []func()
}

// New creates a bot for token. It does not connect until Start.
func New(token string, handler MessageHandler, logger *slog.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = Intents

	return &Bot{
		session: session,
		handler: handler,
		waiters: newReactionWaiters(),
		logger:  logger.With(slog.String("component", "discord")),
		ctx:     context.Background(),
	}, nil
}

// Start opens the gateway connection. Handlers run with ctx.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.removes = append(b.removes,
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(b.onMessageCreate),
		b.session.AddHandler(b.onReactionAdd),
	)
	b.mu.Unlock()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway
func (b *Bot) Close() error {
	b.mu.Lock()
	for _, remove := range b.removes {
		remove()
	}
	b.removes = nil
	b.mu.Unlock()
	return b.session.Close()
}

func (b *Bot) context() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("discord bot connected",
		slog.String("user", r.User.Username),
		slog.Int("guilds", len(r.Guilds)),
	)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	msg := toMessage(m.Message, b.evidence(s, m.Message))
	conv := &conversation{
		bot:       b,
		channelID: m.ChannelID,
		guildID:   m.GuildID,
		messageID: m.ID,
	}

	if err := b.handler.HandleMessage(b.context(), conv, msg); err != nil {
		b.logger.Error("failed to handle message",
			slog.String("channel_id", m.ChannelID),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.waiters.deliver(r.MessageID, r.UserID, r.Emoji.Name)
}

// evidence collects the caller's administrator flag and role names
func (b *Bot) evidence(s *discordgo.Session, m *discordgo.Message) permissionInput {
	in := permissionInput{}
	if m.GuildID == "" {
		return in
	}

	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		b.logger.Warn("failed to resolve permissions",
			slog.String("user_id", m.Author.ID),
			slog.String("error", err.Error()),
		)
	} else {
		in.permissions = perms
	}

	if m.Member != nil {
		in.roleIDs = m.Member.Roles
	}
	in.roleName = func(id string) string {
		if role, err := s.State.Role(m.GuildID, id); err == nil {
			return role.Name
		}
		return ""
	}
	return in
}
