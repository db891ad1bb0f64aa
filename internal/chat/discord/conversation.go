package discord

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/commands"
)

// conversation answers in the channel the message arrived on
type conversation struct {
	bot       *Bot
	channelID string
	guildID   string
	messageID string
}

func (c *conversation) Reply(ctx context.Context, reply commands.Reply) (commands.MessageRef, error) {
	ref := &discordgo.MessageReference{
		MessageID: c.messageID,
		ChannelID: c.channelID,
		GuildID:   c.guildID,
	}
	sent, err := c.bot.session.ChannelMessageSendComplex(c.channelID, toMessageSend(reply, ref),
		discordgo.WithContext(ctx))
	if err != nil {
		return commands.MessageRef{}, fmt.Errorf("send reply: %w", err)
	}
	return commands.MessageRef{ChannelID: sent.ChannelID, MessageID: sent.ID}, nil
}

func (c *conversation) AwaitReaction(
	ctx context.Context,
	ref commands.MessageRef,
	userID string,
	options []string,
	timeout time.Duration,
) (string, error) {
	ch := c.bot.waiters.add(ref.MessageID, userID, options)
	defer c.bot.waiters.remove(ref.MessageID)

	for _, emoji := range options {
		if err := c.bot.session.MessageReactionAdd(ref.ChannelID, ref.MessageID, emoji, discordgo.WithContext(ctx)); err != nil {
			c.bot.logger.Warn("failed to add reaction",
				slog.String("emoji", emoji),
				slog.String("error", err.Error()),
			)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case choice := <-ch:
		return choice, nil
	case <-timer.C:
		return "", model.ErrConfirmationTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type reactionWaiter struct {
	userID  string
	options []string
	ch      chan string
}

// reactionWaiters routes reactions to the prompt awaiting them, keyed by message id
type reactionWaiters struct {
	mu      sync.Mutex
	waiters map[string]*reactionWaiter
}

func newReactionWaiters() *reactionWaiters {
	return &reactionWaiters{waiters: make(map[string]*reactionWaiter)}
}

func (w *reactionWaiters) add(messageID, userID string, options []string) <-chan string {
	waiter := &reactionWaiter{userID: userID, options: options, ch: make(chan string, 1)}
	w.mu.Lock()
	w.waiters[messageID] = waiter
	w.mu.Unlock()
	return waiter.ch
}

func (w *reactionWaiters) remove(messageID string) {
	w.mu.Lock()
	delete(w.waiters, messageID)
	w.mu.Unlock()
}

// deliver hands emoji to the waiter on messageID if userID is the one it
// waits for and emoji is an offered option. It reports whether it was taken.
func (w *reactionWaiters) deliver(messageID, userID, emoji string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	waiter, ok := w.waiters[messageID]
	if !ok || waiter.userID != userID || !slices.Contains(waiter.options, emoji) {
		return false
	}
	select {
	case waiter.ch <- emoji:
		return true
	default:
		// already answered
		return false
	}
}

func (w *reactionWaiters) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters)
}
