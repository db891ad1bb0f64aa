package commands

import (
	"context"
	"time"

	"github.com/mcoot/pointsbot/internal/model"
)

// User is a chat participant
type User struct {
	ID       string
	Username string
	Bot      bool
}

// Mention returns the chat mention markup for the user
func (u User) Mention() string {
	return "<@" + u.ID + ">"
}

// Role is a named chat role
type Role struct {
	ID   string
	Name string
}

// Message is an inbound chat message, already stripped of platform types
type Message struct {
	ID           string
	ChannelID    string
	Content      string
	Author       User
	Mentions     []User
	RoleMentions []Role
	Evidence     model.PermissionEvidence
}

// FirstMention returns the first mentioned user
func (m Message) FirstMention() (User, bool) {
	if len(m.Mentions) == 0 {
		return User{}, false
	}
	return m.Mentions[0], true
}

// MessageRef identifies a sent reply
type MessageRef struct {
	ChannelID string
	MessageID string
}

// EmbedField is one titled block of an embed
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a structured reply: title plus field list
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
}

// Reply is either plain text or an embed
type Reply struct {
	Text  string
	Embed *Embed
}

// TextReply builds a plain text reply
func TextReply(text string) Reply {
	return Reply{Text: text}
}

// Reactions offered on the reset-all prompt
const (
	ReactionConfirm = "✅"
	ReactionCancel  = "❌"
)

// Conversation is the channel a message arrived on
type Conversation interface {
	// Reply answers the inbound message
	Reply(ctx context.Context, reply Reply) (MessageRef, error)
	// AwaitReaction offers options as reactions on ref and waits for userID
	// to pick one. It returns model.ErrConfirmationTimeout after timeout.
	AwaitReaction(ctx context.Context, ref MessageRef, userID string, options []string, timeout time.Duration) (string, error)
}
