package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/commands"
)

// permissionInput is the raw platform data behind model.PermissionEvidence
type permissionInput struct {
	permissions int64
	roleIDs     []string
	roleName    func(id string) string
}

func (in permissionInput) evidence() model.PermissionEvidence {
	ev := model.PermissionEvidence{
		Administrator: in.permissions&discordgo.PermissionAdministrator != 0,
	}
	if in.roleName == nil {
		return ev
	}
	for _, id := range in.roleIDs {
		if name := in.roleName(id); name != "" {
			ev.RoleNames = append(ev.RoleNames, name)
		}
	}
	return ev
}

func toUser(u *discordgo.User) commands.User {
	if u == nil {
		return commands.User{}
	}
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return commands.User{ID: u.ID, Username: name, Bot: u.Bot}
}

func toMessage(m *discordgo.Message, in permissionInput) commands.Message {
	msg := commands.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Author:    toUser(m.Author),
		Evidence:  in.evidence(),
	}
	for _, u := range m.Mentions {
		msg.Mentions = append(msg.Mentions, toUser(u))
	}
	for _, id := range m.MentionRoles {
		role := commands.Role{ID: id}
		if in.roleName != nil {
			role.Name = in.roleName(id)
		}
		msg.RoleMentions = append(msg.RoleMentions, role)
	}
	return msg
}

func toEmbed(e *commands.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if e.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return embed
}

func toMessageSend(reply commands.Reply, ref *discordgo.MessageReference) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content:   reply.Text,
		Reference: ref,
	}
	if embed := toEmbed(reply.Embed); embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}
	return send
}
