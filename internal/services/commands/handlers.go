package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcoot/pointsbot/internal/model"
)

func (r *Router) handleHelp(ctx context.Context, req *request) error {
	_, err := req.conv.Reply(ctx, Reply{Embed: helpEmbed(req.settings.Prefix)})
	return err
}

func (r *Router) handleRankings(ctx context.Context, req *request) error {
	page := 1
	if len(req.args) > 0 {
		if n, err := strconv.Atoi(req.args[0]); err == nil && n >= 1 {
			page = n
		}
	}
	ranking, err := r.query.Ranking(ctx, page)
	if err != nil {
		return err
	}
	return req.reply(ctx, rankingText(ranking, req.settings.Prefix))
}

func (r *Router) handleStats(ctx context.Context, req *request) error {
	target := req.msg.Author
	if mention, ok := req.msg.FirstMention(); ok {
		if mention.ID != req.msg.Author.ID && !req.tier.AtLeast(model.TierDM) {
			return req.reply(ctx, "You can only view your own stats. Only DMs and admins can view others' stats.")
		}
		target = mention
	}

	player, err := r.ledger.GetPlayerByDiscordID(ctx, target.ID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return req.reply(ctx, fmt.Sprintf("%s hasn't earned any PL yet.", target.Mention()))
	}
	if err != nil {
		return err
	}

	stats, err := r.query.PlayerStats(ctx, player.ID, r.cfg.StatsHistoryLimit)
	if err != nil {
		return err
	}
	_, err = req.conv.Reply(ctx, Reply{Embed: statsEmbed(target.Username, stats, r.clock.Now(), r.cfg.Locale)})
	return err
}

func (r *Router) handleAddPoints(ctx context.Context, req *request) error {
	if !req.tier.AtLeast(model.TierDM) {
		return req.reply(ctx, "You don't have permission to add points. Only DMs and admins can do this.")
	}
	if len(req.args) < 2 {
		return req.reply(ctx, fmt.Sprintf("Please provide a player and an amount: `%saddpoints @player [amount] [reason]`", req.settings.Prefix))
	}
	target, ok := req.msg.FirstMention()
	if !ok {
		return req.reply(ctx, "Please mention a valid player.")
	}
	amount, err := strconv.Atoi(req.args[1])
	if err != nil || amount <= 0 {
		return req.reply(ctx, "Please provide a valid positive number of PL to add.")
	}
	reason := strings.Join(req.args[2:], " ")
	if reason == "" {
		reason = "No reason provided"
	}

	player, err := r.ledger.EnsurePlayer(ctx, target.ID, target.Username)
	if err != nil {
		return err
	}
	updated, err := r.ledger.AddPoints(ctx, player.ID, amount, reason, req.msg.Author.Username)
	if err != nil {
		return err
	}
	return req.reply(ctx, fmt.Sprintf("Added %d PL to %s for \"%s\"\nCurrent total: %d PL",
		amount, target.Mention(), reason, updated.Points))
}

func (r *Router) handleSetPoints(ctx context.Context, req *request) error {
	if !req.tier.AtLeast(model.TierDM) {
		return req.reply(ctx, "You don't have permission to set PL. Only DMs and admins can do this.")
	}
	target, ok := req.msg.FirstMention()
	if len(req.args) < 2 || !ok {
		return req.reply(ctx, fmt.Sprintf("Please provide a player and an amount: `%ssetpoints @player [amount]`", req.settings.Prefix))
	}
	amount, err := strconv.Atoi(req.args[1])
	if err != nil || amount < 0 {
		return req.reply(ctx, "Please provide a valid non-negative number of PL.")
	}

	player, err := r.ledger.EnsurePlayer(ctx, target.ID, target.Username)
	if err != nil {
		return err
	}
	if _, err := r.ledger.SetPoints(ctx, player.ID, amount, req.msg.Author.Username); err != nil {
		return err
	}
	return req.reply(ctx, fmt.Sprintf("Set %s's PL to %d", target.Mention(), amount))
}

func (r *Router) handleResetPoints(ctx context.Context, req *request) error {
	if !req.tier.AtLeast(model.TierAdmin) {
		return req.reply(ctx, "You don't have permission to reset PL. Only server admins can do this.")
	}
	target, ok := req.msg.FirstMention()
	if len(req.args) < 1 || !ok {
		return req.reply(ctx, fmt.Sprintf("Please mention a player: `%sresetpoints @player`", req.settings.Prefix))
	}

	player, err := r.ledger.GetPlayerByDiscordID(ctx, target.ID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return req.reply(ctx, fmt.Sprintf("%s doesn't have any PL to reset.", target.Mention()))
	}
	if err != nil {
		return err
	}

	r.pending.Put(req.msg.Author.ID, target.ID, player.ID)
	return req.reply(ctx, fmt.Sprintf("Are you sure you want to reset PL for %s? Type `%sconfirm` to continue.",
		target.Mention(), req.settings.Prefix))
}

func (r *Router) handleConfirm(ctx context.Context, req *request) error {
	playerID, ok := r.pending.Take(req.msg.Author.ID)
	if !ok {
		return req.reply(ctx, msgNothingToConfirm)
	}

	player, err := r.ledger.GetPlayer(ctx, playerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return req.reply(ctx, "Player not found. They may have been deleted.")
	}
	if err != nil {
		return err
	}

	previous := player.Points
	if _, err := r.ledger.ResetPoints(ctx, playerID, req.msg.Author.Username); err != nil {
		return err
	}
	return req.reply(ctx, fmt.Sprintf("Reset all PL for %s. Previous total: %d PL.", player.Mention(), previous))
}

func (r *Router) handleResetAll(ctx context.Context, req *request) error {
	if !req.tier.AtLeast(model.TierAdmin) {
		return req.reply(ctx, "Only server administrators can reset all player points.")
	}

	ref, err := req.conv.Reply(ctx, TextReply(
		"⚠️ Are you sure you want to reset ALL player PL? This cannot be undone. "+
			"React with "+ReactionConfirm+" to confirm or "+ReactionCancel+" to cancel.",
	))
	if err != nil {
		return err
	}

	choice, err := req.conv.AwaitReaction(ctx, ref, req.msg.Author.ID,
		[]string{ReactionConfirm, ReactionCancel}, r.cfg.ResetAllTimeout)
	if err != nil {
		if model.KindOf(err) == model.TimeoutKind {
			return req.reply(ctx, "Reset cancelled (timed out).")
		}
		return err
	}
	if choice != ReactionConfirm {
		return req.reply(ctx, "Reset cancelled.")
	}

	count, err := r.ledger.ResetAllPoints(ctx, req.msg.Author.Username)
	if err != nil {
		r.logger.Error("reset all partially applied",
			slog.Int("reset_count", count),
			slog.String("error", err.Error()),
		)
		return err
	}
	return req.reply(ctx, fmt.Sprintf("Reset PL for all %d players.", count))
}

func (r *Router) handleSetPrefix(ctx context.Context, req *request) error {
	if !req.tier.AtLeast(model.TierAdmin) {
		return req.reply(ctx, "Only server administrators can change the bot prefix.")
	}
	if len(req.args) == 0 {
		return req.reply(ctx, fmt.Sprintf("Please provide a new prefix: `%ssetprefix [new_prefix]`", req.settings.Prefix))
	}

	updated := req.settings
	updated.Prefix = req.args[0]
	if err := r.settings.SaveSettings(ctx, updated); err != nil {
		return err
	}
	r.logger.Info("prefix changed",
		slog.String("prefix", updated.Prefix),
		slog.String("author_id", req.msg.Author.ID),
	)
	return req.reply(ctx, fmt.Sprintf("Command prefix changed to `%s`", updated.Prefix))
}

func (r *Router) handleSetDMRole(ctx context.Context, req *request) error {
	if !req.tier.AtLeast(model.TierAdmin) {
		return req.reply(ctx, "Only server administrators can change the DM role.")
	}

	var roleName string
	if len(req.msg.RoleMentions) > 0 {
		roleName = req.msg.RoleMentions[0].Name
	} else {
		roleName = strings.Join(req.args, " ")
	}
	if roleName == "" {
		return req.reply(ctx, fmt.Sprintf("Please mention a role: `%ssetdmrole @role`", req.settings.Prefix))
	}

	updated := req.settings
	updated.DMRole = roleName
	if err := r.settings.SaveSettings(ctx, updated); err != nil {
		return err
	}
	r.logger.Info("dm role changed",
		slog.String("dm_role", roleName),
		slog.String("author_id", req.msg.Author.ID),
	)
	return req.reply(ctx, "DM role set to "+roleName)
}
