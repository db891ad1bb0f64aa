// Package commands maps prefixed chat messages onto ledger operations and
// read-only queries, enforcing permission tiers.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/pointsbot/internal/dependencies/clock"
	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/ledger"
	"github.com/mcoot/pointsbot/internal/services/query"
)

// Reply texts shared by several paths
const (
	msgGenericError     = "An error occurred while processing your command."
	msgNothingToConfirm = "There's nothing to confirm."
)

// SettingsStore persists the mutable bot settings
type SettingsStore interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
}

// Config holds router behavior settings
type Config struct {
	// Defaults applies to settings never changed through chat
	Defaults        model.Settings
	Locale          query.Locale
	PendingResetTTL time.Duration
	ResetAllTimeout time.Duration
	// StatsHistoryLimit bounds the history lines in a stats reply
	StatsHistoryLimit int
}

// DefaultConfig returns the standard router configuration
func DefaultConfig() Config {
	return Config{
		Defaults:          model.DefaultSettings(),
		Locale:            query.DefaultLocale,
		PendingResetTTL:   5 * time.Minute,
		ResetAllTimeout:   30 * time.Second,
		StatsHistoryLimit: 5,
	}
}

// request carries one inbound command through its handler
type request struct {
	conv     Conversation
	msg      Message
	args     []string
	settings model.Settings
	tier     model.Tier
}

func (r *request) reply(ctx context.Context, text string) error {
	_, err := r.conv.Reply(ctx, TextReply(text))
	return err
}

type handlerFunc func(ctx context.Context, req *request) error

// Router dispatches chat commands
type Router struct {
	ledger   *ledger.Service
	query    *query.Service
	settings SettingsStore
	pending  *PendingResets
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config

	handlers map[string]handlerFunc
}

// NewRouter creates a new Router
func NewRouter(
	ledgerService *ledger.Service,
	queryService *query.Service,
	settings SettingsStore,
	clock clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Router {
	r := &Router{
		ledger:   ledgerService,
		query:    queryService,
		settings: settings,
		pending:  NewPendingResets(clock, cfg.PendingResetTTL),
		clock:    clock,
		logger:   logger.With(slog.String("component", "commands")),
		cfg:      cfg,
	}
	r.handlers = map[string]handlerFunc{
		"help":        r.handleHelp,
		"rankings":    r.handleRankings,
		"leaderboard": r.handleRankings,
		"stats":       r.handleStats,
		"addpoints":   r.handleAddPoints,
		"setpoints":   r.handleSetPoints,
		"resetpoints": r.handleResetPoints,
		"confirm":     r.handleConfirm,
		"resetall":    r.handleResetAll,
		"setprefix":   r.handleSetPrefix,
		"setdmrole":   r.handleSetDMRole,
	}
	return r
}

// Pending exposes the router's pending reset sessions
func (r *Router) Pending() *PendingResets {
	return r.pending
}

// Settings returns the active settings with defaults applied
func (r *Router) Settings(ctx context.Context) (model.Settings, error) {
	stored, err := r.settings.GetSettings(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	return stored.WithDefaults(r.cfg.Defaults.WithDefaults(model.DefaultSettings())), nil
}

// ParseCommand splits content into a lower-cased verb and its arguments.
// ok is false when content does not start with prefix or names no verb.
func ParseCommand(content, prefix string) (verb string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// HandleMessage runs the command in msg, if any, replying on conv.
// Failures are reported to the caller as a generic message and logged.
func (r *Router) HandleMessage(ctx context.Context, conv Conversation, msg Message) (err error) {
	if msg.Author.Bot {
		return nil
	}

	settings, err := r.Settings(ctx)
	if err != nil {
		r.logger.Error("failed to load settings", slog.String("error", err.Error()))
		// Without stored settings only the default prefix can be recognised
		prefix := r.cfg.Defaults.WithDefaults(model.DefaultSettings()).Prefix
		if _, _, ok := ParseCommand(msg.Content, prefix); ok {
			req := &request{conv: conv, msg: msg}
			if replyErr := req.reply(ctx, msgGenericError); replyErr != nil {
				r.logger.Error("failed to send error reply", slog.String("error", replyErr.Error()))
			}
		}
		return err
	}

	verb, args, ok := ParseCommand(msg.Content, settings.Prefix)
	if !ok {
		return nil
	}

	req := &request{
		conv:     conv,
		msg:      msg,
		args:     args,
		settings: settings,
		tier:     msg.Evidence.Tier(settings.DMRole),
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic handling command",
				slog.String("command", verb),
				slog.Any("panic", rec),
			)
			_ = req.reply(ctx, msgGenericError)
			err = fmt.Errorf("panic handling %s: %v", verb, rec)
		}
	}()

	handler, ok := r.handlers[verb]
	if !ok {
		return req.reply(ctx, fmt.Sprintf("Unknown command. Type `%shelp` for a list of commands.", settings.Prefix))
	}

	if err := handler(ctx, req); err != nil {
		r.logger.Error("command failed",
			slog.String("command", verb),
			slog.String("author_id", msg.Author.ID),
			slog.String("error", err.Error()),
		)
		if replyErr := req.reply(ctx, msgGenericError); replyErr != nil {
			r.logger.Error("failed to send error reply", slog.String("error", replyErr.Error()))
		}
		return err
	}
	return nil
}
