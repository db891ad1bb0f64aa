package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/pointsbot/internal/dependencies/clock"
	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/query"
	"github.com/mcoot/pointsbot/internal/web/templates/components"
)

// SSE event names sent alongside the raw ledger event types
const (
	EventRankingsUpdate = "rankings-update"
	EventPlayerUpdate   = "player-update"
)

const eventQueueSize = 256

// Rankings provides the ranking page rendered into live updates
type Rankings interface {
	Ranking(ctx context.Context, page int) (*query.RankingPage, error)
}

// Broadcaster fans ledger events out to SSE clients
type Broadcaster struct {
	hubManager *HubManager
	rankings   Rankings
	clock      clock.Clock
	locale     query.Locale
	logger     *slog.Logger
	events     chan model.Event
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, rankings Rankings, clk clock.Clock, locale query.Locale, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		rankings:   rankings,
		clock:      clk,
		locale:     locale,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
		events:     make(chan model.Event, eventQueueSize),
	}
}

// Handle queues a ledger event for delivery without blocking the caller.
// It matches the ledger listener signature.
func (b *Broadcaster) Handle(event model.Event) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn("sse event dropped - queue full", slog.String("type", string(event.Type)))
	}
}

// Run delivers queued events until ctx is cancelled
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case event := <-b.events:
			b.Deliver(ctx, event)
		case <-ctx.Done():
			return
		}
	}
}

// Deliver sends one event to the ledger hub and to the affected player hubs
func (b *Broadcaster) Deliver(ctx context.Context, event model.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("sse failed to encode event", slog.Any("error", err))
		return
	}

	if hub := b.hubManager.GetHub(TopicLedger); hub != nil {
		hub.BroadcastEvent(string(event.Type), string(payload))
		if html, err := b.renderRankings(ctx); err != nil {
			b.logger.Error("sse failed to render rankings", slog.Any("error", err))
		} else {
			hub.BroadcastEvent(EventRankingsUpdate, html)
		}
	}

	if event.Player != nil {
		if hub := b.hubManager.GetHub(PlayerTopic(event.Player.ID)); hub != nil {
			hub.BroadcastEvent(EventPlayerUpdate, string(payload))
		}
		return
	}

	// all_reset touches every player
	for _, hub := range b.hubManager.Hubs() {
		if hub.Topic() != TopicLedger {
			hub.BroadcastEvent(EventPlayerUpdate, string(payload))
		}
	}
}

func (b *Broadcaster) renderRankings(ctx context.Context) (string, error) {
	page, err := b.rankings.Ranking(ctx, 1)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := components.LeaderboardTable(page, b.clock.Now(), b.locale).Render(ctx, &buf); err != nil {
		return "", err
	}
	return WrapForOOBSwap(components.RankingsRegionID, buf.String()), nil
}

// WrapForOOBSwap wraps HTML in a div with hx-swap-oob for out-of-band swaps
func WrapForOOBSwap(id, html string) string {
	return `<div id="` + id + `" hx-swap-oob="true">` + html + `</div>`
}
