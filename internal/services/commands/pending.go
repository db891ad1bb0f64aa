package commands

import (
	"sync"
	"time"

	"github.com/mcoot/pointsbot/internal/dependencies/clock"
	"github.com/mcoot/pointsbot/internal/model"
)

type pendingKey struct {
	callerID string
	targetID string
}

type pendingReset struct {
	playerID  model.PlayerID
	createdAt time.Time
	// seq orders entries by insertion, even when createdAt ties
	seq uint64
}

// PendingResets tracks single-player resets awaiting confirmation, keyed by
// (caller, target). Entries older than the TTL are dropped; a zero TTL keeps
// them until confirmed.
type PendingResets struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[pendingKey]pendingReset
	nextSeq uint64
}

// NewPendingResets creates an empty session store
func NewPendingResets(clock clock.Clock, ttl time.Duration) *PendingResets {
	return &PendingResets{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[pendingKey]pendingReset),
	}
}

// Put records that callerID asked to reset the player behind targetID
func (p *PendingResets) Put(callerID, targetID string, playerID model.PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purgeLocked()
	p.nextSeq++
	p.entries[pendingKey{callerID: callerID, targetID: targetID}] = pendingReset{
		playerID:  playerID,
		createdAt: p.clock.Now(),
		seq:       p.nextSeq,
	}
}

// Take removes and returns the caller's most recent live pending reset
func (p *PendingResets) Take(callerID string) (model.PlayerID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purgeLocked()

	var (
		found   bool
		best    pendingKey
		bestSeq uint64
	)
	for key, entry := range p.entries {
		if key.callerID != callerID {
			continue
		}
		if !found || entry.seq > bestSeq {
			found, best, bestSeq = true, key, entry.seq
		}
	}
	if !found {
		return 0, false
	}
	playerID := p.entries[best].playerID
	delete(p.entries, best)
	return playerID, true
}

// Len returns the number of live pending resets
func (p *PendingResets) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purgeLocked()
	return len(p.entries)
}

func (p *PendingResets) purgeLocked() {
	if p.ttl <= 0 {
		return
	}
	cutoff := p.clock.Now().Add(-p.ttl)
	for key, entry := range p.entries {
		if entry.createdAt.Before(cutoff) {
			delete(p.entries, key)
		}
	}
}
