package redis

import (
	"fmt"

	"github.com/mcoot/pointsbot/internal/model"
)

// keyspace builds every key under one prefix so several ledgers can share a server
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return keyspace{prefix: prefix}
}

// playerSeq is the counter used to allocate player ids
func (k keyspace) playerSeq() string {
	return fmt.Sprintf("%s:seq:player", k.prefix)
}

// historySeq is the counter used to allocate history entry ids
func (k keyspace) historySeq() string {
	return fmt.Sprintf("%s:seq:history", k.prefix)
}

func (k keyspace) player(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", k.prefix, id)
}

// discordIndex maps a discord id to its player id
func (k keyspace) discordIndex(discordID string) string {
	return fmt.Sprintf("%s:idx:discord:%s", k.prefix, discordID)
}

// players is the ZSET of player ids scored by id
func (k keyspace) players() string {
	return fmt.Sprintf("%s:players", k.prefix)
}

// history is the append-only LIST of every history entry
func (k keyspace) history() string {
	return fmt.Sprintf("%s:history", k.prefix)
}

// playerHistory is the append-only LIST of one player's history entries
func (k keyspace) playerHistory(id model.PlayerID) string {
	return fmt.Sprintf("%s:history:player:%d", k.prefix, id)
}

// settings is the HASH holding bot settings
func (k keyspace) settings() string {
	return fmt.Sprintf("%s:settings", k.prefix)
}
