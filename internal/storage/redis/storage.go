package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
}

// New creates a new Redis storage instance
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   newKeyspace(cfg.KeyPrefix),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	seq, err := s.client.Incr(ctx, s.keys.playerSeq()).Result()
	if err != nil {
		return fmt.Errorf("allocate player id: %w", err)
	}
	id := model.PlayerID(seq)

	// The discord index claims the identity; losing the race means a duplicate
	claimed, err := s.client.SetNX(ctx, s.keys.discordIndex(player.DiscordID), int64(id), 0).Result()
	if err != nil {
		return fmt.Errorf("claim discord id: %w", err)
	}
	if !claimed {
		return model.ErrDuplicatePlayer
	}

	player.ID = id
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.player(id), data, 0)
	pipe.ZAdd(ctx, s.keys.players(), redis.Z{Score: float64(id), Member: int64(id)})
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the claim so the discord id can register again
		if relErr := s.releaseDiscordID(context.WithoutCancel(ctx), player.DiscordID, id); relErr != nil {
			return fmt.Errorf("save player: %w", errors.Join(err, relErr))
		}
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

// releaseDiscordID drops the index entry only while it still points at id
func (s *Storage) releaseDiscordID(ctx context.Context, discordID string, id model.PlayerID) error {
	key := s.keys.discordIndex(discordID)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		owner, err := tx.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if model.PlayerID(owner) != id {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, s.keys.player(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByDiscordID(ctx context.Context, discordID string) (*model.Player, error) {
	id, err := s.client.Get(ctx, s.keys.discordIndex(discordID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(id))
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	members, err := s.client.ZRange(ctx, s.keys.players(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse player index member %q: %w", m, err)
		}
		keys = append(keys, s.keys.player(model.PlayerID(id)))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// index entry without a record
			continue
		}
		var p model.Player
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	return players, nil
}

func (s *Storage) UpdatePlayer(ctx context.Context, player *model.Player) error {
	existing, err := s.GetPlayer(ctx, player.ID)
	if err != nil {
		return err
	}
	updated := player.Clone()
	updated.DiscordID = existing.DiscordID

	data, err := json.Marshal(updated)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.keys.player(player.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrPlayerNotFound
	}
	return nil
}

// ApplyMutation writes the player record and pushes entry onto both history
// lists in one MULTI. The player key is watched so a concurrent delete or
// rewrite aborts the transaction instead of leaving an orphaned entry.
func (s *Storage) ApplyMutation(ctx context.Context, player *model.Player, entry *model.HistoryEntry) error {
	if entry.PlayerID != player.ID {
		return model.ErrPlayerNotFound
	}
	key := s.keys.player(player.ID)

	seq, err := s.client.Incr(ctx, s.keys.historySeq()).Result()
	if err != nil {
		return fmt.Errorf("allocate history id: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return model.ErrPlayerNotFound
		}
		if err != nil {
			return err
		}
		var existing model.Player
		if err := json.Unmarshal(raw, &existing); err != nil {
			return err
		}

		updated := player.Clone()
		updated.DiscordID = existing.DiscordID
		playerData, err := json.Marshal(updated)
		if err != nil {
			return err
		}

		stored := *entry
		stored.ID = model.HistoryEntryID(seq)
		entryData, err := json.Marshal(&stored)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, playerData, 0)
			pipe.RPush(ctx, s.keys.history(), entryData)
			pipe.RPush(ctx, s.keys.playerHistory(player.ID), entryData)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return err
		}
		return fmt.Errorf("apply mutation: %w", err)
	}
	entry.ID = model.HistoryEntryID(seq)
	return nil
}

// History operations

func (s *Storage) ListHistory(ctx context.Context, filter storage.HistoryFilter) ([]*model.HistoryEntry, error) {
	key := s.keys.history()
	if filter.PlayerID != nil {
		key = s.keys.playerHistory(*filter.PlayerID)
	}

	values, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.HistoryEntry, 0, len(values))
	for _, v := range values {
		var e model.HistoryEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

// Settings operations

func (s *Storage) GetSettings(ctx context.Context) (model.Settings, error) {
	values, err := s.client.HGetAll(ctx, s.keys.settings()).Result()
	if err != nil {
		return model.Settings{}, err
	}
	return model.Settings{
		Prefix: values["prefix"],
		DMRole: values["dm_role"],
	}, nil
}

func (s *Storage) SaveSettings(ctx context.Context, settings model.Settings) error {
	return s.client.HSet(ctx, s.keys.settings(),
		"prefix", settings.Prefix,
		"dm_role", settings.DMRole,
	).Err()
}
