// Package postgres provides a PostgreSQL-backed ledger storage implementation.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Storage persists the ledger in PostgreSQL
type Storage struct {
	pool *pgxpool.Pool
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open connects to the database at dsn and ensures the schema exists
func Open(ctx context.Context, dsn string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{pool: pool}, nil
}

// Close releases the connection pool
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// Truncate removes all ledger data; used to isolate tests sharing a database
func (s *Storage) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE point_history, players, bot_settings RESTART IDENTITY`)
	return err
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO players (discord_id, username, points, last_updated)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		player.DiscordID, player.Username, player.Points, player.LastUpdated.UTC(),
	).Scan(&player.ID)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return model.ErrDuplicatePlayer
		}
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

const playerColumns = `id, discord_id, username, points, last_updated`

func scanPlayer(row pgx.Row) (*model.Player, error) {
	var p model.Player
	if err := row.Scan(&p.ID, &p.DiscordID, &p.Username, &p.Points, &p.LastUpdated); err != nil {
		return nil, err
	}
	p.LastUpdated = p.LastUpdated.UTC()
	return &p, nil
}

func (s *Storage) getPlayerWhere(ctx context.Context, where string, arg any) (*model.Player, error) {
	p, err := scanPlayer(s.pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.getPlayerWhere(ctx, "id = $1", int64(id))
}

func (s *Storage) GetPlayerByDiscordID(ctx context.Context, discordID string) (*model.Player, error) {
	return s.getPlayerWhere(ctx, "discord_id = $1", discordID)
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := make([]*model.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Storage) UpdatePlayer(ctx context.Context, player *model.Player) error {
	return updatePlayer(ctx, s.pool, player)
}

func updatePlayer(ctx context.Context, q querier, player *model.Player) error {
	tag, err := q.Exec(ctx,
		`UPDATE players SET username = $1, points = $2, last_updated = $3 WHERE id = $4`,
		player.Username, player.Points, player.LastUpdated.UTC(), int64(player.ID),
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

// ApplyMutation updates the players row and inserts the history row in one transaction
func (s *Storage) ApplyMutation(ctx context.Context, player *model.Player, entry *model.HistoryEntry) error {
	var id model.HistoryEntryID
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := updatePlayer(ctx, tx, player); err != nil {
			return err
		}
		var err error
		id, err = insertHistory(ctx, tx, entry)
		return err
	})
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// History operations

func insertHistory(ctx context.Context, q querier, entry *model.HistoryEntry) (model.HistoryEntryID, error) {
	var reason *string
	if entry.Reason != "" {
		reason = &entry.Reason
	}
	var id model.HistoryEntryID
	err := q.QueryRow(ctx,
		`INSERT INTO point_history (player_id, amount, reason, timestamp, added_by)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		int64(entry.PlayerID), entry.Amount, reason, entry.Timestamp.UTC(), entry.AddedBy,
	).Scan(&id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return 0, model.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return id, nil
}

func (s *Storage) ListHistory(ctx context.Context, filter storage.HistoryFilter) ([]*model.HistoryEntry, error) {
	query := `SELECT id, player_id, amount, reason, timestamp, added_by FROM point_history`
	var args []any
	if filter.PlayerID != nil {
		query += ` WHERE player_id = $1`
		args = append(args, int64(*filter.PlayerID))
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]*model.HistoryEntry, 0)
	for rows.Next() {
		var (
			e      model.HistoryEntry
			reason *string
		)
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Amount, &reason, &e.Timestamp, &e.AddedBy); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if reason != nil {
			e.Reason = *reason
		}
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Settings operations

func (s *Storage) GetSettings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	rows, err := s.pool.Query(ctx, `SELECT name, value FROM bot_settings`)
	if err != nil {
		return settings, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return settings, fmt.Errorf("scan setting: %w", err)
		}
		switch name {
		case "prefix":
			settings.Prefix = value
		case "dm_role":
			settings.DMRole = value
		}
	}
	return settings, rows.Err()
}

func (s *Storage) SaveSettings(ctx context.Context, settings model.Settings) error {
	batch := &pgx.Batch{}
	upsert := `INSERT INTO bot_settings (name, value) VALUES ($1, $2)
	           ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`
	batch.Queue(upsert, "prefix", settings.Prefix)
	batch.Queue(upsert, "dm_role", settings.DMRole)
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
