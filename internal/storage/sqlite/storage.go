// Package sqlite provides a SQLite-backed ledger storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/storage"
	"github.com/mcoot/pointsbot/internal/storage/sqlite/migrations"
)

const (
	settingPrefix = "prefix"
	settingDMRole = "dm_role"
)

// Storage persists the ledger in SQLite
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies embedded migrations
func Open(ctx context.Context, path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (discord_id, username, points, last_updated) VALUES (?, ?, ?, ?)`,
		player.DiscordID, player.Username, player.Points, toMillis(player.LastUpdated),
	)
	if err != nil {
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE) {
			return model.ErrDuplicatePlayer
		}
		return fmt.Errorf("insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert player id: %w", err)
	}
	player.ID = model.PlayerID(id)
	return nil
}

const playerColumns = `id, discord_id, username, points, last_updated`

func scanPlayer(row interface{ Scan(...any) error }) (*model.Player, error) {
	var (
		p       model.Player
		updated int64
	)
	if err := row.Scan(&p.ID, &p.DiscordID, &p.Username, &p.Points, &updated); err != nil {
		return nil, err
	}
	p.LastUpdated = fromMillis(updated)
	return &p, nil
}

func (s *Storage) getPlayerWhere(ctx context.Context, where string, arg any) (*model.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE `+where, arg)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.getPlayerWhere(ctx, "id = ?", int64(id))
}

func (s *Storage) GetPlayerByDiscordID(ctx context.Context, discordID string) (*model.Player, error) {
	return s.getPlayerWhere(ctx, "discord_id = ?", discordID)
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id`)
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

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Storage) UpdatePlayer(ctx context.Context, player *model.Player) error {
	return updatePlayer(ctx, s.db, player)
}

func updatePlayer(ctx context.Context, ex execer, player *model.Player) error {
	res, err := ex.ExecContext(ctx,
		`UPDATE players SET username = ?, points = ?, last_updated = ? WHERE id = ?`,
		player.Username, player.Points, toMillis(player.LastUpdated), int64(player.ID),
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if n == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

// ApplyMutation updates the players row and inserts the history row in one transaction
func (s *Storage) ApplyMutation(ctx context.Context, player *model.Player, entry *model.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mutation: %w", err)
	}

	if err := updatePlayer(ctx, tx, player); err != nil {
		_ = tx.Rollback()
		return err
	}
	id, err := insertHistory(ctx, tx, entry)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mutation: %w", err)
	}
	entry.ID = id
	return nil
}

// History operations

func insertHistory(ctx context.Context, ex execer, entry *model.HistoryEntry) (model.HistoryEntryID, error) {
	var reason sql.NullString
	if entry.Reason != "" {
		reason = sql.NullString{String: entry.Reason, Valid: true}
	}
	res, err := ex.ExecContext(ctx,
		`INSERT INTO point_history (player_id, amount, reason, timestamp, added_by) VALUES (?, ?, ?, ?, ?)`,
		int64(entry.PlayerID), entry.Amount, reason, toMillis(entry.Timestamp), entry.AddedBy,
	)
	if err != nil {
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return 0, model.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("insert history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert history id: %w", err)
	}
	return model.HistoryEntryID(id), nil
}

func (s *Storage) ListHistory(ctx context.Context, filter storage.HistoryFilter) ([]*model.HistoryEntry, error) {
	query := `SELECT id, player_id, amount, reason, timestamp, added_by FROM point_history`
	var args []any
	if filter.PlayerID != nil {
		query += ` WHERE player_id = ?`
		args = append(args, int64(*filter.PlayerID))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]*model.HistoryEntry, 0)
	for rows.Next() {
		var (
			e      model.HistoryEntry
			reason sql.NullString
			ts     int64
		)
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Amount, &reason, &ts, &e.AddedBy); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Reason = reason.String
		e.Timestamp = fromMillis(ts)
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
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM bot_settings`)
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
		case settingPrefix:
			settings.Prefix = value
		case settingDMRole:
			settings.DMRole = value
		}
	}
	return settings, rows.Err()
}

func (s *Storage) SaveSettings(ctx context.Context, settings model.Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save settings: %w", err)
	}
	for name, value := range map[string]string{
		settingPrefix: settings.Prefix,
		settingDMRole: settings.DMRole,
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bot_settings (name, value) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
			name, value,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save setting %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func isConstraint(err error, code int) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == code
	}
	return false
}
