// Package storage provides SQLite-based persistence for match history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
)

// Store manages the SQLite database connection for match history.
type Store struct {
	db *sql.DB
}

// MatchRecord is one resolved or forfeited match.
type MatchRecord struct {
	ID        int64
	MatchID   string
	RoomID    string
	RoomName  string
	WinnerID  string // Empty unless the match completed
	EndReason string // "completed", "forfeit", "expired"
	StartedAt time.Time
	Duration  time.Duration
	CreatedAt time.Time
	Players   []MatchPlayer
}

// MatchPlayer is one participant's line in a match. Scores are reported by
// clients and stored as given.
type MatchPlayer struct {
	ParticipantID string
	Username      string
	Score         int
	Position      int // Order in the room, starting at 0
}

// PlayerStats aggregates the history of one participant.
type PlayerStats struct {
	ParticipantID string
	Matches       int
	Wins          int
	BestScore     int
	AvgScore      float64
	LastPlayed    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL UNIQUE,
			room_id TEXT NOT NULL,
			room_name TEXT NOT NULL DEFAULT '',
			winner_id TEXT,
			end_reason TEXT NOT NULL,
			started_at_ms INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_matches_room_id ON matches(room_id);

		CREATE TABLE IF NOT EXISTS match_players (
			match_id TEXT NOT NULL REFERENCES matches(match_id) ON DELETE CASCADE,
			participant_id TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			PRIMARY KEY (match_id, participant_id)
		);
		CREATE INDEX IF NOT EXISTS idx_match_players_participant ON match_players(participant_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveMatch records a match and its players in one transaction.
// Returns the ID of the inserted match row.
func (s *Store) SaveMatch(ctx context.Context, m MatchRecord) (int64, error) {
	if m.MatchID == "" {
		return 0, errors.New("storage: match id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	var started int64
	if !m.StartedAt.IsZero() {
		started = m.StartedAt.UnixMilli()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO matches (match_id, room_id, room_name, winner_id, end_reason, started_at_ms, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID, m.RoomID, m.RoomName, nullString(m.WinnerID), m.EndReason, started, m.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	for i, p := range m.Players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_players (match_id, participant_id, username, score, position)
			 VALUES (?, ?, ?, ?, ?)`,
			m.MatchID, p.ParticipantID, p.Username, p.Score, i,
		); err != nil {
			return 0, fmt.Errorf("storage: cannot save match player %s: %w", p.ParticipantID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit match: %w", err)
	}
	return id, nil
}

// SaveMatchResult implements multiplayer.MatchResultSaver.
// This adapter allows the coordinator to save match results without direct storage dependency.
func (s *Store) SaveMatchResult(data multiplayer.MatchResultData) error {
	m := MatchRecord{
		MatchID:   string(data.MatchID),
		RoomID:    string(data.RoomID),
		RoomName:  data.RoomName,
		WinnerID:  string(data.WinnerID),
		EndReason: data.EndReason.String(),
		StartedAt: data.StartedAt,
		Duration:  data.Duration,
	}
	for _, p := range data.Players {
		m.Players = append(m.Players, MatchPlayer{
			ParticipantID: string(p.ID),
			Username:      p.Username,
			Score:         p.Score,
		})
	}
	_, err := s.SaveMatch(context.Background(), m)
	return err
}

// Ensure Store implements MatchResultSaver
var _ multiplayer.MatchResultSaver = (*Store)(nil)

const matchColumns = `m.id, m.match_id, m.room_id, m.room_name, m.winner_id, m.end_reason,
	m.started_at_ms, m.duration_ms, m.created_at`

// MatchByID retrieves a match by its match ID. Returns nil if it does not exist.
func (s *Store) MatchByID(ctx context.Context, matchID string) (*MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches m WHERE m.match_id = ?`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	matches, err := s.collect(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// RecentMatches retrieves the most recent matches, newest first.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches m
		 ORDER BY m.created_at DESC, m.id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	return s.collect(ctx, rows)
}

// PlayerMatchHistory retrieves the matches a participant took part in, newest first.
func (s *Store) PlayerMatchHistory(ctx context.Context, participantID string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches m
		 JOIN match_players p ON p.match_id = m.match_id
		 WHERE p.participant_id = ?
		 ORDER BY m.created_at DESC, m.id DESC
		 LIMIT ?`,
		participantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player matches: %w", err)
	}
	return s.collect(ctx, rows)
}

// PlayerStats aggregates a participant's history. A participant without
// matches yields zero stats.
func (s *Store) PlayerStats(ctx context.Context, participantID string) (*PlayerStats, error) {
	stats := &PlayerStats{ParticipantID: participantID}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(p.score), 0), COALESCE(AVG(p.score), 0),
		        COALESCE(SUM(CASE WHEN m.winner_id = p.participant_id THEN 1 ELSE 0 END), 0)
		 FROM match_players p
		 JOIN matches m ON m.match_id = p.match_id
		 WHERE p.participant_id = ?`,
		participantID,
	).Scan(&stats.Matches, &stats.BestScore, &stats.AvgScore, &stats.Wins)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}

	var lastPlayed any
	err = s.db.QueryRowContext(ctx,
		`SELECT m.created_at
		 FROM matches m
		 JOIN match_players p ON p.match_id = m.match_id
		 WHERE p.participant_id = ?
		 ORDER BY m.created_at DESC, m.id DESC
		 LIMIT 1`,
		participantID,
	).Scan(&lastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot get last played: %w", err)
	}
	if err == nil {
		stats.LastPlayed = parseTime(lastPlayed)
	}

	return stats, nil
}

// collect scans match rows and loads their players. rows is closed.
func (s *Store) collect(ctx context.Context, rows *sql.Rows) ([]MatchRecord, error) {
	var matches []MatchRecord
	for rows.Next() {
		var m MatchRecord
		var winner sql.NullString
		var startedMs, durationMs int64
		var createdAt any
		if err := rows.Scan(&m.ID, &m.MatchID, &m.RoomID, &m.RoomName, &winner, &m.EndReason,
			&startedMs, &durationMs, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		if winner.Valid {
			m.WinnerID = winner.String
		}
		if startedMs > 0 {
			m.StartedAt = time.UnixMilli(startedMs)
		}
		m.Duration = time.Duration(durationMs) * time.Millisecond
		m.CreatedAt = parseTime(createdAt)
		matches = append(matches, m)
	}
	err := rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	for i := range matches {
		players, err := s.players(ctx, matches[i].MatchID)
		if err != nil {
			return nil, err
		}
		matches[i].Players = players
	}
	return matches, nil
}

func (s *Store) players(ctx context.Context, matchID string) ([]MatchPlayer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id, username, score, position
		 FROM match_players
		 WHERE match_id = ?
		 ORDER BY position`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match players: %w", err)
	}
	defer rows.Close()

	var players []MatchPlayer
	for rows.Next() {
		var p MatchPlayer
		if err := rows.Scan(&p.ParticipantID, &p.Username, &p.Score, &p.Position); err != nil {
			return nil, fmt.Errorf("storage: cannot scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return players, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
