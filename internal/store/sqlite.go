// internal/store/sqlite.go
//
// SQLite implementation of the Store interface (the default backend).
// Responsibilities:
//   - Open the database file with safe defaults (WAL, busy timeout, foreign keys).
//   - Map the Store operations to single statements so each one is atomic.
//
// Notes:
//   - Guesses are stored as a JSON text column.
//   - Timestamps are RFC3339 UTC text, so substr(x, 1, 10) is the UTC date.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// sqliteDSN appends the connection pragmas to a file path.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

// ensureDir creates the parent directory of a relative or absolute db path.
func ensureDir(path string) error {
	path = strings.TrimPrefix(path, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// OpenSQLite opens (and creates if missing) the database file at path.
// The schema must already be migrated; Open does both.
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("ping sqlite", err)
	}
	return &sqliteStore{db: db, now: time.Now}, nil
}

func (s *sqliteStore) UsedWord(ctx context.Context, date, mode, theme string) (string, bool, error) {
	var word string
	err := s.db.QueryRowContext(ctx,
		`SELECT word FROM used_words WHERE date = ? AND mode = ? AND theme = ?`,
		date, mode, theme,
	).Scan(&word)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("used word", err)
	}
	return word, true, nil
}

func (s *sqliteStore) UsedWords(ctx context.Context, mode, theme string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word FROM used_words WHERE mode = ? AND theme = ? ORDER BY date`,
		mode, theme,
	)
	if err != nil {
		return nil, unavailable("used words", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, unavailable("used words", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("used words", err)
	}
	return out, nil
}

func (s *sqliteStore) ClaimWord(ctx context.Context, w UsedWord) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO used_words (date, mode, theme, word) VALUES (?, ?, ?, ?)`,
		w.Date, w.Mode, w.Theme, w.Word,
	); err != nil {
		return "", unavailable("claim word", err)
	}
	word, ok, err := s.UsedWord(ctx, w.Date, w.Mode, w.Theme)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", unavailable("claim word", errors.New("word missing after insert"))
	}
	return word, nil
}

func (s *sqliteStore) GameState(ctx context.Context, key string) (*GameState, error) {
	var (
		st        GameState
		guesses   string
		lastBomb  sql.NullInt64
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT state_key, user_id, date, theme, mode, guesses, game_won, game_over,
		        timer, has_bomb_started, last_bomb_time, updated_at
		   FROM game_states WHERE state_key = ?`, key,
	).Scan(&st.Key, &st.UserID, &st.Date, &st.Theme, &st.Mode, &guesses, &st.GameWon,
		&st.GameOver, &st.Timer, &st.HasBombStarted, &lastBomb, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("game state", err)
	}
	if err := json.Unmarshal([]byte(guesses), &st.Guesses); err != nil {
		return nil, fmt.Errorf("decode guesses for %s: %w", key, err)
	}
	if lastBomb.Valid {
		v := int(lastBomb.Int64)
		st.LastBombTime = &v
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		st.UpdatedAt = t
	}
	return &st, nil
}

func (s *sqliteStore) SaveGameState(ctx context.Context, st GameState) error {
	guesses, err := encodeGuesses(st)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_states (state_key, user_id, date, theme, mode, guesses, game_won,
		                          game_over, timer, has_bomb_started, last_bomb_time, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (state_key) DO UPDATE SET
		     guesses          = excluded.guesses,
		     game_won         = excluded.game_won,
		     game_over        = excluded.game_over,
		     timer            = excluded.timer,
		     has_bomb_started = excluded.has_bomb_started,
		     last_bomb_time   = excluded.last_bomb_time,
		     updated_at       = excluded.updated_at
		 WHERE game_states.game_over = 0`,
		st.Key, st.UserID, st.Date, st.Theme, st.Mode, guesses, st.GameWon,
		st.GameOver, st.Timer, st.HasBombStarted, st.LastBombTime,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return unavailable("save game state", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("save game state", err)
	}
	if n == 0 {
		return ErrAlreadyCompleted
	}
	return nil
}

func (s *sqliteStore) RecordCompletion(ctx context.Context, c Completion) (bool, error) {
	wins, losses := outcome(c.Won)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stats (user_id, mode, theme, total_games, wins, losses,
		                    total_attempts, total_time, last_played)
		 VALUES (?, ?, ?, 1, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, mode, theme) DO UPDATE SET
		     total_games    = stats.total_games + 1,
		     wins           = stats.wins + excluded.wins,
		     losses         = stats.losses + excluded.losses,
		     total_attempts = stats.total_attempts + excluded.total_attempts,
		     total_time     = stats.total_time + excluded.total_time,
		     last_played    = excluded.last_played
		 WHERE stats.last_played IS NULL
		    OR substr(stats.last_played, 1, 10) <> substr(excluded.last_played, 1, 10)`,
		c.UserID, c.Mode, c.Theme, wins, losses, c.Attempts, c.Time,
		c.At.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, unavailable("record completion", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("record completion", err)
	}
	return n > 0, nil
}

func (s *sqliteStore) Stats(ctx context.Context, userID string) ([]Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, mode, theme, total_games, wins, losses, total_attempts,
		        total_time, last_played
		   FROM stats WHERE user_id = ? ORDER BY mode, theme`, userID,
	)
	if err != nil {
		return nil, unavailable("stats", err)
	}
	defer rows.Close()

	out := []Stats{}
	for rows.Next() {
		var (
			st         Stats
			lastPlayed sql.NullString
		)
		if err := rows.Scan(&st.UserID, &st.Mode, &st.Theme, &st.TotalGames, &st.Wins,
			&st.Losses, &st.TotalAttempts, &st.TotalTime, &lastPlayed); err != nil {
			return nil, unavailable("stats", err)
		}
		if lastPlayed.Valid {
			if t, err := time.Parse(time.RFC3339, lastPlayed.String); err == nil {
				st.LastPlayed = &t
			}
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("stats", err)
	}
	return out, nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

// encodeGuesses marshals the board, writing [] for an empty one.
func encodeGuesses(st GameState) (string, error) {
	if st.Guesses == nil {
		return "[]", nil
	}
	b, err := json.Marshal(st.Guesses)
	if err != nil {
		return "", fmt.Errorf("encode guesses for %s: %w", st.Key, err)
	}
	return string(b), nil
}

// outcome splits a result into the wins and losses increments.
func outcome(won bool) (wins, losses int) {
	if won {
		return 1, 0
	}
	return 0, 1
}
