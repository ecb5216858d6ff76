// internal/store/postgres.go
//
// PostgreSQL implementation of the Store interface on a pgx pool.
// Responsibilities:
//   - Open a UTC pool and verify it with a ping.
//   - Map the Store operations to single statements so each one is atomic.
//
// Notes:
//   - Guesses are a JSONB column.
//   - Every connection runs with timezone=UTC, so ::date casts give the UTC day.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pool for url. The schema must already be migrated;
// Open does both.
func OpenPostgres(ctx context.Context, url string) (Store, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, unavailable("create connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping database", err)
	}
	return &postgresStore{pool: pool}, nil
}

// parseDate turns a YYYY-MM-DD key into a value pgx encodes as DATE.
func parseDate(date string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: bad date %q: %w", date, err)
	}
	return t, nil
}

func (s *postgresStore) UsedWord(ctx context.Context, date, mode, theme string) (string, bool, error) {
	d, err := parseDate(date)
	if err != nil {
		return "", false, err
	}
	var word string
	err = s.pool.QueryRow(ctx,
		`SELECT word FROM used_words WHERE date = $1 AND mode = $2 AND theme = $3`,
		d, mode, theme,
	).Scan(&word)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("used word", err)
	}
	return word, true, nil
}

func (s *postgresStore) UsedWords(ctx context.Context, mode, theme string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT word FROM used_words WHERE mode = $1 AND theme = $2 ORDER BY date`,
		mode, theme,
	)
	if err != nil {
		return nil, unavailable("used words", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, unavailable("used words", err)
	}
	return out, nil
}

func (s *postgresStore) ClaimWord(ctx context.Context, w UsedWord) (string, error) {
	d, err := parseDate(w.Date)
	if err != nil {
		return "", err
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO used_words (date, mode, theme, word) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (date, mode, theme) DO NOTHING`,
		d, w.Mode, w.Theme, w.Word,
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

func (s *postgresStore) GameState(ctx context.Context, key string) (*GameState, error) {
	var (
		st      GameState
		date    time.Time
		guesses []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT state_key, user_id, date, theme, mode, guesses, game_won, game_over,
		        timer, has_bomb_started, last_bomb_time, updated_at
		   FROM game_states WHERE state_key = $1`, key,
	).Scan(&st.Key, &st.UserID, &date, &st.Theme, &st.Mode, &guesses, &st.GameWon,
		&st.GameOver, &st.Timer, &st.HasBombStarted, &st.LastBombTime, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("game state", err)
	}
	if err := json.Unmarshal(guesses, &st.Guesses); err != nil {
		return nil, fmt.Errorf("decode guesses for %s: %w", key, err)
	}
	st.Date = DateOf(date)
	return &st, nil
}

func (s *postgresStore) SaveGameState(ctx context.Context, st GameState) error {
	d, err := parseDate(st.Date)
	if err != nil {
		return err
	}
	guesses, err := encodeGuesses(st)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO game_states (state_key, user_id, date, theme, mode, guesses, game_won,
		                          game_over, timer, has_bomb_started, last_bomb_time, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11, NOW())
		 ON CONFLICT (state_key) DO UPDATE SET
		     guesses          = EXCLUDED.guesses,
		     game_won         = EXCLUDED.game_won,
		     game_over        = EXCLUDED.game_over,
		     timer            = EXCLUDED.timer,
		     has_bomb_started = EXCLUDED.has_bomb_started,
		     last_bomb_time   = EXCLUDED.last_bomb_time,
		     updated_at       = EXCLUDED.updated_at
		 WHERE game_states.game_over = FALSE`,
		st.Key, st.UserID, d, st.Theme, st.Mode, guesses, st.GameWon,
		st.GameOver, st.Timer, st.HasBombStarted, st.LastBombTime,
	)
	if err != nil {
		return unavailable("save game state", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCompleted
	}
	return nil
}

func (s *postgresStore) RecordCompletion(ctx context.Context, c Completion) (bool, error) {
	wins, losses := outcome(c.Won)
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO stats (user_id, mode, theme, total_games, wins, losses,
		                    total_attempts, total_time, last_played)
		 VALUES ($1, $2, $3, 1, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, mode, theme) DO UPDATE SET
		     total_games    = stats.total_games + 1,
		     wins           = stats.wins + EXCLUDED.wins,
		     losses         = stats.losses + EXCLUDED.losses,
		     total_attempts = stats.total_attempts + EXCLUDED.total_attempts,
		     total_time     = stats.total_time + EXCLUDED.total_time,
		     last_played    = EXCLUDED.last_played
		 WHERE stats.last_played IS NULL
		    OR (stats.last_played AT TIME ZONE 'UTC')::date
		       <> (EXCLUDED.last_played AT TIME ZONE 'UTC')::date`,
		c.UserID, c.Mode, c.Theme, wins, losses, c.Attempts, c.Time, c.At.UTC(),
	)
	if err != nil {
		return false, unavailable("record completion", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *postgresStore) Stats(ctx context.Context, userID string) ([]Stats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, mode, theme, total_games, wins, losses, total_attempts,
		        total_time, last_played
		   FROM stats WHERE user_id = $1 ORDER BY mode, theme`, userID,
	)
	if err != nil {
		return nil, unavailable("stats", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Stats, error) {
		var st Stats
		err := row.Scan(&st.UserID, &st.Mode, &st.Theme, &st.TotalGames, &st.Wins,
			&st.Losses, &st.TotalAttempts, &st.TotalTime, &st.LastPlayed)
		if st.LastPlayed != nil {
			utc := st.LastPlayed.UTC()
			st.LastPlayed = &utc
		}
		return st, err
	})
	if err != nil {
		return nil, unavailable("stats", err)
	}
	return out, nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
