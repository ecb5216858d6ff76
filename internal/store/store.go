// internal/store/store.go
//
// Persistence model for daily words, per-user game state and stats.
// Responsibilities:
//   - Define the records shared by every backend (UsedWord, GameState, Stats).
//   - Define the Store interface the allocator and progress service depend on.
//   - Define the sentinel errors callers classify with errors.Is.
//
// Atomicity lives in the backends: a UNIQUE key on used words, a conditional
// upsert that refuses to touch a finished game, and a per-day guard on stats.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/cuca/internal/game"
)

var (
	// ErrAlreadyCompleted is returned when a save targets a game that is already over.
	ErrAlreadyCompleted = errors.New("store: game already completed")

	// ErrUnavailable wraps any backend failure (connection, timeout, query).
	ErrUnavailable = errors.New("store: unavailable")
)

// UsedWord is the word assigned to one (date, mode, theme). Rows are never updated.
type UsedWord struct {
	Date  string `json:"date"`
	Mode  string `json:"mode"`
	Theme string `json:"theme"`
	Word  string `json:"word"`
}

// GameState is one player's board for one day, theme and mode.
type GameState struct {
	Key            string            `json:"key"`
	UserID         string            `json:"userId"`
	Date           string            `json:"date"`
	Theme          string            `json:"theme"`
	Mode           string            `json:"mode"`
	Guesses        [][]game.Feedback `json:"guesses"`
	GameWon        bool              `json:"gameWon"`
	GameOver       bool              `json:"gameOver"`
	Timer          int               `json:"timer"`
	HasBombStarted bool              `json:"hasBombStarted"`
	LastBombTime   *int              `json:"lastBombTime"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Stats are a player's aggregate counters for one (mode, theme).
type Stats struct {
	UserID        string     `json:"userId"`
	Mode          string     `json:"mode"`
	Theme         string     `json:"theme"`
	TotalGames    int        `json:"totalGames"`
	Wins          int        `json:"wins"`
	Losses        int        `json:"losses"`
	TotalAttempts int        `json:"totalAttempts"`
	TotalTime     int        `json:"totalTime"`
	LastPlayed    *time.Time `json:"lastPlayed"`
}

// Completion is one finished game to fold into Stats.
type Completion struct {
	UserID   string
	Mode     string
	Theme    string
	Won      bool
	Attempts int
	Time     int
	At       time.Time
}

// Store is implemented by the memory, sqlite and postgres backends.
type Store interface {
	// UsedWord returns the word stored for (date, mode, theme), if any.
	UsedWord(ctx context.Context, date, mode, theme string) (word string, ok bool, err error)

	// UsedWords lists every word ever assigned to (mode, theme).
	UsedWords(ctx context.Context, mode, theme string) ([]string, error)

	// ClaimWord inserts w unless its (date, mode, theme) is taken and returns
	// the word that is stored afterwards, which may be another caller's.
	ClaimWord(ctx context.Context, w UsedWord) (string, error)

	// GameState returns the row for key, or nil when there is none.
	GameState(ctx context.Context, key string) (*GameState, error)

	// SaveGameState upserts s unless the stored row is already over,
	// in which case it returns ErrAlreadyCompleted and changes nothing.
	SaveGameState(ctx context.Context, s GameState) error

	// RecordCompletion counts c unless the (user, mode, theme) row was
	// already counted on c.At's UTC date. It reports whether c was counted.
	RecordCompletion(ctx context.Context, c Completion) (bool, error)

	// Stats lists every stats row of userID.
	Stats(ctx context.Context, userID string) ([]Stats, error)

	Close() error
}

// Key builds the game state key: {userId}-{date}-{theme}-{mode}.
func Key(userID, date, theme, mode string) string {
	return fmt.Sprintf("%s-%s-%s-%s", userID, date, theme, mode)
}

// DateOf returns the UTC YYYY-MM-DD of t.
func DateOf(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// unavailable wraps a backend error so callers can match ErrUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
