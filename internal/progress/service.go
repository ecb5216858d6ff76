// internal/progress/service.go
//
// Per-user daily progress and statistics.
// Responsibilities:
//   - GetState: today's word for (theme, mode) plus the player's saved board.
//   - SaveState: validate and persist a board, refusing changes once it is over.
//   - Count a finished game into the player's stats at most once per UTC day.
//   - Stats: list a player's counters with display names and derived figures.
//
// Notes:
//   - No locks here; atomicity comes from the store's conditional writes.
//   - Every store call gets its own timeout.
//   - A stats failure after a successful save is logged and returned; the save stands.

package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/cuca/internal/daily"
	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/store"
	"github.com/robalobadob/cuca/internal/words"
)

// ErrInvalidInput marks a malformed request.
var ErrInvalidInput = errors.New("dados inválidos")

// DefaultTimeout bounds each store call when no WithTimeout option is given.
const DefaultTimeout = 5 * time.Second

// State is the board sent to clients.
type State struct {
	Guesses        [][]game.Feedback `json:"guesses"`
	GameWon        bool              `json:"gameWon"`
	GameOver       bool              `json:"gameOver"`
	Timer          int               `json:"timer"`
	HasBombStarted bool              `json:"hasBombStarted"`
	LastBombTime   *int              `json:"lastBombTime"`
}

// View answers GET /gamestate.
type View struct {
	Word          string `json:"word"`
	GameState     State  `json:"gameState"`
	AlreadyPlayed bool   `json:"alreadyPlayed"`
	Theme         string `json:"theme"`
	Date          string `json:"date"`
}

// SaveRequest is the body of POST /gamestate.
type SaveRequest struct {
	UserID         string            `json:"userId"`
	Theme          string            `json:"theme"`
	Mode           string            `json:"mode"`
	Guesses        [][]game.Feedback `json:"guesses"`
	GameWon        bool              `json:"gameWon"`
	GameOver       bool              `json:"gameOver"`
	Timer          int               `json:"timer"`
	HasBombStarted bool              `json:"hasBombStarted"`
	LastBombTime   *int              `json:"lastBombTime,omitempty"`
}

// StatsRow is one stats record as listed by GET /stats.
type StatsRow struct {
	store.Stats
	ThemeName  string `json:"themeName"`
	ModeName   string `json:"modeName"`
	WinPercent int    `json:"winPercent"`
	Streak     int    `json:"streak"`
}

// Service implements the progress operations over an allocator and a store.
type Service struct {
	alloc   *daily.Allocator
	store   store.Store
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each store call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides time.Now for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service.
func NewService(alloc *daily.Allocator, st store.Store, opts ...Option) *Service {
	s := &Service{alloc: alloc, store: st, timeout: DefaultTimeout, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// call runs fn under the per-call store timeout.
func (s *Service) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

// GetState returns today's word and the player's board for theme and mode.
// A finished board is returned with AlreadyPlayed set; a missing one is empty.
func (s *Service) GetState(ctx context.Context, userID, theme string, mode game.Mode) (View, error) {
	if userID == "" {
		return View{}, fmt.Errorf("%w: missing userId", ErrInvalidInput)
	}

	var w daily.Word
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		w, err = s.alloc.WordOfDay(ctx, theme, mode)
		return err
	}); err != nil {
		return View{}, err
	}

	var saved *store.GameState
	key := store.Key(userID, w.Date, w.Theme, string(mode))
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		saved, err = s.store.GameState(ctx, key)
		return err
	}); err != nil {
		return View{}, fmt.Errorf("progress: load %s: %w", key, err)
	}

	view := View{
		Word:      w.Word,
		Theme:     w.Theme,
		Date:      w.Date,
		GameState: State{Guesses: [][]game.Feedback{}},
	}
	if saved != nil {
		view.GameState = stateOf(*saved)
		view.AlreadyPlayed = saved.GameOver
	}
	return view, nil
}

// SaveState persists req as today's board for its (user, theme, mode).
//
// Returns:
//   - ErrInvalidInput when a required field is missing or the board is malformed.
//   - store.ErrAlreadyCompleted when today's board is already over.
//   - a store.ErrUnavailable chain on backend failure.
func (s *Service) SaveState(ctx context.Context, req SaveRequest) error {
	mode, err := validate(req)
	if err != nil {
		return err
	}

	theme := s.alloc.ResolveTheme(req.Theme)
	date := s.alloc.Today()
	st := store.GameState{
		Key:            store.Key(req.UserID, date, theme, string(mode)),
		UserID:         req.UserID,
		Date:           date,
		Theme:          theme,
		Mode:           string(mode),
		Guesses:        req.Guesses,
		GameWon:        req.GameWon,
		GameOver:       req.GameOver,
		Timer:          max(req.Timer, 0),
		HasBombStarted: req.HasBombStarted,
		LastBombTime:   req.LastBombTime,
	}
	if err := s.call(ctx, func(ctx context.Context) error {
		return s.store.SaveGameState(ctx, st)
	}); err != nil {
		return fmt.Errorf("progress: save %s: %w", st.Key, err)
	}

	if !req.GameOver {
		return nil
	}
	if err := s.recordCompletion(ctx, st.Key); err != nil {
		log.Error().Err(err).Str("key", st.Key).Msg("stats update failed after save")
		return err
	}
	return nil
}

// recordCompletion re-reads today's board and counts it if it is over.
func (s *Service) recordCompletion(ctx context.Context, key string) error {
	var saved *store.GameState
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		saved, err = s.store.GameState(ctx, key)
		return err
	}); err != nil {
		return fmt.Errorf("progress: reload %s: %w", key, err)
	}
	if saved == nil || !saved.GameOver {
		return nil
	}

	c := store.Completion{
		UserID:   saved.UserID,
		Mode:     saved.Mode,
		Theme:    saved.Theme,
		Won:      saved.GameWon,
		Attempts: len(saved.Guesses),
		Time:     saved.Timer,
		At:       s.now(),
	}
	var counted bool
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		counted, err = s.store.RecordCompletion(ctx, c)
		return err
	}); err != nil {
		return fmt.Errorf("progress: record stats for %s: %w", key, err)
	}
	log.Debug().Str("key", key).Bool("counted", counted).Msg("completion recorded")
	return nil
}

// Stats lists every stats row of userID.
func (s *Service) Stats(ctx context.Context, userID string) ([]StatsRow, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrInvalidInput)
	}
	var rows []store.Stats
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		rows, err = s.store.Stats(ctx, userID)
		return err
	}); err != nil {
		return nil, fmt.Errorf("progress: stats for %s: %w", userID, err)
	}
	return lo.Map(rows, func(st store.Stats, _ int) StatsRow {
		return statsRow(st)
	}), nil
}

func statsRow(st store.Stats) StatsRow {
	row := StatsRow{
		Stats:     st,
		ThemeName: words.ThemeName(st.Theme),
		ModeName:  game.ModeName(game.Mode(st.Mode)),
	}
	if st.TotalGames > 0 {
		row.WinPercent = (st.Wins*100 + st.TotalGames/2) / st.TotalGames
		if st.Losses == 0 {
			row.Streak = st.Wins
		}
	}
	return row
}

func stateOf(g store.GameState) State {
	guesses := g.Guesses
	if guesses == nil {
		guesses = [][]game.Feedback{}
	}
	return State{
		Guesses:        guesses,
		GameWon:        g.GameWon,
		GameOver:       g.GameOver,
		Timer:          g.Timer,
		HasBombStarted: g.HasBombStarted,
		LastBombTime:   g.LastBombTime,
	}
}

// validate checks the required fields and the board shape.
func validate(req SaveRequest) (game.Mode, error) {
	switch {
	case req.UserID == "":
		return "", fmt.Errorf("%w: missing userId", ErrInvalidInput)
	case req.Theme == "":
		return "", fmt.Errorf("%w: missing theme", ErrInvalidInput)
	case req.Mode == "":
		return "", fmt.Errorf("%w: missing mode", ErrInvalidInput)
	case req.Guesses == nil:
		return "", fmt.Errorf("%w: guesses must be a list", ErrInvalidInput)
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := game.ValidateRows(req.Guesses); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return mode, nil
}
