// internal/client/state.go
//
// Board controller for the terminal client.
// Responsibilities:
//   - Hold the whole client board in one explicit State value.
//   - Apply player input (typing, delete, cursor moves, submit) and timer ticks.
//   - Produce the save requests the server expects at each persistence point.
//
// Notes:
//   - Every operation takes a State and returns the next one; nothing here does I/O.
//   - Bomb mode counts down from game.BombTimerStart once started; reaching zero ends
//     the game as a loss. Other modes count seconds up while the board is open.
//   - Guess validation against the word list happens on the server; Submit is told
//     the answer.

package client

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/progress"
)

var (
	// ErrInactive is returned when input arrives on a finished or paused board.
	ErrInactive = errors.New("jogo não está ativo")
	// ErrIncomplete is returned when Enter is pressed with empty tiles.
	ErrIncomplete = errors.New("palavra incompleta")
	// ErrNotAWord is returned for a complete guess the server does not know.
	ErrNotAWord = errors.New("palavra inválida")
)

// State is one player's board for a (theme, mode) on the current day.
type State struct {
	UserID string
	Theme  string
	Mode   game.Mode
	Word   string // today's word, as sent by the server

	Guesses [][]game.Feedback
	Tiles   [game.WordLength]string // the row being typed
	Active  int                     // cursor, 0..WordLength

	Timer       int
	TimerActive bool
	BombStarted bool

	GameOver      bool
	GameWon       bool
	AlreadyPlayed bool

	Keys map[string]game.Status
}

// NewState returns an empty board. The timer runs immediately except in bomb mode,
// which waits for StartBomb.
func NewState(userID, theme string, mode game.Mode) State {
	s := State{
		UserID:  userID,
		Theme:   theme,
		Mode:    mode,
		Guesses: [][]game.Feedback{},
		Keys:    map[string]game.Status{},
	}
	if mode == game.ModeBomb {
		s.Timer = game.BombTimerStart
	} else {
		s.TimerActive = true
	}
	return s
}

// FromServer builds the board from a GET /gamestate answer.
//
// In bomb mode the countdown resumes from, in order of preference:
//   - localBomb, the value kept on this machine, when the bomb is running;
//   - the server's lastBombTime;
//   - the server's timer, or a full countdown when that is zero.
func FromServer(userID string, mode game.Mode, view progress.View, localBomb *int) State {
	gs := view.GameState
	s := NewState(userID, view.Theme, mode)
	s.Word = view.Word
	s.AlreadyPlayed = view.AlreadyPlayed
	if gs.Guesses != nil {
		s.Guesses = gs.Guesses
	}
	s.GameOver = gs.GameOver
	s.GameWon = gs.GameWon
	s.Keys = game.KeyStatuses(s.Guesses)

	if mode != game.ModeBomb {
		s.Timer = gs.Timer
		s.TimerActive = !s.GameOver
		return s
	}

	s.BombStarted = gs.HasBombStarted
	bomb := gs.Timer
	if bomb == 0 {
		bomb = game.BombTimerStart
	}
	if gs.LastBombTime != nil {
		bomb = *gs.LastBombTime
	}
	if localBomb != nil && !s.GameOver && s.BombStarted {
		bomb = max(*localBomb, 0)
	}
	s.Timer = bomb
	s.TimerActive = !s.GameOver && s.BombStarted
	return s
}

// accepting reports whether the board takes letter input.
func (s State) accepting() bool {
	return !s.GameOver && s.TimerActive
}

// Type writes r at the cursor and advances it. Only a-z and ç are accepted.
func (s State) Type(r rune) State {
	if !s.accepting() || s.Active >= game.WordLength {
		return s
	}
	l := strings.ToLower(string(r))
	if !isKey(l) {
		return s
	}
	s.Tiles[s.Active] = l
	s.Active++
	return s
}

func isKey(l string) bool {
	return l == "ç" || (len(l) == 1 && l[0] >= 'a' && l[0] <= 'z')
}

// Delete clears a tile. With the cursor on an empty tile it steps back and clears
// the previous one; otherwise it clears the current tile and steps back.
func (s State) Delete() State {
	if !s.accepting() {
		return s
	}
	if s.Active > 0 && (s.Active == game.WordLength || s.Tiles[s.Active] == "") {
		s.Active--
		s.Tiles[s.Active] = ""
		return s
	}
	if s.Active < game.WordLength {
		s.Tiles[s.Active] = ""
	}
	if s.Active > 0 {
		s.Active--
	}
	return s
}

// MoveLeft moves the cursor one tile left.
func (s State) MoveLeft() State {
	if !s.accepting() {
		return s
	}
	s.Active = max(0, s.Active-1)
	return s
}

// MoveRight moves the cursor one tile right, up to just past the last tile.
func (s State) MoveRight() State {
	if !s.accepting() {
		return s
	}
	s.Active = min(game.WordLength, s.Active+1)
	return s
}

// StartBomb arms the countdown in bomb mode.
func (s State) StartBomb() State {
	if s.Mode != game.ModeBomb || s.GameOver || s.BombStarted {
		return s
	}
	s.BombStarted = true
	s.TimerActive = true
	return s
}

// Running reports whether Tick advances the timer.
func (s State) Running() bool {
	if !s.TimerActive || s.GameOver {
		return false
	}
	return s.Mode != game.ModeBomb || s.BombStarted
}

// Tick advances the timer by one second. When the bomb reaches zero the game
// ends as a loss and the returned request must be saved.
func (s State) Tick() (State, *progress.SaveRequest) {
	if !s.Running() {
		return s, nil
	}
	if s.Mode != game.ModeBomb {
		s.Timer++
		return s, nil
	}

	s.Timer--
	if s.Timer > 0 {
		return s, nil
	}
	s.Timer = 0
	s.GameOver = true
	s.GameWon = false
	s.TimerActive = false
	zero := 0
	req := s.request()
	req.LastBombTime = &zero
	return s, &req
}

// Pending returns the typed row and whether every tile is filled.
func (s State) Pending() (string, bool) {
	for _, t := range s.Tiles {
		if t == "" {
			return "", false
		}
	}
	return strings.Join(s.Tiles[:], ""), true
}

// Submit scores the typed row. known is the server's answer to whether the row
// is a real word. On success the row is appended, the keyboard updated, the
// tiles cleared, and the save request for the new board returned.
func (s State) Submit(known bool) (State, progress.SaveRequest, error) {
	if !s.accepting() {
		return s, progress.SaveRequest{}, ErrInactive
	}
	guess, ok := s.Pending()
	if !ok {
		return s, progress.SaveRequest{}, ErrIncomplete
	}
	if !known {
		return s, progress.SaveRequest{}, ErrNotAWord
	}

	row := game.Score(guess, s.Word, s.Mode)
	s.Guesses = append(slices.Clone(s.Guesses), row)
	s.Keys = game.MergeKeyStatuses(s.Keys, row)
	s.Tiles = [game.WordLength]string{}
	s.Active = 0
	s.GameWon = game.IsWin(guess, s.Word, s.Mode)
	s.GameOver = game.IsOver(s.GameWon, len(s.Guesses), s.Mode, s.Timer)
	if s.GameOver {
		s.TimerActive = false
	}
	return s, s.request(), nil
}

// Hide returns the snapshot to save when the player leaves a running bomb board,
// so the countdown resumes where it stopped. ok is false when nothing needs saving.
func (s State) Hide() (req progress.SaveRequest, ok bool) {
	if s.Mode != game.ModeBomb || !s.Running() {
		return progress.SaveRequest{}, false
	}
	left := s.Timer
	req = s.request()
	req.LastBombTime = &left
	return req, true
}

// request is the POST /gamestate body for the current board.
func (s State) request() progress.SaveRequest {
	return progress.SaveRequest{
		UserID:         s.UserID,
		Theme:          s.Theme,
		Mode:           string(s.Mode),
		Guesses:        s.Guesses,
		GameWon:        s.GameWon,
		GameOver:       s.GameOver,
		Timer:          s.Timer,
		HasBombStarted: s.BombStarted,
	}
}

// UntilMidnight is the time left before the next daily word (UTC).
func UntilMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}
