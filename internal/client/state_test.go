package client

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/progress"
)

func typeWord(s State, w string) State {
	for _, r := range w {
		s = s.Type(r)
	}
	return s
}

func ptr(v int) *int { return &v }

func TestNewState(t *testing.T) {
	s := NewState("u1", "geral", game.ModeNormal)
	assert.True(t, s.TimerActive)
	assert.Equal(t, 0, s.Timer)
	assert.NotNil(t, s.Guesses)

	b := NewState("u1", "geral", game.ModeBomb)
	assert.False(t, b.TimerActive, "bomb waits for start")
	assert.Equal(t, game.BombTimerStart, b.Timer)
}

func TestTypeAndDelete(t *testing.T) {
	s := NewState("u1", "geral", game.ModeNormal)
	s = typeWord(s, "Ca1ç")
	assert.Equal(t, [game.WordLength]string{"c", "a", "ç", "", ""}, s.Tiles)
	assert.Equal(t, 3, s.Active)

	s = typeWord(s, "mpx")
	assert.Equal(t, [game.WordLength]string{"c", "a", "ç", "m", "p"}, s.Tiles, "a full row ignores input")

	// Cursor past the end: delete clears the last tile.
	s = s.Delete()
	assert.Equal(t, 4, s.Active)
	assert.Equal(t, "", s.Tiles[4])

	// Cursor on a filled tile: clear it and step back.
	s = s.MoveLeft().MoveLeft()
	require.Equal(t, 2, s.Active)
	s = s.Delete()
	assert.Equal(t, [game.WordLength]string{"c", "a", "", "m", ""}, s.Tiles)
	assert.Equal(t, 1, s.Active)

	// Cursor on an empty tile: step back and clear the previous one.
	s = s.MoveRight()
	s = s.Delete()
	assert.Equal(t, [game.WordLength]string{"c", "", "", "m", ""}, s.Tiles)
	assert.Equal(t, 1, s.Active)

	s = s.MoveLeft().MoveLeft().MoveLeft()
	assert.Equal(t, 0, s.Active)
	s = s.Delete()
	assert.Equal(t, "", s.Tiles[0])
	assert.Equal(t, 0, s.Active)

	for range 10 {
		s = s.MoveRight()
	}
	assert.Equal(t, game.WordLength, s.Active)
}

func TestInputIgnoredWhenInactive(t *testing.T) {
	b := NewState("u1", "geral", game.ModeBomb)
	assert.Equal(t, b, b.Type('a'))
	assert.Equal(t, b, b.Delete())

	over := NewState("u1", "geral", game.ModeNormal)
	over.GameOver = true
	assert.Equal(t, over, over.Type('a'))
	_, _, err := over.Submit(true)
	assert.ErrorIs(t, err, ErrInactive)
}

func TestSubmitWin(t *testing.T) {
	s := NewState("u1", "geral", game.ModeNormal)
	s.Word = "névoa"
	s.Timer = 42

	s = typeWord(s, "campo")
	s, req, err := s.Submit(true)
	require.NoError(t, err)
	assert.False(t, s.GameOver)
	assert.Len(t, s.Guesses, 1)
	assert.Equal(t, [game.WordLength]string{}, s.Tiles)
	assert.Equal(t, game.StatusPresent, s.Keys["o"])
	assert.Equal(t, game.StatusAbsent, s.Keys["c"])
	assert.False(t, req.GameOver)
	assert.Nil(t, req.LastBombTime)

	s = typeWord(s, "nevoa")
	s, req, err = s.Submit(true)
	require.NoError(t, err)
	assert.True(t, s.GameWon)
	assert.True(t, s.GameOver)
	assert.False(t, s.TimerActive)

	want := progress.SaveRequest{
		UserID: "u1", Theme: "geral", Mode: "normal",
		Guesses: s.Guesses, GameWon: true, GameOver: true, Timer: 42,
	}
	assert.Empty(t, cmp.Diff(want, req))
}

func TestSubmitErrors(t *testing.T) {
	s := NewState("u1", "geral", game.ModeNormal)
	s.Word = "campo"

	_, _, err := typeWord(s, "cam").Submit(true)
	assert.ErrorIs(t, err, ErrIncomplete)

	full := typeWord(s, "zzzzz")
	next, _, err := full.Submit(false)
	assert.ErrorIs(t, err, ErrNotAWord)
	assert.Equal(t, full, next, "an unknown word leaves the board untouched")
}

func TestSubmitSixthMissLoses(t *testing.T) {
	s := NewState("u1", "geral", game.ModeNormal)
	s.Word = "campo"
	var req progress.SaveRequest
	var err error
	for range game.MaxAttempts {
		s, req, err = typeWord(s, "verde").Submit(true)
		require.NoError(t, err)
	}
	assert.True(t, s.GameOver)
	assert.False(t, s.GameWon)
	assert.True(t, req.GameOver)
	assert.Len(t, req.Guesses, game.MaxAttempts)
}

func TestSubmitReverse(t *testing.T) {
	s := NewState("u1", "geral", game.ModeReverse)
	s.Word = "campo"
	s, _, err := typeWord(s, "opmac").Submit(true)
	require.NoError(t, err)
	assert.True(t, s.GameWon)
}

func TestSubmitDoesNotShareGuesses(t *testing.T) {
	s := NewState("u1", "geral", game.ModeNormal)
	s.Word = "campo"
	s.Guesses = make([][]game.Feedback, 0, 6)
	a, _, err := typeWord(s, "barco").Submit(true)
	require.NoError(t, err)
	b, _, err := typeWord(s, "festa").Submit(true)
	require.NoError(t, err)
	assert.Equal(t, "barco", game.Word(a.Guesses[0]))
	assert.Equal(t, "festa", game.Word(b.Guesses[0]))
}

func TestTickCountsUp(t *testing.T) {
	s := NewState("u1", "geral", game.ModeNormal)
	for range 3 {
		var req *progress.SaveRequest
		s, req = s.Tick()
		assert.Nil(t, req)
	}
	assert.Equal(t, 3, s.Timer)

	s.GameOver = true
	s, _ = s.Tick()
	assert.Equal(t, 3, s.Timer, "a finished board keeps its time")
}

func TestBombCountdown(t *testing.T) {
	s := NewState("u1", "verbs", game.ModeBomb)
	s, req := s.Tick()
	assert.Nil(t, req)
	assert.Equal(t, game.BombTimerStart, s.Timer, "not started")

	s = s.StartBomb()
	require.True(t, s.Running())
	s.Timer = 2

	s, req = s.Tick()
	assert.Nil(t, req)
	assert.Equal(t, 1, s.Timer)

	s, req = s.Tick()
	require.NotNil(t, req)
	assert.True(t, s.GameOver)
	assert.False(t, s.GameWon)
	assert.Equal(t, 0, s.Timer)
	assert.Equal(t, progress.SaveRequest{
		UserID: "u1", Theme: "verbs", Mode: "bomba",
		Guesses: [][]game.Feedback{}, GameOver: true,
		HasBombStarted: true, LastBombTime: ptr(0),
	}, *req)

	s, req = s.Tick()
	assert.Nil(t, req)
	assert.Equal(t, 0, s.Timer)
}

func TestSubmitAfterBombExpiredIsOver(t *testing.T) {
	s := NewState("u1", "geral", game.ModeBomb).StartBomb()
	s.Word = "campo"
	s.Timer = 0
	s, req, err := typeWord(s, "barco").Submit(true)
	require.NoError(t, err)
	assert.True(t, s.GameOver)
	assert.True(t, req.GameOver)
}

func TestHide(t *testing.T) {
	_, ok := NewState("u1", "geral", game.ModeNormal).Hide()
	assert.False(t, ok, "only bomb boards are snapshotted")

	b := NewState("u1", "geral", game.ModeBomb)
	_, ok = b.Hide()
	assert.False(t, ok, "not started")

	b = b.StartBomb()
	b.Timer = 37
	req, ok := b.Hide()
	require.True(t, ok)
	require.NotNil(t, req.LastBombTime)
	assert.Equal(t, 37, *req.LastBombTime)
	assert.True(t, req.HasBombStarted)
	assert.False(t, req.GameOver)
}

func TestFromServer(t *testing.T) {
	rows := [][]game.Feedback{game.Score("barco", "campo", game.ModeNormal)}

	tests := []struct {
		name       string
		mode       game.Mode
		state      progress.State
		local      *int
		wantTimer  int
		wantActive bool
	}{
		{"normal resumes timer", game.ModeNormal, progress.State{Timer: 30}, nil, 30, true},
		{"normal finished", game.ModeNormal, progress.State{Timer: 30, GameOver: true}, nil, 30, false},
		{"bomb fresh", game.ModeBomb, progress.State{}, nil, game.BombTimerStart, false},
		{"bomb server timer", game.ModeBomb, progress.State{Timer: 40, HasBombStarted: true}, nil, 40, true},
		{"bomb last time wins", game.ModeBomb, progress.State{Timer: 40, HasBombStarted: true, LastBombTime: ptr(25)}, nil, 25, true},
		{"bomb zero last time", game.ModeBomb, progress.State{Timer: 40, HasBombStarted: true, LastBombTime: ptr(0)}, nil, 0, true},
		{"bomb local wins", game.ModeBomb, progress.State{HasBombStarted: true, LastBombTime: ptr(25)}, ptr(12), 12, true},
		{"bomb local clamped", game.ModeBomb, progress.State{HasBombStarted: true}, ptr(-3), 0, true},
		{"bomb local ignored before start", game.ModeBomb, progress.State{}, ptr(12), game.BombTimerStart, false},
		{"bomb local ignored when over", game.ModeBomb, progress.State{HasBombStarted: true, GameOver: true, LastBombTime: ptr(5)}, ptr(12), 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.state.Guesses = rows
			view := progress.View{Word: "campo", Theme: "geral", GameState: tt.state, AlreadyPlayed: tt.state.GameOver}
			s := FromServer("u1", tt.mode, view, tt.local)
			assert.Equal(t, tt.wantTimer, s.Timer)
			assert.Equal(t, tt.wantActive, s.TimerActive)
			assert.Equal(t, "campo", s.Word)
			assert.Equal(t, tt.state.GameOver, s.AlreadyPlayed)
			assert.Equal(t, game.StatusCorrect, s.Keys["o"])
			assert.Len(t, s.Guesses, 1)
		})
	}
}

func TestUntilMidnight(t *testing.T) {
	now := time.Date(2026, 10, 16, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, 90*time.Minute, UntilMidnight(now))

	loc := time.FixedZone("BRT", -3*3600)
	assert.Equal(t, 90*time.Minute, UntilMidnight(now.In(loc)))
}
